package adapter

import "time"

// Config holds the settings needed to build the telebot long-poll adapter.
type Config struct {
	Token       string
	PollTimeout time.Duration
}
