package rating

import (
	"errors"
	"strings"
)

var (
	ErrInvalidOutcome = errors.New("rating: unrecognized outcome")
	ErrSelfReport     = errors.New("rating: cannot report a game against yourself")
)

// Outcome is a game result from the reporter's point of view.
type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLoss
	OutcomeDraw
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomeDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// score is the reporter's Elo score for the outcome.
func (o Outcome) score() float64 {
	switch o {
	case OutcomeWin:
		return 1
	case OutcomeLoss:
		return 0
	default:
		return 0.5
	}
}

// ParseOutcome accepts the result word and its common shorthands,
// case-insensitively.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "w":
		return OutcomeWin, nil
	case "loss", "l", "lose":
		return OutcomeLoss, nil
	case "draw", "d", "tie":
		return OutcomeDraw, nil
	default:
		return 0, ErrInvalidOutcome
	}
}
