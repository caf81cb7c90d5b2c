package app

import (
	"fmt"
	"time"

	"chessbot/internal/notifier"
)

// mapNotifierConfig translates config.NotifierConfig (string durations) into
// notifier.Config. An omitted section means the notifier runs with defaults.
func mapNotifierConfig(cfg *Config) (notifier.Config, error) {
	out := notifier.Config{
		Enabled:         true,
		Workers:         2,
		QueueSize:       256,
		RatePerSec:      20,
		RetryMax:        3,
		RetryBase:       500 * time.Millisecond,
		RetryMaxDelay:   10 * time.Second,
		DedupWindow:     0,
		DedupMaxEntries: 2048,
	}
	if cfg == nil || cfg.Notifier == nil {
		return out, nil
	}
	nc := cfg.Notifier

	out.Enabled = nc.Enabled
	if nc.Workers < 0 {
		return out, fmt.Errorf("notifier.workers must be >= 0")
	}
	if nc.Workers > 0 {
		out.Workers = nc.Workers
	}
	if nc.QueueSize < 0 {
		return out, fmt.Errorf("notifier.queue_size must be >= 0")
	}
	if nc.QueueSize > 0 {
		out.QueueSize = nc.QueueSize
	}
	if nc.RatePerSec < 0 {
		return out, fmt.Errorf("notifier.rate_per_sec must be >= 0")
	}
	if nc.RatePerSec > 0 {
		out.RatePerSec = nc.RatePerSec
	}
	if nc.RetryMax < 0 {
		return out, fmt.Errorf("notifier.retry_max must be >= 0")
	}
	if nc.RetryMax > 0 {
		out.RetryMax = nc.RetryMax
	}

	var err error
	out.RetryBase, err = parseDurationOrDefault("notifier.retry_base", nc.RetryBase, out.RetryBase)
	if err != nil {
		return out, err
	}
	out.RetryMaxDelay, err = parseDurationOrDefault("notifier.retry_max_delay", nc.RetryMaxDelay, out.RetryMaxDelay)
	if err != nil {
		return out, err
	}
	out.DedupWindow, err = parseDurationOrDefault("notifier.dedup_window", nc.DedupWindow, out.DedupWindow)
	if err != nil {
		return out, err
	}
	if nc.DedupMaxEntries < 0 {
		return out, fmt.Errorf("notifier.dedup_max_entries must be >= 0")
	}
	if nc.DedupMaxEntries > 0 {
		out.DedupMaxEntries = nc.DedupMaxEntries
	}
	return out, nil
}
