// Package scheduler is a slim trigger service built on robfig/cron.
//
// It owns:
//   - cron/interval schedules (timezone aware, upsert by name)
//   - one-time timers (AddOnce)
//   - direct, panic-safe job execution with per-job timeout
//
// Jobs run on goroutines owned by the service; a schedule whose previous
// run is still in flight is skipped.
package scheduler
