// Package notifier provides a lightweight asynchronous notification service.
//
// Notifications are small, high-signal messages (game invites, confirmations,
// rating updates, reminders). A notification carries a priority, a target
// chat (optionally with a thread/topic), and send options such as "disable
// link preview".
//
// # Transport
//
// The service delegates delivery to a kit.Adapter implementation (e.g. the
// Telegram adapter). Plugins emit notifications without depending on a
// specific messaging platform.
//
// # Delivery
//
// Sends are queued and drained by a worker pool behind a token-bucket rate
// limit, with jittered exponential retry and a short in-memory dedup window.
// Delivery is fire-and-forget from the caller's point of view; failures are
// published on the event bus, never propagated back.
package notifier
