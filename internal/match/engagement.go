package match

import (
	"time"

	"github.com/google/uuid"

	kit "chessbot/internal/transport"
)

// State is the explicit lifecycle state of an engagement. Absence from the
// registry is the terminal state; there is no "completed" state, outcome
// reporting is a separate flow.
type State int

const (
	StateProposed State = iota
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateProposed:
		return "proposed"
	case StateConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Engagement is a proposed or confirmed two-party game.
//
// Invariants:
//   - Initiator != Responder
//   - a player id appears in at most one registry entry, as either side
//   - ScheduledAt passed the window validator at proposal time; it is
//     never re-validated afterwards
type Engagement struct {
	ID          string
	Initiator   int64
	Responder   int64 // zero while Proposed
	State       State
	ScheduledAt time.Time
	CreatedAt   time.Time

	// Origin points at the message that surfaced the proposal. The
	// transport owns its meaning; recorded by the caller once the
	// proposal card has been sent.
	Origin kit.MessageRef
}

// Involves reports whether id participates in the engagement.
func (e *Engagement) Involves(id int64) bool {
	return e.Initiator == id || (e.State == StateConfirmed && e.Responder == id)
}

func newID() string { return uuid.NewString() }
