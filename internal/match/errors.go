package match

import "errors"

// Lifecycle errors. Every operation validates all preconditions before
// mutating anything, so on any of these the registry is unchanged.
var (
	ErrInvalidTimeWindow   = errors.New("match: time is outside the allowed game windows")
	ErrDuplicateEngagement = errors.New("match: player already has an active game")
	ErrNotFound            = errors.New("match: game not found")
	ErrSelfAcceptance      = errors.New("match: cannot accept your own game")
	ErrAlreadyConfirmed    = errors.New("match: game already accepted")
	ErrUnauthorized        = errors.New("match: only participants may cancel")
)
