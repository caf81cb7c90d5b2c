package match

import (
	"errors"
	"strings"
)

// Action is a callback verb carried in a button token.
type Action int

const (
	ActionAccept Action = iota
	ActionCancel
)

var ErrBadToken = errors.New("match: malformed action token")

// AcceptToken and CancelToken build the payloads embedded in the proposal
// card buttons. ParseToken is the inverse.
func AcceptToken(id string) string { return "accept_" + id }
func CancelToken(id string) string { return "cancel_" + id }

// ParseToken splits an action token into its verb and engagement id.
// Tokens with an unknown verb or an empty id are rejected.
func ParseToken(tok string) (Action, string, error) {
	verb, id, ok := strings.Cut(tok, "_")
	if !ok || id == "" {
		return 0, "", ErrBadToken
	}
	switch verb {
	case "accept":
		return ActionAccept, id, nil
	case "cancel":
		return ActionCancel, id, nil
	default:
		return 0, "", ErrBadToken
	}
}
