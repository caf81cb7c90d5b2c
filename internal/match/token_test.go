package match

import (
	"errors"
	"testing"
)

func TestParseToken(t *testing.T) {
	t.Parallel()
	cases := []struct {
		tok    string
		action Action
		id     string
		bad    bool
	}{
		{tok: AcceptToken("abc-123"), action: ActionAccept, id: "abc-123"},
		{tok: CancelToken("abc-123"), action: ActionCancel, id: "abc-123"},
		{tok: "accept_x_y", action: ActionAccept, id: "x_y"},
		{tok: "accept_", bad: true},
		{tok: "accept", bad: true},
		{tok: "resign_abc", bad: true},
		{tok: "", bad: true},
	}
	for _, tc := range cases {
		action, id, err := ParseToken(tc.tok)
		if tc.bad {
			if !errors.Is(err, ErrBadToken) {
				t.Fatalf("ParseToken(%q) err = %v, want ErrBadToken", tc.tok, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseToken(%q): %v", tc.tok, err)
		}
		if action != tc.action || id != tc.id {
			t.Fatalf("ParseToken(%q) = %v %q, want %v %q", tc.tok, action, id, tc.action, tc.id)
		}
	}
}
