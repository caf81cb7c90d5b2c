package chess

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWantsGame(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"anyone up to play chess tomorrow at 10:00?", true},
		{"chess game on friday?", true},
		{"Chess GAME?", true},
		{"let's play checkers", false},
		{"chess is a great sport", false},
		{"game night anyone?", false},
		{"", false},
	}
	for _, c := range cases {
		if got := wantsGame(c.text); got != c.want {
			t.Errorf("wantsGame(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("empty keeps defaults", func(t *testing.T) {
		s, err := parseConfig(nil)
		if err != nil {
			t.Fatalf("parseConfig(nil): %v", err)
		}
		def := defaults()
		if s != def {
			t.Fatalf("got %+v, want defaults %+v", s, def)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		raw := json.RawMessage(`{"proposal_ttl":"1h","sweep_spec":"@hourly","reminder_lead":"15m"}`)
		s, err := parseConfig(raw)
		if err != nil {
			t.Fatalf("parseConfig: %v", err)
		}
		if s.proposalTTL != time.Hour {
			t.Errorf("proposalTTL = %v, want 1h", s.proposalTTL)
		}
		if s.sweepSpec != "@hourly" {
			t.Errorf("sweepSpec = %q, want @hourly", s.sweepSpec)
		}
		if s.reminderLead != 15*time.Minute {
			t.Errorf("reminderLead = %v, want 15m", s.reminderLead)
		}
	})

	t.Run("rejects bad values", func(t *testing.T) {
		bad := []string{
			`{"proposal_ttl":"soon"}`,
			`{"proposal_ttl":"-1h"}`,
			`{"sweep_spec":"whenever"}`,
			`{"reminder_lead":"x"}`,
		}
		for _, b := range bad {
			if _, err := parseConfig(json.RawMessage(b)); err == nil {
				t.Errorf("parseConfig(%s): expected error", b)
			}
		}
	})
}

func TestCommandsRegisterExpectedRoutes(t *testing.T) {
	p := New()
	want := map[string]bool{
		"cancel": false, "report": false, "elo": false,
		"leaderboard": false, "ping": false,
	}
	for _, c := range p.Commands() {
		if _, ok := want[c.Route]; ok {
			want[c.Route] = true
		}
	}
	for route, seen := range want {
		if !seen {
			t.Errorf("command %q not registered", route)
		}
	}
}
