package scheduler

import (
	"context"
	"testing"
	"time"

	logx "chessbot/pkg/logx"
)

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		kind    SpecKind
		cron    string
		every   time.Duration
		wantErr bool
	}{
		{in: "*/5 * * * *", kind: SpecCron, cron: "*/5 * * * *"},
		{in: "@hourly", kind: SpecCron, cron: "@hourly"},
		{in: "@every 55m", kind: SpecCron, cron: "@every 55m"},
		{in: "55m", kind: SpecInterval, every: 55 * time.Minute},
		{in: "2h30m", kind: SpecInterval, every: 2*time.Hour + 30*time.Minute},
		{in: "02:30", kind: SpecInterval, every: 2*time.Hour + 30*time.Minute},
		{in: "00:50", kind: SpecInterval, every: 50 * time.Minute},
		{in: "", wantErr: true},
		{in: "00:00", wantErr: true},
		{in: "02:75", wantErr: true},
		{in: "-5m", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			ps, err := ParseSchedule(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseSchedule(%q): expected error, got %+v", tc.in, ps)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q): %v", tc.in, err)
			}
			if ps.Kind != tc.kind {
				t.Fatalf("kind = %v, want %v", ps.Kind, tc.kind)
			}
			if tc.kind == SpecCron && ps.Cron != tc.cron {
				t.Fatalf("cron = %q, want %q", ps.Cron, tc.cron)
			}
			if tc.kind == SpecInterval && ps.Every != tc.every {
				t.Fatalf("every = %v, want %v", ps.Every, tc.every)
			}
		})
	}
}

func TestRemoveUnknownName(t *testing.T) {
	t.Parallel()
	s := New(Config{}, logx.Nop(), nil)
	if s.Remove("nope") {
		t.Fatalf("Remove on empty service should report false")
	}
}

func TestAddBeforeStartKeepsDefinition(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true}, logx.Nop(), nil)
	name, err := s.AddCron("sweep", "*/5 * * * *", time.Second, func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("AddCron: %v", err)
	}
	if name != "sweep" {
		t.Fatalf("name = %q, want sweep", name)
	}
	snap := s.Snapshot()
	if len(snap.Schedules) != 1 || snap.Schedules[0].Name != "sweep" {
		t.Fatalf("snapshot = %+v, want one schedule named sweep", snap.Schedules)
	}
	if !s.Remove("sweep") {
		t.Fatalf("Remove should report true for a registered schedule")
	}
	if got := len(s.Snapshot().Schedules); got != 0 {
		t.Fatalf("schedules after remove = %d, want 0", got)
	}
}
