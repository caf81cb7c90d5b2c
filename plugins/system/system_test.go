package system

import (
	"strings"
	"testing"
	"time"

	core "chessbot/internal/plugin"
)

func TestCommandsRegisterExpectedRoutes(t *testing.T) {
	p := New()
	want := map[string]bool{
		"uptime": false, "status": false, "status health": false,
	}
	for _, c := range p.Commands() {
		if _, ok := want[c.Route]; ok {
			want[c.Route] = true
		}
		if strings.HasPrefix(c.Route, "status") && c.Access != core.AccessOwnerOnly {
			t.Errorf("command %q must be owner only", c.Route)
		}
	}
	for route, seen := range want {
		if !seen {
			t.Errorf("command %q not registered", route)
		}
	}
}

func TestRenderStatus(t *testing.T) {
	now := time.Now()
	d := statusData{
		StartedAt: now.Add(-90 * time.Minute),
		Owners:    []int64{42},
		Plugins: core.PluginsSnapshot{
			Time: now,
			Plugins: []core.PluginStatus{
				{Name: "chess", Enabled: true, Running: true},
				{Name: "broken", Enabled: true, Quarantined: true, QuarantineErr: "start: boom"},
			},
		},
		SchedEnabled: true,
		Sched: core.Snapshot{
			Enabled:  true,
			Timezone: "UTC",
			Schedules: []core.ScheduleInfo{
				{Name: "plugin:chess:sweep", Spec: "*/10 * * * *", Next: now.Add(3 * time.Minute)},
			},
		},
		Sups: map[string]core.SupervisorSnapshot{
			"adapter": {FirstError: "poll: connection reset"},
		},
	}

	out := renderStatus(d)

	for _, want := range []string{
		"Status: Degraded",
		"Owners: 42",
		"2 loaded (2 enabled, 1 running, 1 quarantined)",
		"Timezone: UTC",
		"plugin:chess:sweep: spec=*/10 * * * *",
		"adapter: active=0 started=0 err=poll: connection reset",
		"chess",
		"quarantined: start: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatusHealthy(t *testing.T) {
	d := statusData{
		StartedAt: time.Now(),
		Plugins: core.PluginsSnapshot{
			Plugins: []core.PluginStatus{{Name: "chess", Enabled: true, Running: true}},
		},
	}
	out := renderStatus(d)
	if !strings.Contains(out, "Status: Running") {
		t.Errorf("healthy snapshot must render Running:\n%s", out)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("disabled scheduler must be shown:\n%s", out)
	}
}

func TestRenderHealth(t *testing.T) {
	if got := renderHealth(nil); !strings.Contains(got, "no plugins") {
		t.Errorf("empty results = %q", got)
	}

	out := renderHealth([]core.PluginHealthResult{
		{Plugin: "chess", Status: "ok"},
		{Plugin: "broken", Err: "db unreachable"},
	})
	if !strings.Contains(out, "✅ chess: ok") {
		t.Errorf("healthy line missing:\n%s", out)
	}
	if !strings.Contains(out, "⚠️ broken: db unreachable") {
		t.Errorf("failing line missing:\n%s", out)
	}
}

func TestDurRel(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
		{90 * time.Minute, "1h30m"},
		{-30 * time.Second, "30s"},
	}
	for _, c := range cases {
		if got := durRel(c.d); got != c.want {
			t.Errorf("durRel(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestFmtBytes(t *testing.T) {
	cases := []struct {
		n    uint64
		want string
	}{
		{512, "512B"},
		{2048, "2.0KB"},
		{3 * 1024 * 1024, "3.0MB"},
	}
	for _, c := range cases {
		if got := fmtBytes(c.n); got != c.want {
			t.Errorf("fmtBytes(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
