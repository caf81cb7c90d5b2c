package system

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	core "chessbot/internal/plugin"
	kit "chessbot/internal/transport"
)

type statusData struct {
	StartedAt time.Time
	Owners    []int64
	Plugins core.PluginsSnapshot
	Mem     runtime.MemStats

	SchedEnabled bool
	Sched        core.Snapshot

	Sups map[string]core.SupervisorSnapshot
}

func (p *Plugin) cmdStatus(ctx context.Context, req *core.Request) error {
	ps := req.Services
	if ps == nil || ps.Plugins == nil {
		_, _ = req.Adapter.SendText(ctx, req.Chat, "plugin runtime is unavailable", nil)
		return nil
	}

	d := statusData{
		StartedAt: p.startedAt,
		Owners:    req.OwnerUserID,
		Plugins:   ps.Plugins.Snapshot(),
		Sups:      map[string]core.SupervisorSnapshot{},
	}
	runtime.ReadMemStats(&d.Mem)

	if ps.Scheduler != nil && ps.Scheduler.Enabled() {
		d.SchedEnabled = true
		d.Sched = ps.Scheduler.Snapshot()
	}
	if ps.AppSupervisor != nil {
		d.Sups["app"] = ps.AppSupervisor.Snapshot()
	}
	if ps.RuntimeSupervisors != nil {
		for name, s := range ps.RuntimeSupervisors.Snapshot() {
			if s != nil {
				d.Sups[name] = s.Snapshot()
			}
		}
	}

	// Plain text on purpose: this command is operational and must not fail
	// on a Telegram parse error.
	_, err := req.Adapter.SendText(ctx, req.Chat, renderStatus(d), &kit.SendOptions{DisablePreview: true})
	return err
}

func (p *Plugin) cmdHealth(ctx context.Context, req *core.Request) error {
	ps := req.Services
	if ps == nil || ps.Plugins == nil {
		_, _ = req.Adapter.SendText(ctx, req.Chat, "plugin runtime is unavailable", nil)
		return nil
	}

	// Keep the refresh bounded even if a plugin blocks.
	cctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	results := ps.Plugins.CheckHealth(cctx, req.Args)
	cancel()

	_, err := req.Adapter.SendText(ctx, req.Chat, renderHealth(results), &kit.SendOptions{DisablePreview: true})
	return err
}

func renderStatus(d statusData) string {
	loaded := len(d.Plugins.Plugins)
	enabledN, runningN, quarantinedN, unhealthyN := 0, 0, 0, 0
	for _, st := range d.Plugins.Plugins {
		if st.Enabled {
			enabledN++
		}
		if st.Running {
			runningN++
		}
		if st.Quarantined {
			quarantinedN++
		}
		if st.Enabled && st.Running && st.HasHealthChecker && st.LastHealth.Err != "" {
			unhealthyN++
		}
	}

	status := "Running"
	if quarantinedN > 0 || unhealthyN > 0 {
		status = "Degraded"
	}

	owners := "-"
	if len(d.Owners) > 0 {
		parts := make([]string, 0, len(d.Owners))
		for _, id := range d.Owners {
			parts = append(parts, fmt.Sprintf("%d", id))
		}
		owners = strings.Join(parts, ", ")
	}

	var b strings.Builder
	b.Grow(2048)

	b.WriteString("🏥 Bot Status\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString("Status: " + status + "\n")
	b.WriteString("Uptime: " + durRel(time.Since(d.StartedAt)) + "\n")
	b.WriteString("Owners: " + owners + "\n")
	b.WriteString(fmt.Sprintf("Plugins: %d loaded (%d enabled, %d running", loaded, enabledN, runningN))
	if quarantinedN > 0 {
		b.WriteString(fmt.Sprintf(", %d quarantined", quarantinedN))
	}
	b.WriteString(")\n\n")

	b.WriteString("💾 Memory\n")
	b.WriteString("  • Allocated: " + fmtBytes(d.Mem.Alloc) + "\n")
	b.WriteString("  • System:    " + fmtBytes(d.Mem.Sys) + "\n")
	b.WriteString(fmt.Sprintf("  • GC Runs:   %d\n", d.Mem.NumGC))
	b.WriteString("\n")

	b.WriteString("🤖 Runtime\n")
	b.WriteString("  • Go Version: " + runtime.Version() + "\n")
	b.WriteString(fmt.Sprintf("  • Goroutines: %d\n", runtime.NumGoroutine()))
	b.WriteString(fmt.Sprintf("  • CPUs:       %d\n", runtime.NumCPU()))
	b.WriteString("\n")

	b.WriteString("⏱ Scheduler\n")
	if !d.SchedEnabled {
		b.WriteString("  • disabled\n")
	} else {
		b.WriteString("  • Timezone: " + d.Sched.Timezone + "\n")
		scheds := append([]core.ScheduleInfo(nil), d.Sched.Schedules...)
		sort.Slice(scheds, func(i, j int) bool { return scheds[i].Name < scheds[j].Name })
		now := time.Now()
		for _, s := range scheds {
			next := "-"
			if !s.Next.IsZero() {
				next = s.Next.Local().Format("2006-01-02 15:04:05")
				if s.Next.After(now) {
					next += " (" + durRel(s.Next.Sub(now)) + ")"
				}
			}
			b.WriteString(fmt.Sprintf("  • %s: spec=%s, next=%s\n", s.Name, s.Spec, next))
		}
		fails := 0
		for i := len(d.Sched.History) - 1; i >= 0 && fails < 5; i-- {
			h := d.Sched.History[i]
			if h.Err == "" {
				continue
			}
			fails++
			b.WriteString(fmt.Sprintf("  • ⚠️ %s failed %s ago: %s\n", h.Name, durRel(now.Sub(h.At)), h.Err))
		}
	}
	b.WriteString("\n")

	b.WriteString("🧵 Supervisors\n")
	if len(d.Sups) == 0 {
		b.WriteString("  • (none)\n")
	} else {
		names := make([]string, 0, len(d.Sups))
		for n := range d.Sups {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			s := d.Sups[n]
			var panics, restarts uint64
			for _, g := range s.Goroutines {
				panics += g.Panics
				restarts += g.Restarts
			}
			line := fmt.Sprintf("  • %s: active=%d started=%d", n, s.Counters.Active, s.Counters.Started)
			if restarts > 0 {
				line += fmt.Sprintf(" restarts=%d", restarts)
			}
			if panics > 0 {
				line += fmt.Sprintf(" panics=%d", panics)
			}
			if s.FirstError != "" {
				line += " err=" + s.FirstError
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("🔌 Plugins\n")
	if loaded == 0 {
		b.WriteString("  • (none)\n")
	} else {
		for _, st := range d.Plugins.Plugins {
			b.WriteString("  • " + pluginLine(st) + "\n")
		}
	}

	return b.String()
}

func pluginLine(st core.PluginStatus) string {
	icon := "✅"
	switch {
	case st.Quarantined:
		icon = "🧯"
	case !st.Enabled:
		icon = "⛔"
	case !st.Running:
		icon = "🟨"
	}

	h := "-"
	if st.HasHealthChecker {
		switch {
		case st.LastHealth.At.IsZero():
			h = "no data"
		case st.LastHealth.Err != "":
			if st.Enabled && st.Running && !st.Quarantined {
				icon = "⚠️"
			}
			h = fmt.Sprintf("fail (%s ago): %s", durRel(time.Since(st.LastHealth.At)), st.LastHealth.Err)
		default:
			status := st.LastHealth.Status
			if status == "" {
				status = "ok"
			}
			h = fmt.Sprintf("%s (%s ago)", status, durRel(time.Since(st.LastHealth.At)))
		}
	}

	out := fmt.Sprintf("%s %s — %s", icon, st.Name, h)
	if st.Quarantined && st.QuarantineErr != "" {
		out += " | quarantined: " + st.QuarantineErr
	}
	return out
}

func renderHealth(results []core.PluginHealthResult) string {
	if len(results) == 0 {
		return "no plugins implement health checks"
	}

	var b strings.Builder
	b.WriteString("🩺 Health Check\n")
	for _, r := range results {
		if r.Err != "" {
			b.WriteString("  • ⚠️ " + r.Plugin + ": " + r.Err + "\n")
			continue
		}
		status := r.Status
		if status == "" {
			status = "ok"
		}
		b.WriteString("  • ✅ " + r.Plugin + ": " + status + "\n")
	}
	return b.String()
}
