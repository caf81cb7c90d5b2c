package system

import (
	"context"
	"fmt"
	"time"

	core "chessbot/internal/plugin"
)

// Plugin exposes operational commands: process uptime plus an owner-only
// status surface over the plugin manager, the scheduler and the
// subsystem supervisors.
type Plugin struct {
	core.PluginBase
	startedAt time.Time
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string { return "system" }

func (p *Plugin) Init(ctx context.Context, deps core.PluginDeps) error {
	p.InitBase(deps, p.Name())
	if p.startedAt.IsZero() {
		p.startedAt = time.Now()
	}
	return nil
}

func (p *Plugin) Start(ctx context.Context) error {
	p.StartBase(ctx)
	if p.startedAt.IsZero() {
		p.startedAt = time.Now()
	}
	return nil
}

func (p *Plugin) Stop(ctx context.Context) error { return p.StopBase(ctx) }

func (p *Plugin) Commands() []core.Command {
	return []core.Command{
		{
			Route:       "uptime",
			Aliases:     []string{"up"},
			Description: "show process uptime",
			Usage:       "/uptime",
			Access:      core.AccessEveryone,
			Handle: func(ctx context.Context, req *core.Request) error {
				_, _ = req.Adapter.SendText(ctx, req.Chat, "uptime: "+durRel(time.Since(p.startedAt)), nil)
				return nil
			},
		},
		{
			Route:       "status",
			Description: "bot runtime status (owner only)",
			Usage:       "/status",
			Access:      core.AccessOwnerOnly,
			Handle:      p.cmdStatus,
		},
		{
			Route:       "status health",
			Aliases:     []string{"status_health"},
			Description: "run plugin health checks (owner only)",
			Usage:       "/status health [plugin...]",
			Access:      core.AccessOwnerOnly,
			Handle:      p.cmdHealth,
		},
	}
}

func durRel(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

func fmtBytes(n uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1fGB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1fMB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1fKB", float64(n)/kb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
