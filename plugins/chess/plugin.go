package chess

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chessbot/internal/match"
	core "chessbot/internal/plugin"
	"chessbot/internal/rating"
	logx "chessbot/pkg/logx"
)

// Config is the per-plugin config blob.
//
// Durations are Go duration strings; sweep_spec accepts a cron expression
// or an interval ("10m", "00:30").
type Config struct {
	ProposalTTL  string `json:"proposal_ttl"`
	SweepSpec    string `json:"sweep_spec"`
	ReminderLead string `json:"reminder_lead"`
}

type settings struct {
	proposalTTL  time.Duration
	sweepSpec    string
	reminderLead time.Duration
}

func defaults() settings {
	return settings{
		proposalTTL:  24 * time.Hour,
		sweepSpec:    "*/10 * * * *",
		reminderLead: 30 * time.Minute,
	}
}

type Plugin struct {
	core.PluginBase

	mu  sync.RWMutex
	cfg settings

	matches *match.Service
	ratings *rating.Service
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string { return "chess" }

func (p *Plugin) Init(ctx context.Context, deps core.PluginDeps) error {
	p.InitBase(deps, p.Name())

	p.mu.Lock()
	p.cfg = defaults()
	p.mu.Unlock()

	p.matches = match.NewService(p.Log.With(logx.String("svc", "match")))

	rs, err := rating.NewService(ctx, deps.Store, p.Log.With(logx.String("svc", "rating")))
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	p.ratings = rs
	return nil
}

func (p *Plugin) Start(ctx context.Context) error {
	p.StartBase(ctx)
	p.registerSweep()
	return nil
}

func (p *Plugin) Stop(ctx context.Context) error {
	p.RemoveSchedule("sweep")
	return p.StopBase(ctx)
}

func (p *Plugin) ValidateConfig(ctx context.Context, raw json.RawMessage) error {
	_, err := parseConfig(raw)
	return err
}

func (p *Plugin) OnConfigChange(ctx context.Context, raw json.RawMessage) error {
	s, err := parseConfig(raw)
	if err != nil {
		return err
	}
	p.mu.Lock()
	changed := s.sweepSpec != p.cfg.sweepSpec
	p.cfg = s
	p.mu.Unlock()
	if changed {
		p.registerSweep()
	}
	return nil
}

func parseConfig(raw json.RawMessage) (settings, error) {
	s := defaults()
	if len(raw) == 0 {
		return s, nil
	}
	c, err := core.DecodePluginConfig[Config](raw)
	if err != nil {
		return s, err
	}
	if c.ProposalTTL != "" {
		d, err := time.ParseDuration(c.ProposalTTL)
		if err != nil || d <= 0 {
			return s, fmt.Errorf("proposal_ttl: invalid %q", c.ProposalTTL)
		}
		s.proposalTTL = d
	}
	if c.SweepSpec != "" {
		if _, err := core.ParseSchedule(c.SweepSpec); err != nil {
			return s, fmt.Errorf("sweep_spec: %w", err)
		}
		s.sweepSpec = c.SweepSpec
	}
	if c.ReminderLead != "" {
		d, err := time.ParseDuration(c.ReminderLead)
		if err != nil || d < 0 {
			return s, fmt.Errorf("reminder_lead: invalid %q", c.ReminderLead)
		}
		s.reminderLead = d
	}
	return s, nil
}

func (p *Plugin) cfgSnapshot() settings {
	p.mu.RLock()
	s := p.cfg
	p.mu.RUnlock()
	return s
}

// registerSweep (re-)adds the stale-proposal sweep. AddSchedule upserts by
// name, so calling it again after a config change just replaces the spec.
func (p *Plugin) registerSweep() {
	s := p.cfgSnapshot()
	if p.Deps.Services == nil || p.Deps.Services.Scheduler == nil {
		return
	}
	_, err := p.Deps.Services.Scheduler.AddSchedule(p.Name()+":sweep", s.sweepSpec, 30*time.Second, p.sweepJob)
	if err != nil {
		p.Log.Warn("sweep schedule rejected", logx.String("spec", s.sweepSpec), logx.Any("err", err))
	}
}

// sweepJob expires stale proposals and tells their initiators.
func (p *Plugin) sweepJob(ctx context.Context) error {
	s := p.cfgSnapshot()
	removed := p.matches.SweepStale(s.proposalTTL)
	for _, e := range removed {
		p.PublishEvent("chess.proposal_expired", map[string]any{"id": e.ID, "initiator": e.Initiator})
		if e.Origin.ChatID != 0 {
			_ = p.Info(e.Origin.ChatID, expiredText(e))
		}
	}
	return nil
}

// scheduleReminder arms a one-shot reminder for a confirmed game. The
// scheduler overwrites by name, so re-confirming the same id is safe.
func (p *Plugin) scheduleReminder(e match.Engagement) {
	s := p.cfgSnapshot()
	if s.reminderLead <= 0 {
		return
	}
	at := e.ScheduledAt.Add(-s.reminderLead)
	if !at.After(time.Now()) {
		return
	}
	id := e.ID
	_, err := p.Once("remind:"+id, at, 10*time.Second, func(ctx context.Context) error {
		cur, ok := p.matches.Get(id)
		if !ok || cur.State != match.StateConfirmed {
			return nil
		}
		if cur.Origin.ChatID != 0 {
			_ = p.Info(cur.Origin.ChatID, reminderText(cur, s.reminderLead))
		}
		return nil
	})
	if err != nil {
		p.Log.Warn("reminder schedule failed", logx.String("id", id), logx.Any("err", err))
	}
}

func (p *Plugin) dropReminder(id string) {
	p.RemoveSchedule("remind:" + id)
}
