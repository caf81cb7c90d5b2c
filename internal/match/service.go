package match

import (
	"sync"
	"time"

	"chessbot/internal/schedule"
	kit "chessbot/internal/transport"
	"chessbot/pkg/logx"
)

// Service is the single-writer gate in front of the registry. Handlers run
// concurrently, so every check-then-mutate sequence happens under one mutex
// and callers get back detached copies.
type Service struct {
	log logx.Logger

	mu  sync.Mutex
	reg *registry

	// now is swappable for tests.
	now func() time.Time
}

func NewService(log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log: log,
		reg: newRegistry(),
		now: time.Now,
	}
}

// Propose extracts a game time from text, validates it against the weekly
// windows, and registers a Proposed engagement for initiator.
func (s *Service) Propose(initiator int64, text string) (Engagement, error) {
	now := s.now()
	at := schedule.Extract(text, now)
	if !schedule.IsEligible(at) {
		return Engagement{}, ErrInvalidTimeWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reg.hasActive(initiator) {
		return Engagement{}, ErrDuplicateEngagement
	}
	e := &Engagement{
		ID:          newID(),
		Initiator:   initiator,
		State:       StateProposed,
		ScheduledAt: at,
		CreatedAt:   now,
	}
	if err := s.reg.insert(e); err != nil {
		return Engagement{}, err
	}
	s.log.Info("game proposed",
		logx.String("id", e.ID),
		logx.Int64("initiator", initiator),
		logx.Time("at", at),
	)
	return *e, nil
}

// Accept transitions a Proposed engagement to Confirmed with responder as
// the second player.
func (s *Service) Accept(id string, responder int64) (Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.reg.get(id)
	if !ok {
		return Engagement{}, ErrNotFound
	}
	if e.Initiator == responder {
		return Engagement{}, ErrSelfAcceptance
	}
	if e.State == StateConfirmed {
		return Engagement{}, ErrAlreadyConfirmed
	}
	if s.reg.hasActive(responder) {
		return Engagement{}, ErrDuplicateEngagement
	}

	e.Responder = responder
	e.State = StateConfirmed
	s.log.Info("game confirmed",
		logx.String("id", e.ID),
		logx.Int64("initiator", e.Initiator),
		logx.Int64("responder", responder),
	)
	return *e, nil
}

// Cancel removes the engagement regardless of state. Only a participant
// may cancel. The removed snapshot is returned for notification rendering.
func (s *Service) Cancel(id string, actor int64) (Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id, actor)
}

// CancelFor cancels the live engagement actor is part of, if any.
func (s *Service) CancelFor(actor int64) (Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.reg.findByPlayer(actor)
	if e == nil {
		return Engagement{}, ErrNotFound
	}
	return s.cancelLocked(e.ID, actor)
}

func (s *Service) cancelLocked(id string, actor int64) (Engagement, error) {
	e, ok := s.reg.get(id)
	if !ok {
		return Engagement{}, ErrNotFound
	}
	if !e.Involves(actor) {
		return Engagement{}, ErrUnauthorized
	}
	s.reg.remove(id)
	s.log.Info("game cancelled",
		logx.String("id", e.ID),
		logx.Int64("actor", actor),
		logx.String("state", e.State.String()),
	)
	return *e, nil
}

// Complete retires the confirmed engagement between reporter and opponent
// once its result has been recorded. Proposed engagements and pairs that
// don't match the live entry report ErrNotFound.
func (s *Service) Complete(reporter, opponent int64) (Engagement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.reg.findByPlayer(reporter)
	if e == nil || e.State != StateConfirmed {
		return Engagement{}, ErrNotFound
	}
	pair := (e.Initiator == reporter && e.Responder == opponent) ||
		(e.Initiator == opponent && e.Responder == reporter)
	if !pair {
		return Engagement{}, ErrNotFound
	}
	s.reg.remove(e.ID)
	s.log.Info("game completed",
		logx.String("id", e.ID),
		logx.Int64("reporter", reporter),
		logx.Int64("opponent", opponent),
	)
	return *e, nil
}

// SetOrigin records where the proposal card was surfaced. No-op when the
// engagement has since been removed.
func (s *Service) SetOrigin(id string, ref kit.MessageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.reg.get(id); ok {
		e.Origin = ref
	}
}

// Get returns a detached copy.
func (s *Service) Get(id string) (Engagement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.reg.get(id)
	if !ok {
		return Engagement{}, false
	}
	return *e, true
}

// Active returns the live engagement the player is part of, if any.
func (s *Service) Active(player int64) (Engagement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.reg.findByPlayer(player)
	if e == nil {
		return Engagement{}, false
	}
	return *e, true
}

// SweepStale removes Proposed engagements older than ttl and returns the
// removed snapshots. Confirmed games are never swept; the state machine
// itself has no timeouts, expiry is this external hook.
func (s *Service) SweepStale(ttl time.Duration) []Engagement {
	if ttl <= 0 {
		return nil
	}
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []Engagement
	for _, e := range s.reg.all() {
		if e.State == StateProposed && e.CreatedAt.Before(cutoff) {
			s.reg.remove(e.ID)
			removed = append(removed, *e)
		}
	}
	if len(removed) > 0 {
		s.log.Info("stale proposals swept", logx.Int("count", len(removed)))
	}
	return removed
}
