package match

import (
	"errors"
	"testing"
	"time"

	"chessbot/pkg/logx"
)

// Thursday 09:30, well inside the open window.
var thursdayMorning = time.Date(2025, time.June, 5, 9, 30, 0, 0, time.UTC)

func newTestService(now time.Time) *Service {
	s := NewService(logx.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestProposeAndAccept(t *testing.T) {
	t.Parallel()
	s := newTestService(thursdayMorning)

	e, err := s.Propose(1, "chess at 10:00")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if e.State != StateProposed {
		t.Fatalf("state = %v, want proposed", e.State)
	}
	if e.Initiator != 1 || e.Responder != 0 {
		t.Fatalf("participants = %d/%d, want 1/0", e.Initiator, e.Responder)
	}

	got, err := s.Accept(e.ID, 2)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got.State != StateConfirmed || got.Responder != 2 {
		t.Fatalf("after accept: state=%v responder=%d", got.State, got.Responder)
	}
}

func TestProposeOutsideWindow(t *testing.T) {
	t.Parallel()
	tuesday := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	s := newTestService(tuesday)

	if _, err := s.Propose(1, "chess now"); !errors.Is(err, ErrInvalidTimeWindow) {
		t.Fatalf("err = %v, want ErrInvalidTimeWindow", err)
	}
	if _, ok := s.Active(1); ok {
		t.Fatal("rejected proposal must leave no registry entry")
	}
}

func TestProposeDuplicate(t *testing.T) {
	t.Parallel()
	s := newTestService(thursdayMorning)

	if _, err := s.Propose(1, "chess"); err != nil {
		t.Fatalf("first Propose: %v", err)
	}
	if _, err := s.Propose(1, "chess again"); !errors.Is(err, ErrDuplicateEngagement) {
		t.Fatalf("err = %v, want ErrDuplicateEngagement", err)
	}
}

func TestAcceptErrors(t *testing.T) {
	t.Parallel()
	s := newTestService(thursdayMorning)

	e, err := s.Propose(1, "chess")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	if _, err := s.Accept("nope", 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Accept(e.ID, 1); !errors.Is(err, ErrSelfAcceptance) {
		t.Fatalf("self accept: err = %v, want ErrSelfAcceptance", err)
	}

	// 3 proposes their own game, then tries to join 1's.
	if _, err := s.Propose(3, "chess"); err != nil {
		t.Fatalf("Propose(3): %v", err)
	}
	if _, err := s.Accept(e.ID, 3); !errors.Is(err, ErrDuplicateEngagement) {
		t.Fatalf("busy responder: err = %v, want ErrDuplicateEngagement", err)
	}

	if _, err := s.Accept(e.ID, 2); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := s.Accept(e.ID, 4); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("second accept: err = %v, want ErrAlreadyConfirmed", err)
	}
}

func TestCancel(t *testing.T) {
	t.Parallel()
	s := newTestService(thursdayMorning)

	e, err := s.Propose(1, "chess")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	// While only proposed, the named responder is a stranger.
	if _, err := s.Cancel(e.ID, 2); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger cancel: err = %v, want ErrUnauthorized", err)
	}

	if _, err := s.Accept(e.ID, 2); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := s.Cancel(e.ID, 9); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("outsider cancel: err = %v, want ErrUnauthorized", err)
	}

	got, err := s.Cancel(e.ID, 2)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.State != StateConfirmed {
		t.Fatalf("snapshot state = %v, want confirmed", got.State)
	}
	if _, ok := s.Get(e.ID); ok {
		t.Fatal("cancelled game still in registry")
	}

	// Both players can immediately schedule again.
	if _, err := s.Propose(1, "chess"); err != nil {
		t.Fatalf("re-propose after cancel: %v", err)
	}
	if _, err := s.Propose(2, "chess"); err != nil {
		t.Fatalf("re-propose after cancel: %v", err)
	}
}

func TestCancelFor(t *testing.T) {
	t.Parallel()
	s := newTestService(thursdayMorning)

	if _, err := s.CancelFor(1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no game: err = %v, want ErrNotFound", err)
	}

	e, err := s.Propose(1, "chess")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	got, err := s.CancelFor(1)
	if err != nil {
		t.Fatalf("CancelFor: %v", err)
	}
	if got.ID != e.ID {
		t.Fatalf("cancelled %s, want %s", got.ID, e.ID)
	}
}

func TestSweepStale(t *testing.T) {
	t.Parallel()
	s := newTestService(thursdayMorning)

	stale, err := s.Propose(1, "chess")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	confirmed, err := s.Propose(2, "chess")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if _, err := s.Accept(confirmed.ID, 3); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	// Advance the clock past the TTL.
	s.now = func() time.Time { return thursdayMorning.Add(2 * time.Hour) }

	if got := s.SweepStale(0); got != nil {
		t.Fatalf("ttl 0 swept %d entries", len(got))
	}
	removed := s.SweepStale(time.Hour)
	if len(removed) != 1 || removed[0].ID != stale.ID {
		t.Fatalf("swept %v, want just %s", removed, stale.ID)
	}
	if _, ok := s.Get(confirmed.ID); !ok {
		t.Fatal("confirmed game must survive the sweep")
	}
}
