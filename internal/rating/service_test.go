package rating

import (
	"context"
	"errors"
	"testing"

	"chessbot/pkg/logx"
)

type memStore struct {
	saved   map[int64]int
	initial map[int64]int
	saveErr error
}

func (m *memStore) LoadRatings(ctx context.Context) (map[int64]int, error) {
	out := map[int64]int{}
	for id, r := range m.initial {
		out[id] = r
	}
	return out, nil
}

func (m *memStore) SaveRatings(ctx context.Context, ratings map[int64]int) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = ratings
	return nil
}

func (m *memStore) Close() error { return nil }

func TestRecord(t *testing.T) {
	t.Parallel()
	st := &memStore{}
	s, err := NewService(context.Background(), st, logx.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	res, err := s.Record(context.Background(), 1, 2, OutcomeWin)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Reporter.Before != 1500 || res.Reporter.After != 1516 {
		t.Fatalf("reporter delta = %+v, want 1500 -> 1516", res.Reporter)
	}
	if res.Opponent.Before != 1500 || res.Opponent.After != 1484 {
		t.Fatalf("opponent delta = %+v, want 1500 -> 1484", res.Opponent)
	}
	if s.Rating(1) != 1516 || s.Rating(2) != 1484 {
		t.Fatalf("ratings after record = %d/%d", s.Rating(1), s.Rating(2))
	}
	if st.saved == nil || st.saved[1] != 1516 || st.saved[2] != 1484 {
		t.Fatalf("persisted %v, want both new ratings", st.saved)
	}
}

func TestRecordSelfReport(t *testing.T) {
	t.Parallel()
	s, err := NewService(context.Background(), nil, logx.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := s.Record(context.Background(), 7, 7, OutcomeWin); !errors.Is(err, ErrSelfReport) {
		t.Fatalf("err = %v, want ErrSelfReport", err)
	}
}

func TestRecordReloadsStore(t *testing.T) {
	t.Parallel()
	st := &memStore{initial: map[int64]int{3: 1600}}
	s, err := NewService(context.Background(), st, logx.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	// Edit the store behind the service's back; the next record must pick
	// the change up instead of clobbering it with the startup snapshot.
	st.initial[1] = 1600
	st.initial[4] = 1700

	res, err := s.Record(context.Background(), 1, 2, OutcomeWin)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if res.Reporter.Before != 1600 {
		t.Fatalf("reporter started at %d, want the edited 1600", res.Reporter.Before)
	}
	if st.saved[3] != 1600 || st.saved[4] != 1700 {
		t.Fatalf("external entries clobbered: saved = %v", st.saved)
	}
	if got := s.Rating(4); got != 1700 {
		t.Fatalf("Rating(4) = %d, want 1700 after reload", got)
	}
}

func TestRecordSaveFailureRollsBack(t *testing.T) {
	t.Parallel()
	st := &memStore{saveErr: errors.New("disk full")}
	s, err := NewService(context.Background(), st, logx.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := s.Record(context.Background(), 1, 2, OutcomeWin); err == nil {
		t.Fatal("Record must surface the save error")
	}
	if s.Rating(1) != 1500 || s.Rating(2) != 1500 {
		t.Fatalf("failed save mutated memory: %d/%d", s.Rating(1), s.Rating(2))
	}
}

func TestRatingDefault(t *testing.T) {
	t.Parallel()
	st := &memStore{initial: map[int64]int{5: 1700}}
	s, err := NewService(context.Background(), st, logx.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if got := s.Rating(5); got != 1700 {
		t.Fatalf("Rating(5) = %d, want 1700", got)
	}
	if got := s.Rating(999); got != DefaultRating {
		t.Fatalf("Rating(unknown) = %d, want %d", got, DefaultRating)
	}
	// Reading must not create an entry.
	if rows := s.Leaderboard(0); len(rows) != 1 {
		t.Fatalf("leaderboard has %d rows, want 1", len(rows))
	}
}

func TestLeaderboard(t *testing.T) {
	t.Parallel()
	st := &memStore{initial: map[int64]int{}}
	for i := int64(1); i <= 12; i++ {
		st.initial[i] = 1400 + int(i)*10
	}
	// Tie pair: higher id must sort after lower id.
	st.initial[100] = 1520
	st.initial[99] = 1520

	s, err := NewService(context.Background(), st, logx.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	rows := s.Leaderboard(10)
	if len(rows) != 10 {
		t.Fatalf("got %d rows, want 10", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if cur.Rating > prev.Rating {
			t.Fatalf("rows out of order at %d: %+v before %+v", i, prev, cur)
		}
		if cur.Rating == prev.Rating && cur.ID < prev.ID {
			t.Fatalf("tie broken wrong way at %d: %+v before %+v", i, prev, cur)
		}
	}
	if rows[0].ID != 12 || rows[0].Rating != 1520 {
		t.Fatalf("top row = %+v, want id 12 at 1520", rows[0])
	}
}
