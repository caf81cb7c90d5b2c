package rating

import (
	"context"
	"sort"
	"sync"

	"chessbot/internal/storage"
	"chessbot/pkg/logx"
)

// Service owns the rating table. One mutex serializes every
// read-modify-write so concurrent reports never interleave, and the whole
// dataset is persisted before a mutation becomes visible.
type Service struct {
	log   logx.Logger
	store storage.Store // nil means memory only

	mu      sync.Mutex
	ratings map[int64]int
}

// Delta is one player's rating change from a recorded game.
type Delta struct {
	ID     int64
	Before int
	After  int
}

// Result is the outcome of Record for both sides.
type Result struct {
	Reporter Delta
	Opponent Delta
}

// Entry is one leaderboard row.
type Entry struct {
	ID     int64
	Rating int
}

// NewService loads the persisted ratings. A nil store starts empty and
// keeps ratings for the process lifetime only.
func NewService(ctx context.Context, store storage.Store, log logx.Logger) (*Service, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:     log,
		store:   store,
		ratings: map[int64]int{},
	}
	if store != nil {
		loaded, err := store.LoadRatings(ctx)
		if err != nil {
			return nil, err
		}
		s.ratings = loaded
		log.Info("ratings loaded", logx.Int("players", len(loaded)))
	}
	return s, nil
}

// Rating returns the player's current rating. Unknown players read as
// DefaultRating without creating an entry.
func (s *Service) Rating(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratingLocked(id)
}

func (s *Service) ratingLocked(id int64) int {
	return ratingFrom(s.ratings, id)
}

func ratingFrom(table map[int64]int, id int64) int {
	if r, ok := table[id]; ok {
		return r
	}
	return DefaultRating
}

// Record applies one game result between reporter and opponent. The full
// table is re-read from the store, both new ratings are derived from the
// pre-game pair, and the whole mutated table is saved back before it
// becomes visible; a failed load or save leaves the table untouched.
// The reload keeps out-of-band edits to the store from being clobbered.
func (s *Service) Record(ctx context.Context, reporter, opponent int64, outcome Outcome) (Result, error) {
	if reporter == opponent {
		return Result{}, ErrSelfReport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.ratings
	if s.store != nil {
		loaded, err := s.store.LoadRatings(ctx)
		if err != nil {
			return Result{}, err
		}
		table = loaded
	}

	oldR := ratingFrom(table, reporter)
	oldO := ratingFrom(table, opponent)
	newR, newO := Update(oldR, oldO, outcome.score())

	if s.store != nil {
		next := make(map[int64]int, len(table)+2)
		for id, r := range table {
			next[id] = r
		}
		next[reporter] = newR
		next[opponent] = newO
		if err := s.store.SaveRatings(ctx, next); err != nil {
			return Result{}, err
		}
		s.ratings = next
	}
	s.ratings[reporter] = newR
	s.ratings[opponent] = newO

	s.log.Info("game recorded",
		logx.Int64("reporter", reporter),
		logx.Int64("opponent", opponent),
		logx.String("outcome", outcome.String()),
		logx.Int("reporter_rating", newR),
		logx.Int("opponent_rating", newO),
	)
	return Result{
		Reporter: Delta{ID: reporter, Before: oldR, After: newR},
		Opponent: Delta{ID: opponent, Before: oldO, After: newO},
	}, nil
}

// Leaderboard returns up to n players ordered by rating descending, ties
// broken by ascending player id for a stable listing.
func (s *Service) Leaderboard(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.ratings))
	for id, r := range s.ratings {
		out = append(out, Entry{ID: id, Rating: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
