package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"chessbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend: one JSON document
// holding every rating, rewritten atomically (tmp + rename) on save.
// The dataset is two players per game and one int per player; rewriting
// the whole file is cheaper than being clever.
type fileStore struct {
	log  logx.Logger
	path string

	mu sync.Mutex
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) LoadRatings(ctx context.Context) (map[int64]int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[int64]int{}, nil
	}
	if err != nil {
		return nil, err
	}

	// JSON object keys are strings; ids are stored as decimal strings.
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			s.log.Warn("skipping malformed rating key", logx.String("key", k))
			continue
		}
		out[id] = v
	}
	return out, nil
}

func (s *fileStore) SaveRatings(ctx context.Context, ratings map[int64]int) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := make(map[string]int, len(ratings))
	for id, r := range ratings {
		raw[strconv.FormatInt(id, 10)] = r
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
