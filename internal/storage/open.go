package storage

import (
	"context"
	"errors"
	"strings"

	"chessbot/pkg/logx"
)

// Store is the persistence API used by the rating engine. Ratings are a
// small whole-dataset document; load-all/save-all keeps every driver
// trivially consistent under the rating service's single writer.
type Store interface {
	LoadRatings(ctx context.Context) (map[int64]int, error)
	SaveRatings(ctx context.Context, ratings map[int64]int) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
