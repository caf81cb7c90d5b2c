package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"chessbot/pkg/logx"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ratings.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	got, err := st.LoadRatings(ctx)
	if err != nil {
		t.Fatalf("LoadRatings on fresh store: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("fresh store returned %d entries", len(got))
	}

	want := map[int64]int{101: 1516, 202: 1484, 303: 1500}
	if err := st.SaveRatings(ctx, want); err != nil {
		t.Fatalf("SaveRatings: %v", err)
	}

	got, err = st.LoadRatings(ctx)
	if err != nil {
		t.Fatalf("LoadRatings: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(want))
	}
	for id, r := range want {
		if got[id] != r {
			t.Fatalf("rating[%d] = %d, want %d", id, got[id], r)
		}
	}

	// Save must not leave the tmp file behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}
}

func TestFileStoreSkipsMalformedKeys(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "ratings.json")
	if err := os.WriteFile(path, []byte(`{"101": 1600, "bogus": 1200}`), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	got, err := st.LoadRatings(context.Background())
	if err != nil {
		t.Fatalf("LoadRatings: %v", err)
	}
	if len(got) != 1 || got[101] != 1600 {
		t.Fatalf("got %v, want only 101:1600", got)
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "bolt"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver must error")
	}
}
