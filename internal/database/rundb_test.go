package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/cardhash/internal/encoder"
	"github.com/nao1215/cardhash/internal/model"
)

var _ encoder.Cache = (*RunDB)(nil)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *RunDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// newFinishedRun builds a done run for dir started at start.
func newFinishedRun(id, dir string, start time.Time, cards int) *model.Run {
	run := model.NewRun(id, dir)
	run.StartedAt = start
	for i := range cards {
		run.Paths = append(run.Paths, filepath.Join(dir, "f.png"))
		run.Cards = append(run.Cards, model.NewCard(i, "f.png", "HASH"))
	}
	run.ManifestPath = filepath.Join(dir, "cards.json")
	run.Finish()
	run.FinishedAt = start.Add(2 * time.Second)
	return run
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if err := db.StoreHash(context.Background(), "d", 4, 3, "H"); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer db.Close()

		hash, ok, err := db.LookupHash(context.Background(), "d", 4, 3)
		if err != nil || !ok || hash != "H" {
			t.Errorf("expected persisted hash, got %q %v %v", hash, ok, err)
		}
	})
}

// TestDefaultOptions tests default option values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("unexpected defaults %+v", opts)
	}
}

// TestSaveAndGetRun tests run persistence.
func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := newFinishedRun("run-1", dir, start, 2)
	run.CacheHits = 1
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := db.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run, got nil")
	}

	want := RunRecord{
		RunID:        "run-1",
		Directory:    dir,
		StartedAt:    start,
		FinishedAt:   start.Add(2 * time.Second),
		Total:        2,
		Succeeded:    2,
		Failed:       0,
		CacheHits:    1,
		State:        model.StateDone,
		ManifestPath: filepath.Join(dir, "cards.json"),
		Failures:     []model.Failure{},
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
	if got.Duration() != 2*time.Second {
		t.Errorf("unexpected duration %v", got.Duration())
	}
}

// TestSaveRun_Upsert tests that saving a run twice updates it in place.
func TestSaveRun_Upsert(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	run := model.NewRun("run-1", dir)
	run.State = model.StateProcessing
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	run.Paths = []string{filepath.Join(dir, "bad.jpg")}
	run.Failures = append(run.Failures, model.Failure{
		Index: 0, Filename: "bad.jpg", Stage: model.StageDecode, Message: "decode error",
	})
	run.Fail(errors.New("decode error"))
	if err := db.SaveRun(ctx, run); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(ctx, dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.State != model.StateFailed || got.Error != "decode error" || got.Failed != 1 {
		t.Errorf("unexpected record %+v", got)
	}
	if diff := cmp.Diff(run.Failures, got.Failures); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
}

// TestGetRun_NotFound tests lookup of an unknown run.
func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	got, err := db.GetRun(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

// TestListRuns tests filtering, ordering and limits.
func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	dirA := t.TempDir()
	dirB := t.TempDir()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, r := range []*model.Run{
		newFinishedRun("a1", dirA, base, 1),
		newFinishedRun("a2", dirA, base.Add(time.Hour), 1),
		newFinishedRun("b1", dirB, base.Add(30*time.Minute), 1),
	} {
		if err := db.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun %d failed: %v", i, err)
		}
	}

	ids := func(recs []RunRecord) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.RunID
		}
		return out
	}

	tests := []struct {
		name  string
		dir   string
		limit int
		want  []string
	}{
		{name: "single directory newest first", dir: dirA, want: []string{"a2", "a1"}},
		{name: "all directories", dir: "", want: []string{"a2", "b1", "a1"}},
		{name: "limit", dir: "", limit: 1, want: []string{"a2"}},
		{name: "unknown directory", dir: filepath.Join(dirA, "nope"), want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := db.ListRuns(ctx, tt.dir, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestListDirectories tests per-directory summaries.
func TestListDirectories(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := db.SaveRun(ctx, newFinishedRun("r1", dir, base, 1)); err != nil {
		t.Fatal(err)
	}
	failed := model.NewRun("r2", dir)
	failed.StartedAt = base.Add(time.Hour)
	failed.Fail(errors.New("boom"))
	if err := db.SaveRun(ctx, failed); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListDirectories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []DirectorySummary{{
		Directory: dir,
		Runs:      2,
		LastRun:   base.Add(time.Hour),
		LastState: model.StateFailed,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

// TestHashCache tests the content-addressed hash cache.
func TestHashCache(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if _, ok, err := db.LookupHash(ctx, "abc", 4, 3); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := db.StoreHash(ctx, "abc", 4, 3, "H1"); err != nil {
		t.Fatal(err)
	}
	if err := db.StoreHash(ctx, "abc", 4, 3, "H2"); err != nil {
		t.Fatalf("expected upsert, got %v", err)
	}

	hash, ok, err := db.LookupHash(ctx, "abc", 4, 3)
	if err != nil || !ok || hash != "H2" {
		t.Errorf("expected H2, got %q ok=%v err=%v", hash, ok, err)
	}
	if _, ok, _ := db.LookupHash(ctx, "abc", 3, 4); ok {
		t.Error("component counts must be part of the key")
	}

	n, err := db.CountHashes(ctx)
	if err != nil || n != 1 {
		t.Errorf("expected 1 entry, got %d err=%v", n, err)
	}
}

// TestHashCache_Concurrent tests concurrent cache access from workers.
func TestHashCache_Concurrent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			digest := string(rune('a' + i))
			if err := db.StoreHash(ctx, digest, 4, 3, "H"); err != nil {
				errs <- err
				return
			}
			if _, _, err := db.LookupHash(ctx, digest, 4, 3); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent access failed: %v", err)
	}
}

// TestPruneHashes tests removal of old cache entries.
func TestPruneHashes(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.StoreHash(ctx, "old", 4, 3, "H"); err != nil {
		t.Fatal(err)
	}
	n, err := db.PruneHashes(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	if count, _ := db.CountHashes(ctx); count != 0 {
		t.Errorf("expected empty cache, got %d", count)
	}
}

// TestPruneHashes_KeepsRecentlyUsed tests that a cache hit postpones pruning.
func TestPruneHashes_KeepsRecentlyUsed(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	for _, digest := range []string{"used", "idle"} {
		if err := db.StoreHash(ctx, digest, 4, 3, "H-"+digest); err != nil {
			t.Fatal(err)
		}
	}
	old := formatTimestamp(time.Now().Add(-48 * time.Hour))
	if _, err := db.db.ExecContext(ctx, `UPDATE hashes SET used_at = ?`, old); err != nil {
		t.Fatal(err)
	}

	hash, ok, err := db.LookupHash(ctx, "used", 4, 3)
	if err != nil || !ok || hash != "H-used" {
		t.Fatalf("LookupHash() = %q, %v, %v", hash, ok, err)
	}

	n, err := db.PruneHashes(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	if _, ok, _ := db.LookupHash(ctx, "used", 4, 3); !ok {
		t.Error("recently used entry was pruned")
	}
	if _, ok, _ := db.LookupHash(ctx, "idle", 4, 3); ok {
		t.Error("idle entry survived pruning")
	}
}

// TestParseTimestamp tests tolerant timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"stored format", formatTimestamp(want), want},
		{"sqlite default", "2026-03-01 10:00:00", want},
		{"rfc3339", "2026-03-01T10:00:00Z", want},
		{"garbage", "yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
