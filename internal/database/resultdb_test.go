package database

import (
	"context"
	"testing"
	"time"

	"github.com/picdup/picdup/internal/model"
)

// testResult builds a small run result for storage tests.
func testResult(directory string) *model.RunResult {
	stats := model.NewRunStatistics(10)
	groups := []model.DuplicateGroup{
		{
			Reasons: []model.Reason{model.ReasonExactMatch},
			Members: []model.Member{
				{Path: directory + "/a.jpg"},
				{Path: directory + "/b.jpg"},
			},
		},
		{
			Reasons: []model.Reason{model.ReasonDifferenceHash, model.ReasonAverageHash},
			Members: []model.Member{
				{Path: directory + "/c.jpg"},
				{Path: directory + "/d.jpg", DifferenceDistance: 4, AverageDistance: 1},
			},
		},
	}
	for i := range groups {
		stats.AddGroup(&groups[i])
	}
	stats.Finish()

	return &model.RunResult{
		Directory: directory,
		ScannedAt: time.Now().UTC(),
		Groups:    groups,
		Stats:     stats,
	}
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database file", func(t *testing.T) {
		t.Parallel()

		rdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rdb.Close()
	})

	t.Run("refuses missing database without create option", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})
}

// TestSaveAndLoadRun tests the round trip through storage.
func TestSaveAndLoadRun(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	result := testResult("/photos")

	id, err := rdb.SaveRun(ctx, result)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive run id, got %d", id)
	}

	loaded, err := rdb.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected stored run")
	}
	if loaded.Directory != "/photos" || len(loaded.Groups) != 2 {
		t.Errorf("unexpected run: %+v", loaded)
	}
	if loaded.Stats.DuplicateGroups != 2 || loaded.Stats.DuplicateImages != 2 {
		t.Errorf("unexpected stats: %+v", loaded.Stats)
	}

	t.Run("unknown id returns nil", func(t *testing.T) {
		got, err := rdb.GetRun(ctx, 999999)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for unknown id, got %+v", got)
		}
	})
}

// TestRecentRuns tests history listing order and limits.
func TestRecentRuns(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	for _, dir := range []string{"/first", "/second", "/third"} {
		if _, err := rdb.SaveRun(ctx, testResult(dir)); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	runs, err := rdb.RecentRuns(ctx, 0)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	// Newest first; all three share a scan second in the worst case, so
	// the id tiebreaker keeps insertion order inverted.
	if runs[0].Directory != "/third" || runs[2].Directory != "/first" {
		t.Errorf("unexpected order: %+v", runs)
	}

	limited, err := rdb.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs with limit, got %d", len(limited))
	}
}

// TestPathHistory tests cross-run path lookups.
func TestPathHistory(t *testing.T) {
	t.Parallel()

	rdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rdb.Close()

	ctx := context.Background()
	if _, err := rdb.SaveRun(ctx, testResult("/photos")); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if _, err := rdb.SaveRun(ctx, testResult("/photos")); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	hits, err := rdb.PathHistory(ctx, "/photos/a.jpg")
	if err != nil {
		t.Fatalf("PathHistory failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 sightings, got %d", len(hits))
	}
	if hits[0].Label != "exact match" {
		t.Errorf("unexpected label: %q", hits[0].Label)
	}

	none, err := rdb.PathHistory(ctx, "/photos/unknown.jpg")
	if err != nil {
		t.Fatalf("PathHistory failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no sightings, got %+v", none)
	}
}

// TestParseTimestamp tests the SQLite timestamp format fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"2026-08-20 12:30:00",
		"2026-08-20T12:30:00Z",
		time.Now().UTC().Format(time.RFC3339),
	} {
		if parseTimestamp(s).IsZero() {
			t.Errorf("failed to parse %q", s)
		}
	}
	if !parseTimestamp("not a time").IsZero() {
		t.Error("expected zero time for garbage input")
	}
}
