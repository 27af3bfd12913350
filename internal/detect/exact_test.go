package detect

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestDetectErrorBudget tests the fingerprint stage's failure budget:
// more than one unreadable file in ten aborts, anything less is skipped.
func TestDetectErrorBudget(t *testing.T) {
	t.Parallel()

	buildSource := func(t *testing.T, total, missing int) (*memorySource, []string) {
		t.Helper()
		src := newMemorySource()
		paths := make([]string, 0, total)
		for i := 0; i < total; i++ {
			path := fmt.Sprintf("img-%03d.png", i)
			if i >= total-missing {
				// Registered nowhere: Raw fails for these.
				paths = append(paths, path)
				continue
			}
			src.add(t, path, noiseImage(12, 12, uint64(i+1)))
			paths = append(paths, path)
		}
		return src, paths
	}

	t.Run("15 of 100 failures aborts the run", func(t *testing.T) {
		t.Parallel()

		src, paths := buildSource(t, 100, 15)
		d := newTestDetector(DefaultConfig(), src)
		_, stats, err := d.Detect(context.Background(), paths)

		var unstable *ProviderUnstableError
		if !errors.As(err, &unstable) {
			t.Fatalf("expected ProviderUnstableError, got %v", err)
		}
		if unstable.Stage != StageExactMatch {
			t.Errorf("Stage = %q, want %q", unstable.Stage, StageExactMatch)
		}
		if unstable.Failed != 15 || unstable.Total != 100 || unstable.Processed != 85 {
			t.Errorf("unexpected budget report: %+v", unstable)
		}
		if len(stats.CompletedStages) != 0 {
			t.Errorf("no stage should have completed, got %v", stats.CompletedStages)
		}
	})

	t.Run("5 of 100 failures is within budget", func(t *testing.T) {
		t.Parallel()

		src, paths := buildSource(t, 100, 5)
		d := newTestDetector(DefaultConfig(), src)
		_, stats, err := d.Detect(context.Background(), paths)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.SkippedFiles != 5 {
			t.Errorf("SkippedFiles = %d, want 5", stats.SkippedFiles)
		}
	})

	t.Run("small batches never abort", func(t *testing.T) {
		t.Parallel()

		src, paths := buildSource(t, 5, 2)
		d := newTestDetector(DefaultConfig(), src)
		_, stats, err := d.Detect(context.Background(), paths)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.SkippedFiles != 2 {
			t.Errorf("SkippedFiles = %d, want 2", stats.SkippedFiles)
		}
	})
}

// TestDetectSkipsUndecodableImages tests that files with valid bytes but
// broken image data are dropped once and counted once.
func TestDetectSkipsUndecodableImages(t *testing.T) {
	t.Parallel()

	src := newMemorySource()
	src.add(t, "good.png", gradientImage(64, 64))
	src.addBroken("bad.png")

	d := newTestDetector(DefaultConfig(), src)
	groups, stats, err := d.Detect(context.Background(), []string{"good.png", "bad.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups, got %+v", groups)
	}
	if stats.SkippedFiles != 1 {
		t.Errorf("SkippedFiles = %d, want 1", stats.SkippedFiles)
	}
}
