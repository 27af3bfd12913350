package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/picdup/picdup/internal/model"
)

// memorySource serves test images from memory. Paths with no entry fail,
// which stands in for unreadable files.
type memorySource struct {
	raw    map[string][]byte
	images map[string]image.Image
}

func newMemorySource() *memorySource {
	return &memorySource{
		raw:    make(map[string][]byte),
		images: make(map[string]image.Image),
	}
}

// add registers an image under path, with PNG bytes as its raw content.
// Identical pixels therefore produce identical raw bytes.
func (s *memorySource) add(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	s.raw[path] = buf.Bytes()
	s.images[path] = img
}

// addBroken registers raw bytes that cannot be decoded as an image.
func (s *memorySource) addBroken(path string) {
	s.raw[path] = []byte("not an image: " + path)
}

func (s *memorySource) Raw(path string) ([]byte, error) {
	b, ok := s.raw[path]
	if !ok {
		return nil, fmt.Errorf("no raw bytes for %s", path)
	}
	return b, nil
}

func (s *memorySource) Image(path string) (image.Image, error) {
	img, ok := s.images[path]
	if !ok {
		return nil, fmt.Errorf("no image for %s", path)
	}
	return img, nil
}

// gradientImage produces an asymmetric test image dominated by a strong
// horizontal ramp, with a weak vertical component so no axis is uniform.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(min(255, x*3+y/4))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// perturbedGradient is gradientImage with a small block nudged, so the
// encoded bytes differ while perceptual hashes stay put.
func perturbedGradient(w, h int) *image.NRGBA {
	img := gradientImage(w, h)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			c := img.NRGBAAt(x, y)
			c.G = min(255, c.G+2)
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// invertedGradient ramps the opposite way; every hash algorithm sees it
// as far from gradientImage.
func invertedGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(255 - min(255, x*3+y/4))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func noiseImage(w, h int, seed uint64) *image.NRGBA {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(rng.UintN(256))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func newTestDetector(cfg Config, src Source) *Detector {
	return New(cfg,
		WithSource(src),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

// TestDetectExactMatch tests stage one: byte-identical files group by
// fingerprint.
func TestDetectExactMatch(t *testing.T) {
	t.Parallel()

	src := newMemorySource()
	src.add(t, "a.png", gradientImage(64, 64))
	src.add(t, "b.png", gradientImage(64, 64))
	src.add(t, "c.png", invertedGradient(64, 64))

	d := newTestDetector(DefaultConfig(), src)
	groups, stats, err := d.Detect(context.Background(), []string{"a.png", "b.png", "c.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d: %+v", len(groups), groups)
	}
	g := groups[0]
	if !g.HasReason(model.ReasonExactMatch) {
		t.Errorf("expected exact match reason, got %v", g.Reasons)
	}
	if !slices.Equal(g.Paths(), []string{"a.png", "b.png"}) {
		t.Errorf("unexpected members: %v", g.Paths())
	}
	if stats.DuplicateGroups != 1 || stats.DuplicateImages != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	want := []string{StageExactMatch, StagePureColor, StagePerceptual}
	if !slices.Equal(stats.CompletedStages, want) {
		t.Errorf("completed stages = %v, want %v", stats.CompletedStages, want)
	}
	if d.State() != StateDone {
		t.Errorf("expected done state, got %v", d.State())
	}
}

// TestDetectPureColor tests stage two: near-uniform images are pulled out
// of the pool.
func TestDetectPureColor(t *testing.T) {
	t.Parallel()

	t.Run("two pure images form a group", func(t *testing.T) {
		t.Parallel()

		src := newMemorySource()
		src.add(t, "red.png", uniformImage(16, 16, color.NRGBA{R: 200, A: 255}))
		src.add(t, "blue.png", uniformImage(16, 16, color.NRGBA{B: 200, A: 255}))
		src.add(t, "photo.png", gradientImage(64, 64))

		d := newTestDetector(DefaultConfig(), src)
		groups, stats, err := d.Detect(context.Background(), []string{"red.png", "blue.png", "photo.png"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 1 || !groups[0].HasReason(model.ReasonPureColor) {
			t.Fatalf("expected one pure-color group, got %+v", groups)
		}
		if !slices.Equal(groups[0].Paths(), []string{"red.png", "blue.png"}) {
			t.Errorf("unexpected members: %v", groups[0].Paths())
		}
		if stats.PureColorImages != 2 {
			t.Errorf("PureColorImages = %d, want 2", stats.PureColorImages)
		}
	})

	t.Run("a lone pure image is consumed without a group", func(t *testing.T) {
		t.Parallel()

		src := newMemorySource()
		src.add(t, "red.png", uniformImage(16, 16, color.NRGBA{R: 200, A: 255}))
		src.add(t, "photo.png", gradientImage(64, 64))

		d := newTestDetector(DefaultConfig(), src)
		groups, stats, err := d.Detect(context.Background(), []string{"red.png", "photo.png"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("expected no groups, got %+v", groups)
		}
		if stats.PureColorImages != 1 {
			t.Errorf("PureColorImages = %d, want 1", stats.PureColorImages)
		}
	})

	t.Run("disabled stage leaves pure images in the pool", func(t *testing.T) {
		t.Parallel()

		src := newMemorySource()
		src.add(t, "red.png", uniformImage(16, 16, color.NRGBA{R: 200, A: 255}))
		src.add(t, "photo.png", gradientImage(64, 64))

		cfg := DefaultConfig()
		cfg.DetectPureColor = false
		d := newTestDetector(cfg, src)
		_, stats, err := d.Detect(context.Background(), []string{"red.png", "photo.png"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.PureColorImages != 0 {
			t.Errorf("PureColorImages = %d, want 0", stats.PureColorImages)
		}
		if slices.Contains(stats.CompletedStages, StagePureColor) {
			t.Errorf("pure-color stage should not have run: %v", stats.CompletedStages)
		}
	})
}

// TestDetectStagePrecedence tests that exact matching claims identical
// pure-color files before the pure-color stage sees them.
func TestDetectStagePrecedence(t *testing.T) {
	t.Parallel()

	src := newMemorySource()
	white := uniformImage(16, 16, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	src.add(t, "a.png", white)
	src.add(t, "b.png", white)

	d := newTestDetector(DefaultConfig(), src)
	groups, _, err := d.Detect(context.Background(), []string{"a.png", "b.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %+v", groups)
	}
	if !groups[0].HasReason(model.ReasonExactMatch) {
		t.Errorf("expected exact match to win, got %v", groups[0].Reasons)
	}
	if groups[0].HasReason(model.ReasonPureColor) {
		t.Errorf("pure color should not claim exact duplicates: %v", groups[0].Reasons)
	}
}

// TestDetectCancellation tests that a cancelled context yields partial
// results rather than an error.
func TestDetectCancellation(t *testing.T) {
	t.Parallel()

	src := newMemorySource()
	src.add(t, "a.png", gradientImage(64, 64))
	src.add(t, "b.png", invertedGradient(64, 64))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDetector(DefaultConfig(), src)
	groups, stats, err := d.Detect(ctx, []string{"a.png", "b.png"})
	if err != nil {
		t.Fatalf("cancellation must not be an error, got %v", err)
	}
	if !stats.Stopped {
		t.Error("expected Stopped to be set")
	}
	if len(groups) != 0 {
		t.Errorf("expected no groups from a pre-cancelled run, got %+v", groups)
	}
	if d.State() != StateStopped {
		t.Errorf("expected stopped state, got %v", d.State())
	}
}

// TestDetectEmptyInput tests the trivial run.
func TestDetectEmptyInput(t *testing.T) {
	t.Parallel()

	d := newTestDetector(DefaultConfig(), newMemorySource())
	groups, stats, err := d.Detect(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 0 || stats.TotalImages != 0 {
		t.Errorf("expected empty result, got %+v %+v", groups, stats)
	}
}

// TestDetectIdempotent tests that repeated runs over unchanged input
// produce identical groups.
func TestDetectIdempotent(t *testing.T) {
	t.Parallel()

	src := newMemorySource()
	src.add(t, "a.png", gradientImage(64, 64))
	src.add(t, "b.png", perturbedGradient(64, 64))
	src.add(t, "c.png", invertedGradient(64, 64))
	src.add(t, "red.png", uniformImage(16, 16, color.NRGBA{R: 200, A: 255}))
	src.add(t, "blue.png", uniformImage(16, 16, color.NRGBA{B: 200, A: 255}))
	paths := []string{"a.png", "b.png", "c.png", "red.png", "blue.png"}

	d := newTestDetector(DefaultConfig(), src)
	first, _, err := d.Detect(context.Background(), paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := d.Detect(context.Background(), paths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs disagree:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
