package imghash

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
)

// gradientImage returns a horizontal brightness ramp with some vertical
// variation, enough texture to never trip the pure-color cutoff.
func gradientImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*255/w + y*64/h) % 256)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

// uniformImage returns a solid-color image.
func uniformImage(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// noiseImage returns deterministic per-pixel noise.
func noiseImage(w, h int, seed uint64) image.Image {
	rng := rand.New(rand.NewPCG(seed, seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.IntN(256)),
				G: uint8(rng.IntN(256)),
				B: uint8(rng.IntN(256)),
				A: 255,
			})
		}
	}
	return img
}

// TestHasherDeterminism tests that identical pixels hash identically.
func TestHasherDeterminism(t *testing.T) {
	t.Parallel()

	hasher := NewHasher()
	img := gradientImage(120, 90)

	for _, tc := range []struct {
		name string
		fn   func(image.Image, int) (Hash, error)
		bits int
	}{
		{"difference", hasher.Difference, 64},
		{"average", hasher.Average, 64},
		{"frequency", hasher.Frequency, 63},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a, err := tc.fn(img, 8)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b, err := tc.fn(gradientImage(120, 90), 8)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.BitLen() != tc.bits {
				t.Errorf("expected %d bits, got %d", tc.bits, a.BitLen())
			}
			d, err := a.Distance(b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d != 0 {
				t.Errorf("identical images should hash identically, distance %d", d)
			}
		})
	}
}

// TestHasherDiscrimination tests that unrelated images are far apart.
func TestHasherDiscrimination(t *testing.T) {
	t.Parallel()

	hasher := NewHasher()

	a, err := hasher.Difference(gradientImage(100, 100), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := hasher.Difference(noiseImage(100, 100, 7), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := a.Distance(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d < 10 {
		t.Errorf("expected unrelated images to be far apart, distance %d", d)
	}
}

// TestAveragePureColorSentinel tests the degenerate-image path.
func TestAveragePureColorSentinel(t *testing.T) {
	t.Parallel()

	hasher := NewHasher()

	h, err := hasher.Average(uniformImage(64, 64, color.NRGBA{R: 200, G: 10, B: 10, A: 255}), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.IsPureColor() {
		t.Error("expected PureColor sentinel for a uniform image")
	}

	h, err = hasher.Average(gradientImage(64, 64), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.IsPureColor() {
		t.Error("did not expect PureColor sentinel for a gradient image")
	}
}

// TestIsPureColor tests the sampling-based uniformity check.
func TestIsPureColor(t *testing.T) {
	t.Parallel()

	hasher := NewHasher()

	t.Run("uniform image", func(t *testing.T) {
		t.Parallel()

		if !hasher.IsPureColor(uniformImage(50, 50, color.NRGBA{R: 30, G: 30, B: 30, A: 255}), DefaultPureColorCutoff) {
			t.Error("expected uniform image to be pure-color")
		}
	})

	t.Run("textured image", func(t *testing.T) {
		t.Parallel()

		if hasher.IsPureColor(noiseImage(50, 50, 3), DefaultPureColorCutoff) {
			t.Error("did not expect noise image to be pure-color")
		}
	})

	t.Run("tiny image counts as pure-color", func(t *testing.T) {
		t.Parallel()

		if !hasher.IsPureColor(noiseImage(5, 5, 3), DefaultPureColorCutoff) {
			t.Error("expected sub-10px image to be treated as pure-color")
		}
	})

	t.Run("decision is repeatable", func(t *testing.T) {
		t.Parallel()

		img := noiseImage(300, 300, 11)
		first := hasher.IsPureColor(img, DefaultPureColorCutoff)
		for i := 0; i < 5; i++ {
			if hasher.IsPureColor(img, DefaultPureColorCutoff) != first {
				t.Fatal("pure-color decision changed between runs")
			}
		}
	})
}

// TestFingerprint tests the content digest.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	hasher := NewHasher()

	a := hasher.Fingerprint([]byte("hello"))
	b := hasher.Fingerprint([]byte("hello"))
	c := hasher.Fingerprint([]byte("hello!"))

	if a != b {
		t.Error("same bytes must produce the same fingerprint")
	}
	if a == c {
		t.Error("different bytes must produce different fingerprints")
	}
	if len(a) != 32 { // 128 bits, hex encoded
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

// TestFastHasher tests that the fast provider satisfies the same contract.
func TestFastHasher(t *testing.T) {
	t.Parallel()

	fast := NewFastHasher()
	img := gradientImage(120, 90)

	a, err := fast.Difference(img, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := fast.Difference(gradientImage(120, 90), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := a.Distance(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Errorf("identical images should hash identically, distance %d", d)
	}

	h, err := fast.Average(uniformImage(64, 64, color.NRGBA{R: 9, G: 9, B: 9, A: 255}), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.IsPureColor() {
		t.Error("expected PureColor sentinel from the fast provider too")
	}
}

// TestHashSizeValidation tests rejection of degenerate sizes.
func TestHashSizeValidation(t *testing.T) {
	t.Parallel()

	hasher := NewHasher()
	if _, err := hasher.Difference(gradientImage(20, 20), 1); err == nil {
		t.Error("expected an error for hash size 1")
	}
	if _, err := hasher.Frequency(gradientImage(20, 20), 0); err == nil {
		t.Error("expected an error for hash size 0")
	}
}
