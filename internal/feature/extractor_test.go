package feature

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"
)

func gradientImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / w)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func uniformImage(w, h int, v uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func noiseImage(w, h int, seed uint64) image.Image {
	rng := rand.New(rand.NewPCG(seed, seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(rng.IntN(256))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// TestExtract tests the individual feature components.
func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("aspect ratio", func(t *testing.T) {
		t.Parallel()

		v := Extract(gradientImage(200, 100))
		if math.Abs(v.AspectRatio-2.0) > 1e-9 {
			t.Errorf("expected aspect ratio 2.0, got %f", v.AspectRatio)
		}
	})

	t.Run("uniform image has no contrast, entropy or edges", func(t *testing.T) {
		t.Parallel()

		v := Extract(uniformImage(100, 100, 77))
		if v.Contrast != 0 {
			t.Errorf("expected zero contrast, got %f", v.Contrast)
		}
		if v.Entropy != 0 {
			t.Errorf("expected zero entropy, got %f", v.Entropy)
		}
		if v.EdgeDensity != 0 {
			t.Errorf("expected zero edge density, got %f", v.EdgeDensity)
		}
		if math.Abs(v.Brightness-77) > 1.0 {
			t.Errorf("expected brightness near 77, got %f", v.Brightness)
		}
	})

	t.Run("noise has more entropy and edges than a gradient", func(t *testing.T) {
		t.Parallel()

		grad := Extract(gradientImage(100, 100))
		noise := Extract(noiseImage(100, 100, 5))

		if noise.Entropy <= grad.Entropy {
			t.Errorf("expected noise entropy %f > gradient entropy %f", noise.Entropy, grad.Entropy)
		}
		if noise.EdgeDensity <= grad.EdgeDensity {
			t.Errorf("expected noise edge density %f > gradient %f", noise.EdgeDensity, grad.EdgeDensity)
		}
	})

	t.Run("entropy is bounded by 8 bits", func(t *testing.T) {
		t.Parallel()

		v := Extract(noiseImage(200, 200, 9))
		if v.Entropy > 8.0 {
			t.Errorf("entropy %f exceeds the 8-bit bound", v.Entropy)
		}
	})
}

// TestSimilarity tests the weighted vector comparison.
func TestSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("identical vectors score 1", func(t *testing.T) {
		t.Parallel()

		v := Extract(gradientImage(120, 80))
		if s := Similarity(v, v); math.Abs(s-1.0) > 1e-9 {
			t.Errorf("expected similarity 1.0, got %f", s)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()

		a := Extract(gradientImage(120, 80))
		b := Extract(noiseImage(80, 120, 2))
		if Similarity(a, b) != Similarity(b, a) {
			t.Error("similarity must be symmetric")
		}
	})

	t.Run("bounded in [0,1]", func(t *testing.T) {
		t.Parallel()

		a := Vector{AspectRatio: 10, Brightness: 255, Contrast: 128, Entropy: 8, EdgeDensity: 100}
		b := Vector{AspectRatio: 0.1, Brightness: 0, Contrast: 0, Entropy: 0, EdgeDensity: 0}
		s := Similarity(a, b)
		if s < 0 || s > 1 {
			t.Errorf("similarity %f out of bounds", s)
		}
	})

	t.Run("closer images score higher", func(t *testing.T) {
		t.Parallel()

		base := Extract(gradientImage(100, 100))
		near := Extract(gradientImage(110, 100))
		far := Extract(noiseImage(100, 30, 4))

		if Similarity(base, near) <= Similarity(base, far) {
			t.Error("expected the near image to score higher than the far one")
		}
	})
}
