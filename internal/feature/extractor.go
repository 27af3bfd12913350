package feature

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Similarity weights. They are normalized to 1.0 while preserving the
// relative emphasis of the original tuning: shape (aspect ratio) carries
// the most weight, then the two tonal features, then the two structural
// ones.
const (
	weightAspectRatio = 0.30
	weightBrightness  = 0.20
	weightContrast    = 0.20
	weightEntropy     = 0.15
	weightEdgeDensity = 0.15
)

// Normalization ranges used when converting absolute feature differences
// into [0,1] similarities.
const (
	brightnessRange  = 255.0
	contrastRange    = 128.0
	entropyRange     = 8.0 // log2(256), maximum entropy of an 8-bit histogram
	edgeDensityRange = 100.0
)

// Vector is a compact numeric descriptor of an image. All components are
// bounded and real-valued; two vectors are comparable regardless of the
// original image dimensions.
type Vector struct {
	// AspectRatio is width divided by height.
	AspectRatio float64 `json:"aspect_ratio"`

	// Brightness is the mean grayscale intensity on a 0-255 scale.
	Brightness float64 `json:"brightness"`

	// Contrast is the standard deviation of grayscale intensity.
	Contrast float64 `json:"contrast"`

	// Entropy is the Shannon entropy of the 256-bin intensity histogram,
	// in bits.
	Entropy float64 `json:"entropy"`

	// EdgeDensity is the mean Sobel gradient magnitude.
	EdgeDensity float64 `json:"edge_density"`
}

// Extract computes the feature vector of a decoded image.
func Extract(img image.Image) Vector {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	v := Vector{AspectRatio: 1.0}
	if h > 0 {
		v.AspectRatio = float64(w) / float64(h)
	}
	if w == 0 || h == 0 {
		return v
	}

	px, stride := grayPixels(img)

	var sum float64
	for _, p := range px {
		sum += float64(p)
	}
	v.Brightness = sum / float64(len(px))

	var sq float64
	for _, p := range px {
		d := float64(p) - v.Brightness
		sq += d * d
	}
	v.Contrast = math.Sqrt(sq / float64(len(px)))

	v.Entropy = entropy(px)
	v.EdgeDensity = edgeDensity(px, stride, w, h)
	return v
}

// Similarity returns a weighted similarity of two feature vectors in
// [0,1], where 1 means the vectors agree on every component.
func Similarity(a, b Vector) float64 {
	aspectSim := 1.0
	if maxAspect := math.Max(a.AspectRatio, b.AspectRatio); maxAspect > 0 {
		aspectSim = 1.0 - math.Min(math.Abs(a.AspectRatio-b.AspectRatio)/maxAspect, 1.0)
	}
	brightSim := 1.0 - math.Min(math.Abs(a.Brightness-b.Brightness)/brightnessRange, 1.0)
	contrastSim := 1.0 - math.Min(math.Abs(a.Contrast-b.Contrast)/contrastRange, 1.0)
	entropySim := 1.0 - math.Min(math.Abs(a.Entropy-b.Entropy)/entropyRange, 1.0)
	edgeSim := 1.0 - math.Min(math.Abs(a.EdgeDensity-b.EdgeDensity)/edgeDensityRange, 1.0)

	s := aspectSim*weightAspectRatio +
		brightSim*weightBrightness +
		contrastSim*weightContrast +
		entropySim*weightEntropy +
		edgeSim*weightEdgeDensity
	return math.Max(0, math.Min(1, s))
}

// grayPixels converts img to an 8-bit grayscale plane at original size.
func grayPixels(img image.Image) (px []uint8, stride int) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	px = make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			px[y*w+x] = row[x*4]
		}
	}
	return px, w
}

// entropy computes Shannon entropy over a 256-bin intensity histogram.
func entropy(px []uint8) float64 {
	var hist [256]int
	for _, p := range px {
		hist[p]++
	}
	total := float64(len(px))
	var e float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		e -= p * math.Log2(p)
	}
	return e
}

// edgeDensity computes the mean Sobel gradient magnitude over the interior
// of the plane. Border pixels are skipped rather than padded; for any
// realistically sized image the difference is negligible.
func edgeDensity(px []uint8, stride, w, h int) float64 {
	if w < 3 || h < 3 {
		return 0
	}
	var sum float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			at := func(dx, dy int) float64 {
				return float64(px[(y+dy)*stride+x+dx])
			}
			gx := -at(-1, -1) + at(1, -1) - 2*at(-1, 0) + 2*at(1, 0) - at(-1, 1) + at(1, 1)
			gy := -at(-1, -1) - 2*at(0, -1) - at(1, -1) + at(-1, 1) + 2*at(0, 1) + at(1, 1)
			sum += math.Sqrt(gx*gx + gy*gy)
		}
	}
	return sum / float64((w-2)*(h-2))
}
