package imghash

import (
	"encoding/hex"
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"golang.org/x/crypto/blake2b"
	xdraw "golang.org/x/image/draw"
)

// DefaultPureColorCutoff is the per-channel standard deviation (on a 0-255
// scale) below which an image is considered pure-color. Chosen to match the
// behavior users expect from earlier releases: screenshots of solid
// backgrounds and failed renders fall below it, real photographs do not.
const DefaultPureColorCutoff = 3.0

// pureColorSamples is how many pixel positions IsPureColor inspects on
// large images. Sampling keeps the check O(1) in image size; 100 positions
// are plenty to expose any visible texture.
const pureColorSamples = 100

// Provider computes fingerprints and perceptual hashes for decoded images.
//
// Implementations must be safe for concurrent use on distinct images and
// must be deterministic: the same pixels always produce the same hashes.
//
// Design decision: this is an interface rather than a set of functions so
// that the resampling backend is swappable. Hasher favors quality, and
// FastHasher trades resampling quality for speed on large batches. Callers
// depend only on the interface.
type Provider interface {
	// Difference computes the gradient-based difference hash at the given
	// bit resolution (size×size bits).
	Difference(img image.Image, size int) (Hash, error)

	// Average computes the mean-threshold average hash. If the grayscale
	// standard deviation falls below the pure-color cutoff, the PureColor
	// sentinel is returned instead of a hash.
	Average(img image.Image, size int) (Hash, error)

	// Frequency computes the DCT-based frequency hash.
	Frequency(img image.Image, size int) (Hash, error)

	// Fingerprint returns a strong 128-bit content digest over the
	// unmodified file bytes, hex encoded. Byte-identical files always
	// produce identical fingerprints regardless of decodability.
	Fingerprint(raw []byte) string

	// IsPureColor reports whether the image is near-uniform: the standard
	// deviation of each of the R, G, B channels over a pixel sample is
	// below threshold.
	IsPureColor(img image.Image, threshold float64) bool
}

// hasherBase carries configuration shared by both Provider implementations.
type hasherBase struct {
	pureCutoff float64
}

// Option configures a Provider implementation.
type Option func(*hasherBase)

// WithPureColorCutoff overrides the grayscale standard deviation below
// which Average returns the PureColor sentinel.
func WithPureColorCutoff(v float64) Option {
	return func(b *hasherBase) {
		if v > 0 {
			b.pureCutoff = v
		}
	}
}

// Hasher is the default pure in-process Provider. It resamples with
// Lanczos so hashes stay stable across minor recompression.
type Hasher struct {
	hasherBase
	filter imaging.ResampleFilter
}

// NewHasher creates the default Provider.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		hasherBase: hasherBase{pureCutoff: DefaultPureColorCutoff},
		filter:     imaging.Lanczos,
	}
	for _, opt := range opts {
		opt(&h.hasherBase)
	}
	return h
}

// grayPlane resizes img to w×h and converts it to 8-bit grayscale,
// returned row-major.
func (h *Hasher) grayPlane(img image.Image, w, v int) []uint8 {
	resized := imaging.Resize(imaging.Grayscale(img), w, v, h.filter)
	px := make([]uint8, w*v)
	for y := 0; y < v; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < w; x++ {
			// Grayscale NRGBA has R=G=B; the red channel is the intensity.
			px[y*w+x] = row[x*4]
		}
	}
	return px
}

// Difference implements Provider.
func (h *Hasher) Difference(img image.Image, size int) (Hash, error) {
	if err := checkSize(size); err != nil {
		return Hash{}, err
	}
	return differenceBits(h.grayPlane(img, size+1, size), size), nil
}

// Average implements Provider.
func (h *Hasher) Average(img image.Image, size int) (Hash, error) {
	if err := checkSize(size); err != nil {
		return Hash{}, err
	}
	return averageBits(h.grayPlane(img, size, size), size, h.pureCutoff), nil
}

// Frequency implements Provider.
func (h *Hasher) Frequency(img image.Image, size int) (Hash, error) {
	if err := checkSize(size); err != nil {
		return Hash{}, err
	}
	return frequencyBits(h.grayPlane(img, size*4, size*4), size), nil
}

// Fingerprint implements Provider.
func (h *Hasher) Fingerprint(raw []byte) string { return fingerprint(raw) }

// IsPureColor implements Provider.
func (h *Hasher) IsPureColor(img image.Image, threshold float64) bool {
	return isPureColor(img, threshold)
}

// FastHasher is a Provider that resamples with an approximate bilinear
// scaler from golang.org/x/image. It is noticeably faster than Hasher on
// large originals at the cost of slightly noisier hash bits, which the
// voting rule absorbs. Used for quick passes over very large trees.
type FastHasher struct {
	hasherBase
	scaler xdraw.Scaler
}

// NewFastHasher creates the speed-oriented Provider.
func NewFastHasher(opts ...Option) *FastHasher {
	h := &FastHasher{
		hasherBase: hasherBase{pureCutoff: DefaultPureColorCutoff},
		scaler:     xdraw.ApproxBiLinear,
	}
	for _, opt := range opts {
		opt(&h.hasherBase)
	}
	return h
}

// grayPlane scales img directly into a grayscale buffer. Unlike Hasher
// this performs color conversion during the scale, avoiding a full-size
// intermediate image.
func (h *FastHasher) grayPlane(img image.Image, w, v int) []uint8 {
	dst := image.NewGray(image.Rect(0, 0, w, v))
	h.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	px := make([]uint8, w*v)
	for y := 0; y < v; y++ {
		copy(px[y*w:(y+1)*w], dst.Pix[y*dst.Stride:y*dst.Stride+w])
	}
	return px
}

// Difference implements Provider.
func (h *FastHasher) Difference(img image.Image, size int) (Hash, error) {
	if err := checkSize(size); err != nil {
		return Hash{}, err
	}
	return differenceBits(h.grayPlane(img, size+1, size), size), nil
}

// Average implements Provider.
func (h *FastHasher) Average(img image.Image, size int) (Hash, error) {
	if err := checkSize(size); err != nil {
		return Hash{}, err
	}
	return averageBits(h.grayPlane(img, size, size), size, h.pureCutoff), nil
}

// Frequency implements Provider.
func (h *FastHasher) Frequency(img image.Image, size int) (Hash, error) {
	if err := checkSize(size); err != nil {
		return Hash{}, err
	}
	return frequencyBits(h.grayPlane(img, size*4, size*4), size), nil
}

// Fingerprint implements Provider.
func (h *FastHasher) Fingerprint(raw []byte) string { return fingerprint(raw) }

// IsPureColor implements Provider.
func (h *FastHasher) IsPureColor(img image.Image, threshold float64) bool {
	return isPureColor(img, threshold)
}

func checkSize(size int) error {
	if size < 2 {
		return fmt.Errorf("imghash: hash size must be at least 2, got %d", size)
	}
	return nil
}

// differenceBits derives the difference hash from a (size+1)×size plane:
// each bit is set when a pixel's right neighbor is brighter.
func differenceBits(px []uint8, size int) Hash {
	w := size + 1
	b := make([]bool, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			b = append(b, px[y*w+x+1] > px[y*w+x])
		}
	}
	return newHash(b)
}

// averageBits derives the average hash from a size×size plane, or the
// PureColor sentinel when the plane's standard deviation is below cutoff.
func averageBits(px []uint8, size int, cutoff float64) Hash {
	var sum float64
	for _, p := range px {
		sum += float64(p)
	}
	mean := sum / float64(len(px))

	var sq float64
	for _, p := range px {
		d := float64(p) - mean
		sq += d * d
	}
	if math.Sqrt(sq/float64(len(px))) < cutoff {
		return PureColor(size * size)
	}

	b := make([]bool, len(px))
	for i, p := range px {
		b[i] = float64(p) > mean
	}
	return newHash(b)
}

// fingerprint digests raw file bytes with BLAKE2b-128.
func fingerprint(raw []byte) string {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// Only reachable with an invalid digest size or key.
		panic(err)
	}
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

// isPureColor samples pixel positions and reports whether all three color
// channels are near-constant. Images smaller than 10×10 are treated as
// pure-color: they carry too little signal for perceptual comparison.
//
// The sampler is seeded from the image dimensions so repeated runs over an
// unchanged tree make identical decisions.
func isPureColor(img image.Image, threshold float64) bool {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 10 || h < 10 {
		return true
	}

	type sample struct{ r, g, b float64 }
	var samples []sample
	if w*h <= pureColorSamples {
		samples = make([]sample, 0, w*h)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				samples = append(samples, sample{float64(r >> 8), float64(g >> 8), float64(b >> 8)})
			}
		}
	} else {
		rng := rand.New(rand.NewPCG(uint64(w), uint64(h)))
		samples = make([]sample, 0, pureColorSamples)
		for i := 0; i < pureColorSamples; i++ {
			x := bounds.Min.X + rng.IntN(w)
			y := bounds.Min.Y + rng.IntN(h)
			r, g, b, _ := img.At(x, y).RGBA()
			samples = append(samples, sample{float64(r >> 8), float64(g >> 8), float64(b >> 8)})
		}
	}

	stddev := func(get func(sample) float64) float64 {
		var sum float64
		for _, s := range samples {
			sum += get(s)
		}
		mean := sum / float64(len(samples))
		var sq float64
		for _, s := range samples {
			d := get(s) - mean
			sq += d * d
		}
		return math.Sqrt(sq / float64(len(samples)))
	}

	return stddev(func(s sample) float64 { return s.r }) < threshold &&
		stddev(func(s sample) float64 { return s.g }) < threshold &&
		stddev(func(s sample) float64 { return s.b }) < threshold
}
