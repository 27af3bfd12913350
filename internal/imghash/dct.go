package imghash

import (
	"math"
	"sort"
)

// frequencyBits derives the frequency hash from a (4·size)×(4·size)
// grayscale plane: a truncated 2-D DCT-II keeps the size×size low-frequency
// block, the DC coefficient is dropped, and the remaining coefficients are
// thresholded against their median.
//
// Dropping DC makes the hash invariant to global brightness shifts; the
// median threshold splits the bits evenly so every hash carries maximal
// information.
func frequencyBits(px []uint8, size int) Hash {
	n := size * 4
	coeffs := dct2(px, n, size)

	// Flatten row-major and drop the DC term.
	flat := make([]float64, 0, size*size-1)
	for i, c := range coeffs {
		if i == 0 {
			continue
		}
		flat = append(flat, c)
	}

	med := median(flat)
	b := make([]bool, len(flat))
	for i, c := range flat {
		b[i] = c > med
	}
	return newHash(b)
}

// dct2 computes the top-left keep×keep block of the 2-D DCT-II of an n×n
// plane using the separable row/column decomposition. Cost is
// O(n²·keep + n·keep²), comfortably fast for the 32×32 planes used here.
func dct2(px []uint8, n, keep int) []float64 {
	// Precompute the cosine basis for the kept frequencies.
	cos := make([]float64, keep*n)
	for u := 0; u < keep; u++ {
		for x := 0; x < n; x++ {
			cos[u*n+x] = math.Cos(math.Pi * float64(u) * (2*float64(x) + 1) / (2 * float64(n)))
		}
	}

	// Rows: n×n → n×keep.
	rows := make([]float64, n*keep)
	for y := 0; y < n; y++ {
		for u := 0; u < keep; u++ {
			var sum float64
			for x := 0; x < n; x++ {
				sum += float64(px[y*n+x]) * cos[u*n+x]
			}
			rows[y*keep+u] = sum
		}
	}

	// Columns: n×keep → keep×keep.
	out := make([]float64, keep*keep)
	for v := 0; v < keep; v++ {
		for u := 0; u < keep; u++ {
			var sum float64
			for y := 0; y < n; y++ {
				sum += rows[y*keep+u] * cos[v*n+y]
			}
			out[v*keep+u] = sum
		}
	}
	return out
}

// median returns the median of vals without modifying the input.
func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
