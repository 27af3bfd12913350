package imghash

import (
	"errors"
	"testing"
)

// TestHashDistance tests Hamming distance semantics.
func TestHashDistance(t *testing.T) {
	t.Parallel()

	t.Run("distance to self is zero", func(t *testing.T) {
		t.Parallel()

		h := newHash([]bool{true, false, true, true, false, false, true, false})
		d, err := h.Distance(h)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 0 {
			t.Errorf("expected distance 0, got %d", d)
		}
	})

	t.Run("distance is symmetric", func(t *testing.T) {
		t.Parallel()

		a := newHash([]bool{true, true, false, false, true, false, false, false})
		b := newHash([]bool{false, true, true, false, false, false, true, true})

		ab, err := a.Distance(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := b.Distance(a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ab != ba {
			t.Errorf("distance not symmetric: %d vs %d", ab, ba)
		}
	})

	t.Run("counts differing bits", func(t *testing.T) {
		t.Parallel()

		a := newHash([]bool{true, true, true, true, false, false, false, false})
		b := newHash([]bool{false, false, true, true, false, false, true, true})

		d, err := a.Distance(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 4 {
			t.Errorf("expected distance 4, got %d", d)
		}
	})

	t.Run("length mismatch is an error", func(t *testing.T) {
		t.Parallel()

		a := newHash(make([]bool, 64))
		b := newHash(make([]bool, 63))

		if _, err := a.Distance(b); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("expected ErrLengthMismatch, got %v", err)
		}
	})

	t.Run("bits beyond a byte boundary", func(t *testing.T) {
		t.Parallel()

		a := make([]bool, 63)
		b := make([]bool, 63)
		b[62] = true // last valid bit, inside the padded final byte

		d, err := newHash(a).Distance(newHash(b))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 1 {
			t.Errorf("expected distance 1, got %d", d)
		}
	})
}

// TestPureColorSentinel tests the maximal-distance bias of the sentinel.
func TestPureColorSentinel(t *testing.T) {
	t.Parallel()

	real := newHash(make([]bool, 64))
	sentinel := PureColor(64)

	t.Run("sentinel vs real hash is maximal", func(t *testing.T) {
		t.Parallel()

		d, err := sentinel.Distance(real)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 64 {
			t.Errorf("expected distance 64, got %d", d)
		}
	})

	t.Run("sentinel vs sentinel is maximal", func(t *testing.T) {
		t.Parallel()

		d, err := sentinel.Distance(PureColor(64))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d != 64 {
			t.Errorf("expected distance 64, got %d", d)
		}
	})

	t.Run("sentinel reports itself", func(t *testing.T) {
		t.Parallel()

		if !sentinel.IsPureColor() {
			t.Error("expected IsPureColor to be true")
		}
		if real.IsPureColor() {
			t.Error("expected IsPureColor to be false for a real hash")
		}
		if sentinel.String() != "pure-color" {
			t.Errorf("unexpected sentinel string: %q", sentinel.String())
		}
	})
}
