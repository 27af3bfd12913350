package imgio

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// writeFile creates an empty file, creating parent directories as needed.
func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

// TestWalk tests traversal, filtering and ordering.
func TestWalk(t *testing.T) {
	t.Parallel()

	t.Run("filters to image extensions", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "b.jpg"))
		writeFile(t, filepath.Join(dir, "a.PNG"))
		writeFile(t, filepath.Join(dir, "notes.txt"))
		writeFile(t, filepath.Join(dir, "c.webp"))

		paths, err := Walk(dir, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{
			filepath.Join(dir, "a.PNG"),
			filepath.Join(dir, "b.jpg"),
			filepath.Join(dir, "c.webp"),
		}
		if !slices.Equal(paths, want) {
			t.Errorf("Walk() = %v, want %v", paths, want)
		}
	})

	t.Run("recursive descends subdirectories", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "top.jpg"))
		writeFile(t, filepath.Join(dir, "sub", "nested.png"))

		paths, err := Walk(dir, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(paths) != 2 {
			t.Errorf("expected 2 paths, got %v", paths)
		}
	})

	t.Run("non-recursive stays at the top level", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "top.jpg"))
		writeFile(t, filepath.Join(dir, "sub", "nested.png"))

		paths, err := Walk(dir, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(paths) != 1 || filepath.Base(paths[0]) != "top.jpg" {
			t.Errorf("expected only top.jpg, got %v", paths)
		}
	})

	t.Run("ordering is stable across runs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		for _, name := range []string{"z.jpg", "m.jpg", "a.jpg"} {
			writeFile(t, filepath.Join(dir, name))
		}

		first, err := Walk(dir, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := Walk(dir, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(first, second) {
			t.Errorf("walk order changed: %v vs %v", first, second)
		}
		if !slices.IsSorted(first) {
			t.Errorf("expected sorted output, got %v", first)
		}
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := Walk(filepath.Join(t.TempDir(), "nope"), true); err == nil {
			t.Error("expected an error for a missing directory")
		}
	})
}

// TestIsImagePath tests extension matching.
func TestIsImagePath(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]bool{
		"photo.jpg":  true,
		"photo.JPEG": true,
		"img.tiff":   true,
		"doc.pdf":    false,
		"noext":      false,
	} {
		if got := IsImagePath(path); got != want {
			t.Errorf("IsImagePath(%q) = %v, want %v", path, got, want)
		}
	}
}
