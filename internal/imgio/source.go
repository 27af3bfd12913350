package imgio

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	// Register decoders beyond the stdlib jpeg/png/gif set.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FileSource reads candidate images from the local filesystem. It is the
// production implementation of the detector's Source dependency.
//
// Raw bytes and decoded pixels are separate calls because content
// fingerprinting must work on files the decoder rejects: a truncated JPEG
// still has a well-defined byte digest.
type FileSource struct{}

// NewFileSource creates a FileSource.
func NewFileSource() *FileSource { return &FileSource{} }

// Raw returns the unmodified file bytes.
func (s *FileSource) Raw(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Image decodes the file at path into pixels. EXIF orientation is applied
// during decode so that camera-rotated photos compare in their displayed
// orientation.
func (s *FileSource) Image(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image, used when the raw bytes are
// already loaded.
func DecodeBytes(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
