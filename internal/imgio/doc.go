// Package imgio provides the filesystem-facing collaborators of the
// detection core: directory walking, image decoding, and EXIF probing.
//
// The detector itself never touches the filesystem directly; it consumes
// a path list from Walk and pixels from a Source. Keeping traversal and
// codec concerns here means the core stays testable with in-memory images
// and the supported format set can grow without touching detection code.
package imgio
