package imgio

import (
	"time"

	exif "github.com/dsoprea/go-exif/v3"
)

// exifTimeLayout is the timestamp format mandated by the EXIF standard.
const exifTimeLayout = "2006:01:02 15:04:05"

// CaptureTime returns the EXIF capture timestamp of the image at path.
// The second return value is false when the file carries no usable EXIF
// data; that is the common case for screenshots and exported images and
// is not an error.
//
// Reports use this to suggest which copy of a duplicate group to keep
// (usually the earliest).
func CaptureTime(path string) (time.Time, bool) {
	rawExif, err := exif.SearchFileAndExtractExif(path)
	if err != nil || rawExif == nil {
		return time.Time{}, false
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return time.Time{}, false
	}

	// DateTimeOriginal is the shutter time; DateTime is a fallback that
	// may reflect a later edit.
	var fallback time.Time
	for _, entry := range entries {
		switch entry.TagName {
		case "DateTimeOriginal":
			if t, err := time.ParseInLocation(exifTimeLayout, entry.Formatted, time.Local); err == nil {
				return t, true
			}
		case "DateTime":
			if t, err := time.ParseInLocation(exifTimeLayout, entry.Formatted, time.Local); err == nil {
				fallback = t
			}
		}
	}
	if !fallback.IsZero() {
		return fallback, true
	}
	return time.Time{}, false
}
