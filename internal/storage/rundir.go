package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RunDir is the exclusively-owned storage location for one production run.
type RunDir struct {
	Path     string
	Date     string
	Sequence int
}

// OriginalImagePath returns the canonical location for the downloaded source
// image with the given extension (without leading dot).
func (r RunDir) OriginalImagePath(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return filepath.Join(r.Path, fmt.Sprintf("original_image.%s", ext))
}

// ComposedDocumentPath returns the location of the substituted HTML document.
func (r RunDir) ComposedDocumentPath() string {
	return filepath.Join(r.Path, "composed.html")
}

// PreviewPath returns the canonical preview bitmap location.
func (r RunDir) PreviewPath() string {
	return filepath.Join(r.Path, "preview.png")
}

// VideoPath returns the canonical encoded video location.
func (r RunDir) VideoPath() string {
	return filepath.Join(r.Path, "video.mp4")
}

// MetadataPath returns the canonical metadata record location.
func (r RunDir) MetadataPath() string {
	return filepath.Join(r.Path, "metadata.json")
}

// ActivityLogPath returns the canonical per-run activity log location.
func (r RunDir) ActivityLogPath() string {
	return filepath.Join(r.Path, "activity.log")
}

// IsZero reports whether the run dir has been allocated.
func (r RunDir) IsZero() bool {
	return r.Path == ""
}
