// Package storage owns the versioned on-disk layout for production runs.
//
// Each run receives an exclusively-owned directory of the form
// output/<YYYY-MM-DD>/<seq>_<HHMM>/ holding the original image, the composed
// document, preview.png, video.mp4, metadata.json, and activity.log. The
// Allocator guarantees that concurrently allocated run directories never
// collide and that sequence numbers per date bucket are strictly increasing.
package storage
