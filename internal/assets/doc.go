// Package assets serves run-directory files over local HTTP.
//
// The rasterization engine loads the composed document in a real browser
// context, so the source image must be addressable by URL rather than by
// filesystem path. The server binds loopback by default and only ever reads
// below the configured output root.
package assets
