// Package render produces post previews from composed HTML documents.
//
// A caption and a source-image URL are substituted into an HTML layout, the
// document is opened in a headless browser at a fixed viewport, and the post
// element is captured as a transparent PNG. The browser is abstracted behind
// the Engine interface so tests never start a real one.
package render
