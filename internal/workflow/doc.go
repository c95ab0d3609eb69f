// Package workflow orchestrates the post-production pipeline.
//
// The Manager consumes transport events and moves each user's session
// through menu navigation, audio selection, photo processing, preview
// confirmation, and video delivery. Pipeline steps report progress by
// editing a single status message in place, and every run appends to its
// own activity log inside the run directory.
package workflow
