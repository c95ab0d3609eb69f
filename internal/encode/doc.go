// Package encode turns a rendered preview plus an audio track into a short
// video through an external ffmpeg process. The invocation is a typed
// argument slice behind an Executor interface so tests never run ffmpeg.
package encode
