package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, creates the directories, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.AssetBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	if err := os.MkdirAll(builder.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}

	return builder.cfg
}

// WithAudioTracks replaces the configured audio tracks, writing a small file
// for each so encode preflight checks pass.
func WithAudioTracks(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		tracks := make([]config.AudioTrack, 0, len(ids))
		for _, id := range ids {
			path := filepath.Join(b.baseDir, "audio", id+".mp3")
			WriteFile(b.t, path, 16)
			tracks = append(tracks, config.AudioTrack{ID: id, Label: id, File: path})
		}
		b.cfg.Audio.Tracks = tracks
	}
}

// WithNtfyTopic points notifications at the given endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}
