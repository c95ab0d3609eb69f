package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	AudioDir     string `toml:"audio_dir"`
	TemplatePath string `toml:"template_path"`
	AssetBind    string `toml:"asset_bind"`
}

// Transport contains settings for the chat transport boundary.
type Transport struct {
	TokenEnv               string `toml:"token_env"`
	DownloadTimeoutSeconds int    `toml:"download_timeout"`
}

// AudioTrack describes one selectable audio asset.
type AudioTrack struct {
	ID    string `toml:"id"`
	Label string `toml:"label"`
	File  string `toml:"file"`
}

// Audio contains the selectable audio track catalog.
type Audio struct {
	Tracks []AudioTrack `toml:"tracks"`
}

// Render contains configuration for the preview rasterization pipeline.
type Render struct {
	BrowserPath        string  `toml:"browser_path"`
	ViewportWidth      int     `toml:"viewport_width"`
	ViewportHeight     int     `toml:"viewport_height"`
	Scale              float64 `toml:"scale"`
	Selector           string  `toml:"selector"`
	LaunchRetries      int     `toml:"launch_retries"`
	RetryBackoff       int     `toml:"retry_backoff"`
	LaunchTimeout      int     `toml:"launch_timeout"`
	LoadTimeout        int     `toml:"load_timeout"`
	MaxEngineInstances int     `toml:"max_engine_instances"`
}

// Encode contains configuration for the video encode pipeline.
type Encode struct {
	FFmpegBinary    string `toml:"ffmpeg_binary"`
	DurationSeconds int    `toml:"duration_seconds"`
	VideoBitrate    string `toml:"video_bitrate"`
	AudioBitrate    string `toml:"audio_bitrate"`
	Preset          string `toml:"preset"`
	CRF             int    `toml:"crf"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelpress.
//
// Configuration sections by subsystem:
//   - Paths: output root, log directory, audio assets, template, asset server bind
//   - Transport: chat transport token env var and download timeout
//   - Audio: selectable audio track catalog
//   - Render: rasterization engine viewport, capture selector, retry policy
//   - Encode: ffmpeg binary and fixed video parameters
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Transport     Transport     `toml:"transport"`
	Audio         Audio         `toml:"audio"`
	Render        Render        `toml:"render"`
	Encode        Encode        `toml:"encode"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelpress/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelpress.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the media encoder executable name.
func (c *Config) FFmpegBinary() string {
	binary := strings.TrimSpace(c.Encode.FFmpegBinary)
	if binary == "" {
		return "ffmpeg"
	}
	return binary
}

// BotToken resolves the chat transport token from the configured environment
// variable. Empty when unset; the daemon decides whether that is fatal.
func (c *Config) BotToken() string {
	env := strings.TrimSpace(c.Transport.TokenEnv)
	if env == "" {
		env = defaultTokenEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// TrackByID looks up an audio track in the configured catalog.
func (c *Config) TrackByID(id string) (AudioTrack, bool) {
	for _, track := range c.Audio.Tracks {
		if track.ID == id {
			return track, true
		}
	}
	return AudioTrack{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
