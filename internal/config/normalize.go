package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTransport()
	c.normalizeAudio()
	c.normalizeRender()
	c.normalizeEncode()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TemplatePath) != "" {
		if c.Paths.TemplatePath, err = expandPath(c.Paths.TemplatePath); err != nil {
			return fmt.Errorf("paths.template_path: %w", err)
		}
	}
	c.Paths.AssetBind = strings.TrimSpace(c.Paths.AssetBind)
	if c.Paths.AssetBind == "" {
		c.Paths.AssetBind = defaultAssetBind
	}
	return nil
}

func (c *Config) normalizeTransport() {
	c.Transport.TokenEnv = strings.TrimSpace(c.Transport.TokenEnv)
	if c.Transport.TokenEnv == "" {
		c.Transport.TokenEnv = defaultTokenEnv
	}
	if c.Transport.DownloadTimeoutSeconds <= 0 {
		c.Transport.DownloadTimeoutSeconds = defaultDownloadTimeout
	}
}

// normalizeAudio resolves relative track files against the audio directory.
func (c *Config) normalizeAudio() {
	for i := range c.Audio.Tracks {
		track := &c.Audio.Tracks[i]
		track.ID = strings.TrimSpace(track.ID)
		track.Label = strings.TrimSpace(track.Label)
		track.File = strings.TrimSpace(track.File)
		if track.File != "" && !filepath.IsAbs(track.File) {
			track.File = filepath.Join(c.Paths.AudioDir, track.File)
		}
	}
}

func (c *Config) normalizeRender() {
	if c.Render.ViewportWidth <= 0 {
		c.Render.ViewportWidth = defaultViewportWidth
	}
	if c.Render.ViewportHeight <= 0 {
		c.Render.ViewportHeight = defaultViewportHeight
	}
	if c.Render.Scale <= 0 {
		c.Render.Scale = defaultScale
	}
	c.Render.Selector = strings.TrimSpace(c.Render.Selector)
	if c.Render.Selector == "" {
		c.Render.Selector = defaultSelector
	}
	if c.Render.LaunchRetries <= 0 {
		c.Render.LaunchRetries = defaultLaunchRetries
	}
	if c.Render.RetryBackoff <= 0 {
		c.Render.RetryBackoff = defaultRetryBackoff
	}
	if c.Render.LaunchTimeout <= 0 {
		c.Render.LaunchTimeout = defaultLaunchTimeout
	}
	if c.Render.LoadTimeout <= 0 {
		c.Render.LoadTimeout = defaultLoadTimeout
	}
	if c.Render.MaxEngineInstances <= 0 {
		c.Render.MaxEngineInstances = defaultMaxEngines
	}
}

func (c *Config) normalizeEncode() {
	c.Encode.FFmpegBinary = strings.TrimSpace(c.Encode.FFmpegBinary)
	if c.Encode.FFmpegBinary == "" {
		c.Encode.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Encode.DurationSeconds <= 0 {
		c.Encode.DurationSeconds = defaultVideoDuration
	}
	c.Encode.VideoBitrate = strings.TrimSpace(c.Encode.VideoBitrate)
	if c.Encode.VideoBitrate == "" {
		c.Encode.VideoBitrate = defaultVideoBitrate
	}
	c.Encode.AudioBitrate = strings.TrimSpace(c.Encode.AudioBitrate)
	if c.Encode.AudioBitrate == "" {
		c.Encode.AudioBitrate = defaultAudioBitrate
	}
	c.Encode.Preset = strings.TrimSpace(c.Encode.Preset)
	if c.Encode.Preset == "" {
		c.Encode.Preset = defaultEncodePreset
	}
	if c.Encode.CRF <= 0 {
		c.Encode.CRF = defaultEncodeCRF
	}
	if c.Encode.TimeoutSeconds <= 0 {
		c.Encode.TimeoutSeconds = defaultEncodeTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
