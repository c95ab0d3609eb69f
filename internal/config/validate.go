package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if len(c.Audio.Tracks) == 0 {
		return errors.New("audio.tracks must list at least one track")
	}
	seen := make(map[string]struct{}, len(c.Audio.Tracks))
	for i, track := range c.Audio.Tracks {
		if track.ID == "" {
			return fmt.Errorf("audio.tracks[%d].id must be set", i)
		}
		if track.File == "" {
			return fmt.Errorf("audio.tracks[%d].file must be set", i)
		}
		if _, dup := seen[track.ID]; dup {
			return fmt.Errorf("audio.tracks contains duplicate id %q", track.ID)
		}
		seen[track.ID] = struct{}{}
	}
	return nil
}

func (c *Config) validateRender() error {
	return ensurePositiveMap(map[string]int{
		"render.viewport_width":       c.Render.ViewportWidth,
		"render.viewport_height":      c.Render.ViewportHeight,
		"render.launch_retries":       c.Render.LaunchRetries,
		"render.retry_backoff":        c.Render.RetryBackoff,
		"render.launch_timeout":       c.Render.LaunchTimeout,
		"render.load_timeout":         c.Render.LoadTimeout,
		"render.max_engine_instances": c.Render.MaxEngineInstances,
	})
}

func (c *Config) validateEncode() error {
	if err := ensurePositiveMap(map[string]int{
		"encode.duration_seconds": c.Encode.DurationSeconds,
		"encode.crf":              c.Encode.CRF,
		"encode.timeout_seconds":  c.Encode.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Encode.FFmpegBinary == "" {
		return errors.New("encode.ffmpeg_binary must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
