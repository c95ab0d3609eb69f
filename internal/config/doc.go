// Package config loads, normalizes, and validates reelpress configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and resolves the transport token from the
// environment. The Config type centralizes every knob the daemon and CLI
// need: storage roots, the audio track catalog, render and encode tuning,
// and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
