// Package config loads, normalizes, and validates lensflow configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GEMINI_API_KEY. The Config type centralizes every knob the daemon and CLI
// need: API bind address, Gemini/Veo model names, animation polling policy,
// and notification settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
