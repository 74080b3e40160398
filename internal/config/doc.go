// Package config loads, normalizes, and validates ffloom configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the FFLOOM_FFMPEG and FFLOOM_FFPROBE environment
// fallbacks. Byte sizes in the [split] section accept human forms such as
// "2 GiB" or "50MB".
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
