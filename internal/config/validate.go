package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateSplit(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Prefix == "" {
		return errors.New("pipeline.prefix must be set")
	}
	if strings.IndexFunc(c.Pipeline.Prefix, unicode.IsSpace) >= 0 {
		return fmt.Errorf("pipeline.prefix %q must not contain whitespace", c.Pipeline.Prefix)
	}
	if c.Pipeline.ProgressTimeout <= 0 {
		return errors.New("pipeline.progress_timeout must be positive (seconds)")
	}
	if c.Pipeline.Threads < 0 {
		return errors.New("pipeline.threads must not be negative")
	}
	return nil
}

func (c *Config) validateSplit() error {
	limits, err := c.SizeLimits()
	if err != nil {
		return err
	}
	if limits.PlatformLimit > 0 && limits.PlatformLimit <= limits.SafetyMargin {
		return errors.New("split.platform_limit must be larger than split.safety_margin")
	}
	return nil
}

func (c *Config) validateConvert() error {
	if c.Convert.CRF < 0 || c.Convert.CRF > 63 {
		return errors.New("convert.crf must be between 0 and 63")
	}
	return nil
}

func (c *Config) validatePreview() error {
	p := c.Preview
	if p.SampleDuration <= 0 || p.SamplePart <= 0 || p.Screenshots <= 0 {
		return errors.New("preview values must be positive")
	}
	if p.SamplePart > p.SampleDuration {
		return errors.New("preview.sample_part must not exceed preview.sample_duration")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}
