package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeTools()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeConvert()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = toolOrEnv(c.Tools.FFmpeg, "FFLOOM_FFMPEG", defaultFFmpeg)
	c.Tools.FFprobe = toolOrEnv(c.Tools.FFprobe, "FFLOOM_FFPROBE", defaultFFprobe)
	c.Tools.SevenZip = toolOrEnv(c.Tools.SevenZip, "", defaultSevenZip)
	c.Tools.Soffice = toolOrEnv(c.Tools.Soffice, "", defaultSoffice)
}

func toolOrEnv(value, env, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	if env != "" {
		if v, ok := os.LookupEnv(env); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return fallback
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	c.Pipeline.Prefix = strings.TrimSpace(c.Pipeline.Prefix)
	if c.Pipeline.Prefix == "" {
		c.Pipeline.Prefix = defaultPrefix
	}
	if c.Pipeline.ProgressTimeout == 0 {
		c.Pipeline.ProgressTimeout = defaultProgressTimeout
	}
	if c.Pipeline.ProbeCacheSize <= 0 {
		c.Pipeline.ProbeCacheSize = defaultProbeCacheSize
	}
	c.Split.MaxSize = strings.TrimSpace(c.Split.MaxSize)
	c.Split.PlatformLimit = strings.TrimSpace(c.Split.PlatformLimit)
	c.Split.SafetyMargin = strings.TrimSpace(c.Split.SafetyMargin)
}

func (c *Config) normalizeConvert() {
	c.Convert.VideoCodec = strings.TrimSpace(c.Convert.VideoCodec)
	c.Convert.Preset = strings.TrimSpace(c.Convert.Preset)
	c.Convert.AudioCodec = strings.TrimSpace(c.Convert.AudioCodec)
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
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
