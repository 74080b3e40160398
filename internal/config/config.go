package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Tools names the external executables. Empty values fall back to PATH
// lookups of the conventional names.
type Tools struct {
	FFmpeg   string `toml:"ffmpeg"`
	FFprobe  string `toml:"ffprobe"`
	SevenZip string `toml:"7z"`
	Soffice  string `toml:"soffice"`
}

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Pipeline contains executor and resolver settings.
type Pipeline struct {
	// Prefix is the output placeholder marker in command templates.
	Prefix string `toml:"prefix"`
	// ProgressTimeout is the stall timeout in seconds.
	ProgressTimeout int `toml:"progress_timeout"`
	Threads         int `toml:"threads"`
	ProbeCacheSize  int `toml:"probe_cache_size"`
}

// Split contains size bounds for the splitter. Values are human byte sizes.
type Split struct {
	MaxSize       string `toml:"max_size"`
	PlatformLimit string `toml:"platform_limit"`
	SafetyMargin  string `toml:"safety_margin"`
}

// Convert holds the optional custom encoder settings for conversions.
type Convert struct {
	VideoCodec string `toml:"video_codec"`
	CRF        int    `toml:"crf"`
	Preset     string `toml:"preset"`
	AudioCodec string `toml:"audio_codec"`
}

// Preview contains sample clip and screenshot defaults.
type Preview struct {
	SampleDuration int `toml:"sample_duration"`
	SamplePart     int `toml:"sample_part"`
	Screenshots    int `toml:"screenshots"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for ffloom.
type Config struct {
	Tools    Tools    `toml:"tools"`
	Paths    Paths    `toml:"paths"`
	Pipeline Pipeline `toml:"pipeline"`
	Split    Split    `toml:"split"`
	Convert  Convert  `toml:"convert"`
	Preview  Preview  `toml:"preview"`
	Logging  Logging  `toml:"logging"`
}

// SizeLimits holds the parsed [split] byte values.
type SizeLimits struct {
	MaxSize       int64
	PlatformLimit int64
	SafetyMargin  int64
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. The string is the resolved path and the
// bool reports whether a file existed there.
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

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
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
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("ffloom.toml")
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

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.LockDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the job history database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockDir returns the directory holding per-input lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// ProgressTimeout returns the stall timeout as a duration.
func (c *Config) ProgressTimeout() time.Duration {
	return time.Duration(c.Pipeline.ProgressTimeout) * time.Second
}

// SizeLimits parses the [split] byte sizes.
func (c *Config) SizeLimits() (SizeLimits, error) {
	var out SizeLimits
	var err error
	if out.MaxSize, err = parseSize(c.Split.MaxSize); err != nil {
		return SizeLimits{}, fmt.Errorf("split.max_size: %w", err)
	}
	if out.PlatformLimit, err = parseSize(c.Split.PlatformLimit); err != nil {
		return SizeLimits{}, fmt.Errorf("split.platform_limit: %w", err)
	}
	if out.SafetyMargin, err = parseSize(c.Split.SafetyMargin); err != nil {
		return SizeLimits{}, fmt.Errorf("split.safety_margin: %w", err)
	}
	return out, nil
}

func parseSize(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%q is too large", value)
	}
	return int64(n), nil
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// ErrSampleExists is returned by CreateSample when it would replace a file.
var ErrSampleExists = errors.New("config file already exists")

// CreateSample atomically writes a sample configuration file to path. An
// existing file is left untouched unless overwrite is set.
func CreateSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrSampleExists, path)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := renameio.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
