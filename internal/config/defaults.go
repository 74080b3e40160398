package config

const (
	defaultConfigPath       = "~/.config/ffloom/config.toml"
	defaultStateDir         = "~/.local/share/ffloom"
	defaultLogDir           = "~/.local/share/ffloom/logs"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultFFmpeg           = "ffmpeg"
	defaultFFprobe          = "ffprobe"
	defaultSevenZip         = "7z"
	defaultSoffice          = "soffice"
	defaultPrefix           = "mltb"
	defaultProgressTimeout  = 60
	defaultProbeCacheSize   = 256
	defaultPlatformLimit    = "2 GiB"
	defaultSafetyMargin     = "3 MiB"
	defaultSampleDuration   = 60
	defaultSamplePart       = 4
	defaultScreenshots      = 10
)

// Default returns a Config populated with defaults. Tool paths stay empty so
// normalize can apply environment overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Pipeline: Pipeline{
			Prefix:          defaultPrefix,
			ProgressTimeout: defaultProgressTimeout,
			ProbeCacheSize:  defaultProbeCacheSize,
		},
		Split: Split{
			PlatformLimit: defaultPlatformLimit,
			SafetyMargin:  defaultSafetyMargin,
		},
		Preview: Preview{
			SampleDuration: defaultSampleDuration,
			SamplePart:     defaultSamplePart,
			Screenshots:    defaultScreenshots,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
