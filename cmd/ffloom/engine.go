package main

import (
	"log/slog"

	"ffloom/internal/cache"
	"ffloom/internal/command"
	"ffloom/internal/config"
	"ffloom/internal/convert"
	"ffloom/internal/media/ffprobe"
	"ffloom/internal/pipeline"
	"ffloom/internal/preview"
	"ffloom/internal/progress"
	"ffloom/internal/split"
)

type engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	prober    *ffprobe.Prober
	resolver  *command.Resolver
	executor  *pipeline.Executor
	machine   *convert.Machine
	splitter  *split.Splitter
	generator *preview.Generator
}

func newEngine(cfg *config.Config, logger *slog.Logger) *engine {
	probeCache := cache.New[ffprobe.CacheKey, ffprobe.Result](cfg.Pipeline.ProbeCacheSize)
	prober := ffprobe.NewProber(cfg.Tools.FFprobe, probeCache)

	monitor := progress.NewMonitor(
		progress.WithStallTimeout(cfg.ProgressTimeout()),
		progress.WithLogger(logger),
	)
	executor := pipeline.NewExecutor(
		pipeline.WithFFmpeg(cfg.Tools.FFmpeg),
		pipeline.WithTool("7z", cfg.Tools.SevenZip),
		pipeline.WithTool("soffice", cfg.Tools.Soffice),
		pipeline.WithMonitor(monitor),
		pipeline.WithDurationProbe(prober.Seconds),
		pipeline.WithLogger(logger),
	)

	return &engine{
		cfg:      cfg,
		logger:   logger,
		prober:   prober,
		resolver: command.NewResolver(command.WithPrefix(cfg.Pipeline.Prefix), command.WithLogger(logger)),
		executor: executor,
		machine: convert.NewMachine(executor,
			convert.WithThreads(cfg.Pipeline.Threads),
			convert.WithLogger(logger),
		),
		splitter:  split.NewSplitter(executor, prober, split.WithLogger(logger)),
		generator: preview.NewGenerator(executor, prober, logger),
	}
}

// convertSettings returns the configured encoder settings.
func (e *engine) convertSettings() convert.Settings {
	return convert.Settings{
		VideoCodec: e.cfg.Convert.VideoCodec,
		CRF:        e.cfg.Convert.CRF,
		Preset:     e.cfg.Convert.Preset,
		AudioCodec: e.cfg.Convert.AudioCodec,
	}
}
