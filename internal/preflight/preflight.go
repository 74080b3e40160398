package preflight

import (
	"context"

	"ffloom/internal/config"
	"ffloom/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}

// CheckSystemDeps evaluates the executables named in the [tools] section.
// FFmpeg and FFprobe are required; 7-Zip and LibreOffice only matter for
// archive and document conversions.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for every pipeline",
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Required for duration and stream inspection",
			VersionArg:  "-version",
		},
		{
			Name:        "7-Zip",
			Command:     cfg.Tools.SevenZip,
			Description: "Archive conversions",
			Optional:    true,
		},
		{
			Name:        "LibreOffice",
			Command:     cfg.Tools.Soffice,
			Description: "Document conversions",
			Optional:    true,
			VersionArg:  "--version",
		},
	})
}
