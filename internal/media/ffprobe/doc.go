// Package ffprobe decodes ffprobe's JSON report and memoises it per file
// version through Prober.
package ffprobe
