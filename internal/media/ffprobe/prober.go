package ffprobe

import (
	"context"
	"fmt"
	"math"
	"os"

	"ffloom/internal/cache"
)

// CacheKey identifies one version of a file on disk.
type CacheKey struct {
	Path    string
	ModTime int64
	Size    int64
}

// InspectFunc matches Inspect and allows tests to substitute canned results.
type InspectFunc func(ctx context.Context, binary, path string) (Result, error)

// Prober runs ffprobe and memoises results per file version.
type Prober struct {
	binary  string
	cache   *cache.BoundedCache[CacheKey, Result]
	inspect InspectFunc
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithInspector replaces the ffprobe invocation.
func WithInspector(fn InspectFunc) ProberOption {
	return func(p *Prober) {
		if fn != nil {
			p.inspect = fn
		}
	}
}

// NewProber constructs a Prober. A nil cache disables memoisation.
func NewProber(binary string, c *cache.BoundedCache[CacheKey, Result], opts ...ProberOption) *Prober {
	p := &Prober{binary: binary, cache: c, inspect: Inspect}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe returns metadata for path, reusing a cached result while the file's
// modification time and size are unchanged.
func (p *Prober) Probe(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe stat: %w", err)
	}
	key := CacheKey{Path: path, ModTime: info.ModTime().UnixNano(), Size: info.Size()}
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			return cached, nil
		}
	}
	result, err := p.inspect(ctx, p.binary, path)
	if err != nil {
		return Result{}, err
	}
	if p.cache != nil {
		p.cache.Put(key, result)
	}
	return result, nil
}

// Duration returns the container duration of path in seconds. Unparseable
// durations are reported as 0.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration < 0 {
		return 0, nil
	}
	return duration, nil
}

// Seconds is Duration with probe errors folded into zero, for progress
// estimates that can do without a total.
func (p *Prober) Seconds(ctx context.Context, path string) float64 {
	d, err := p.Duration(ctx, path)
	if err != nil {
		return 0
	}
	return d
}
