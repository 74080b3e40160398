package split

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// BufferSeconds separates equal parts and overlaps size-bounded parts.
	BufferSeconds = 3.0
	// MinTailSeconds is the longest trailing part that is discarded.
	MinTailSeconds = 3.0
	// DefaultSafetyMargin is subtracted from the upload ceiling.
	DefaultSafetyMargin int64 = 3 << 20
	// minSplitSize is the smallest -fs value worth retrying with.
	minSplitSize int64 = 1 << 20
	// minOverageBuffer is the least a limit shrinks by after an overshoot.
	minOverageBuffer int64 = 5 << 20
)

// Segment is one equal-parts extraction window in seconds.
type Segment struct {
	Start    float64
	Duration float64
}

// End returns the segment's end time.
func (s Segment) End() float64 {
	return s.Start + s.Duration
}

// Plan divides total seconds into n segments. Each segment is the per-part
// duration plus the buffer; the last one runs to the true end.
func Plan(total float64, n int) ([]Segment, error) {
	if n < 1 {
		return nil, fmt.Errorf("parts must be at least 1, got %d", n)
	}
	if total <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", total)
	}
	if n == 1 {
		return []Segment{{Start: 0, Duration: total}}, nil
	}
	perPart := total/float64(n) - BufferSeconds
	if perPart <= 0 {
		return nil, fmt.Errorf("%d parts leave no room in %.0fs of media", n, total)
	}
	step := perPart + BufferSeconds
	segments := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * step
		duration := step
		if i == n-1 {
			duration = total - start
		}
		segments = append(segments, Segment{Start: start, Duration: duration})
	}
	return segments, nil
}

// SizeOptions bound size-constrained splitting. Zero MaxSize means only the
// platform limit applies.
type SizeOptions struct {
	MaxSize       int64
	PlatformLimit int64
	SafetyMargin  int64
}

// Ceiling returns the largest part size allowed.
func (o SizeOptions) Ceiling() int64 {
	limit := o.PlatformLimit
	if o.MaxSize > 0 && (limit <= 0 || o.MaxSize < limit) {
		limit = o.MaxSize
	}
	if limit <= 0 {
		return 0
	}
	margin := o.SafetyMargin
	if margin <= 0 {
		margin = DefaultSafetyMargin
	}
	return limit - margin
}

// shrink returns the next -fs value after a part overshot the ceiling.
func shrink(splitSize, overage int64) int64 {
	return splitSize - (overage + max(minOverageBuffer, overage/20))
}

// PartName returns `<dir>/<stem>.partNNN<ext>` for 1-based index.
func PartName(input string, index int) string {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	return fmt.Sprintf("%s.part%03d%s", stem, index, ext)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
