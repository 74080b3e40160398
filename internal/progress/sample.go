package progress

import "math"

// logBucketPercent is the width of the percent buckets debug ticks are
// thinned to.
const logBucketPercent = 5

// tickSampler passes the first tick of each percent bucket. A tick with an
// unknown percent passes only if nothing has passed yet.
type tickSampler struct {
	width  float64
	last   int
	passed bool
}

func newTickSampler(width float64) *tickSampler {
	if width <= 0 {
		width = logBucketPercent
	}
	return &tickSampler{width: width, last: -1}
}

func (s *tickSampler) allow(percent float64) bool {
	if percent < 0 || math.IsNaN(percent) {
		if s.passed {
			return false
		}
		s.passed = true
		return true
	}
	bucket := int(math.Min(percent, 100) / s.width)
	if bucket <= s.last {
		return false
	}
	s.last = bucket
	s.passed = true
	return true
}
