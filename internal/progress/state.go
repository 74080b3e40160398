package progress

import (
	"math"
	"sync"
	"time"
)

// MaxRunningPercent is the ceiling reported while a process is still running.
const MaxRunningPercent = 99.9

// MinSpeedFactor floors the encoder x-factor so ETA never divides by zero.
const MinSpeedFactor = 0.1

// Snapshot is a consistent copy of the counters.
type Snapshot struct {
	ProcessedBytes   int64
	ProcessedSeconds float64
	TotalSeconds     float64
	ExpectedBytes    int64
	BytesPerSecond   float64
	SpeedFactor      float64
	BitrateKbps      float64
	Percent          float64
	ETA              time.Duration
	Elapsed          time.Duration
	Done             bool
}

// State holds progress counters for one operation. The zero value is ready
// to use; Clear must be called before each new operation.
type State struct {
	mu sync.Mutex

	now     func() time.Time
	started time.Time

	processedBytes   int64
	processedSeconds float64
	totalSeconds     float64
	expectedBytes    int64
	bytesPerSecond   float64
	speedFactor      float64
	bitrateKbps      float64
	percent          float64
	eta              time.Duration
	done             bool

	carryBytes   int64
	carrySeconds float64
}

// NewState returns a cleared State.
func NewState() *State {
	s := &State{}
	s.Clear()
	return s
}

// WithClock overrides the wall clock used for byte speed. Intended for tests.
func (s *State) WithClock(now func() time.Time) *State {
	s.mu.Lock()
	s.now = now
	s.started = now()
	s.mu.Unlock()
	return s
}

// Clear resets every counter, including carry-over, and restarts the wall
// clock. Total duration and expected size are cleared too.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = s.clock()
	s.processedBytes = 0
	s.processedSeconds = 0
	s.totalSeconds = 0
	s.expectedBytes = 0
	s.bytesPerSecond = 0
	s.speedFactor = 1
	s.bitrateKbps = 0
	s.percent = 0
	s.eta = 0
	s.done = false
	s.carryBytes = 0
	s.carrySeconds = 0
}

// SetTotal records the media duration the current operation covers.
func (s *State) SetTotal(seconds float64) {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s.mu.Lock()
	s.totalSeconds = seconds
	s.mu.Unlock()
}

// Total returns the recorded media duration in seconds.
func (s *State) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSeconds
}

// SetExpectedSize records the byte target used to blend estimates.
func (s *State) SetExpectedSize(bytes int64) {
	if bytes < 0 {
		bytes = 0
	}
	s.mu.Lock()
	s.expectedBytes = bytes
	s.mu.Unlock()
}

// Commit folds a finished segment into the carry-over counters so the next
// process reports cumulative progress.
func (s *State) Commit(bytes int64, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes > 0 {
		s.carryBytes += bytes
	}
	if seconds > 0 {
		s.carrySeconds += seconds
	}
	s.processedBytes = s.carryBytes
	s.processedSeconds = s.carrySeconds
}

// Finish marks the operation complete at 100%.
func (s *State) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percent = 100
	s.eta = 0
	s.done = true
}

// Snapshot returns a copy of the current counters.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ProcessedBytes:   s.processedBytes,
		ProcessedSeconds: s.processedSeconds,
		TotalSeconds:     s.totalSeconds,
		ExpectedBytes:    s.expectedBytes,
		BytesPerSecond:   s.bytesPerSecond,
		SpeedFactor:      s.speedFactor,
		BitrateKbps:      s.bitrateKbps,
		Percent:          s.percent,
		ETA:              s.eta,
		Elapsed:          s.clock().Sub(s.started),
		Done:             s.done,
	}
}

func (s *State) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *State) setBytes(value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processedBytes = value + s.carryBytes
	if elapsed := s.clock().Sub(s.started).Seconds(); elapsed > 0 {
		s.bytesPerSecond = float64(s.processedBytes) / elapsed
	}
	s.recompute()
}

func (s *State) setTime(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processedSeconds = seconds + s.carrySeconds
	s.recompute()
}

func (s *State) setSpeed(factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speedFactor = math.Max(MinSpeedFactor, factor)
	s.recompute()
}

func (s *State) setBitrate(kbps float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bitrateKbps = kbps
	s.recompute()
}

// recompute derives percent and ETA. Callers hold mu.
func (s *State) recompute() {
	if s.done {
		return
	}
	timePercent, timeETA, haveTime := s.timeEstimate()
	bytePercent, byteETA, haveBytes := s.byteEstimate()

	switch {
	case haveTime && haveBytes:
		s.percent = math.Min(MaxRunningPercent, (timePercent+bytePercent)/2)
		s.eta = (timeETA + byteETA) / 2
	case haveTime:
		s.percent = math.Min(MaxRunningPercent, timePercent)
		s.eta = timeETA
	case haveBytes:
		s.percent = math.Min(MaxRunningPercent, bytePercent)
		s.eta = byteETA
	}
}

func (s *State) timeEstimate() (float64, time.Duration, bool) {
	if s.totalSeconds <= 0 {
		return 0, 0, false
	}
	percent := s.processedSeconds / s.totalSeconds * 100
	remaining := math.Max(0, s.totalSeconds-s.processedSeconds)
	eta := secondsToDuration(remaining / s.factor())
	return percent, eta, true
}

// byteEstimate only applies when a byte target is known and ffmpeg has
// reported a bitrate.
func (s *State) byteEstimate() (float64, time.Duration, bool) {
	if s.expectedBytes <= 0 || s.bitrateKbps <= 0 {
		return 0, 0, false
	}
	percent := float64(s.processedBytes) / float64(s.expectedBytes) * 100
	remaining := math.Max(0, float64(s.expectedBytes-s.processedBytes))
	bytesPerMediaSecond := s.bitrateKbps * 1000 / 8
	eta := secondsToDuration(remaining / (bytesPerMediaSecond * s.factor()))
	return percent, eta, true
}

func (s *State) factor() float64 {
	if s.speedFactor < MinSpeedFactor {
		return MinSpeedFactor
	}
	return s.speedFactor
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
