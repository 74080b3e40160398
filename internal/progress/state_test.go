package progress

import (
	"math"
	"testing"
	"time"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	current := start
	return func() time.Time { return current }, func(d time.Duration) { current = current.Add(d) }
}

func TestTimeOnlyPercentIsExact(t *testing.T) {
	state := NewState()
	state.SetTotal(180)
	seconds, ok := ParseTimestamp("00:01:30.50")
	if !ok {
		t.Fatal("expected timestamp to parse")
	}
	state.setTime(seconds)

	snap := state.Snapshot()
	if snap.Percent != 50.0 {
		t.Fatalf("expected exactly 50%%, got %v", snap.Percent)
	}
	if snap.ETA != 90*time.Second {
		t.Fatalf("expected 90s ETA at 1x, got %v", snap.ETA)
	}
}

func TestSpeedFactorFloorsETA(t *testing.T) {
	state := NewState()
	state.SetTotal(100)
	state.setSpeed(0)
	state.setTime(90)

	snap := state.Snapshot()
	if snap.SpeedFactor != MinSpeedFactor {
		t.Fatalf("expected speed factor floor, got %v", snap.SpeedFactor)
	}
	if diff := snap.ETA - 100*time.Second; diff > time.Millisecond || diff < -time.Millisecond {
		t.Fatalf("expected 10s remaining at 0.1x = 100s, got %v", snap.ETA)
	}
}

func TestBlendedEstimateCapped(t *testing.T) {
	state := NewState()
	state.SetTotal(100)
	state.SetExpectedSize(1000)
	state.setBitrate(8)
	state.setTime(100)
	state.setBytes(1000)

	snap := state.Snapshot()
	if snap.Percent != MaxRunningPercent {
		t.Fatalf("expected cap at %v, got %v", MaxRunningPercent, snap.Percent)
	}
	state.Finish()
	if got := state.Snapshot().Percent; got != 100 {
		t.Fatalf("expected 100%% after finish, got %v", got)
	}
}

func TestBlendedEstimateAverages(t *testing.T) {
	state := NewState()
	state.SetTotal(100)
	state.SetExpectedSize(1000)
	state.setSpeed(2)
	state.setBitrate(8) // 1000 bytes per media second
	state.setTime(20)
	state.setBytes(600)

	snap := state.Snapshot()
	if math.Abs(snap.Percent-40) > 1e-9 {
		t.Fatalf("expected mean of 20%% and 60%%, got %v", snap.Percent)
	}
	// time ETA: 80s / 2 = 40s; byte ETA: 400 / (1000*2) = 0.2s
	want := (40*time.Second + 200*time.Millisecond) / 2
	if snap.ETA != want {
		t.Fatalf("expected ETA %v, got %v", want, snap.ETA)
	}
}

func TestBitrateIgnoredWithoutExpectedSize(t *testing.T) {
	state := NewState()
	state.SetTotal(200)
	state.setBitrate(5000)
	state.setBytes(1 << 20)
	state.setTime(50)
	if got := state.Snapshot().Percent; got != 25 {
		t.Fatalf("expected time-only percent 25, got %v", got)
	}
}

func TestBytesSpeedUsesWallClock(t *testing.T) {
	now, advance := fixedClock(time.Unix(1_700_000_000, 0))
	state := NewState().WithClock(now)
	advance(4 * time.Second)
	state.setBytes(4000)

	snap := state.Snapshot()
	if snap.BytesPerSecond != 1000 {
		t.Fatalf("expected 1000 B/s, got %v", snap.BytesPerSecond)
	}
	if snap.Elapsed != 4*time.Second {
		t.Fatalf("expected 4s elapsed, got %v", snap.Elapsed)
	}
}

func TestCommitCarriesAcrossSegments(t *testing.T) {
	state := NewState()
	state.SetTotal(300)
	state.setTime(100)
	state.setBytes(500)
	state.Commit(500, 100)

	state.setTime(50)
	state.setBytes(200)
	snap := state.Snapshot()
	if snap.ProcessedSeconds != 150 {
		t.Fatalf("expected carried seconds 150, got %v", snap.ProcessedSeconds)
	}
	if snap.ProcessedBytes != 700 {
		t.Fatalf("expected carried bytes 700, got %v", snap.ProcessedBytes)
	}
	if snap.Percent != 50 {
		t.Fatalf("expected 50%%, got %v", snap.Percent)
	}

	state.Clear()
	snap = state.Snapshot()
	if snap.ProcessedSeconds != 0 || snap.ProcessedBytes != 0 || snap.TotalSeconds != 0 {
		t.Fatalf("expected clear to reset counters, got %#v", snap)
	}
}
