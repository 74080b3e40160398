package convert

// State is one rung of the fallback ladder, or a terminal state.
type State int

const (
	StateCopy State = iota + 1
	StateFullTranscode
	StateReducedStream
	StateAlternateCodec
	StateFailed
	StateSuccess
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCopy:
		return "copy"
	case StateFullTranscode:
		return "full_transcode"
	case StateReducedStream:
		return "reduced_stream"
	case StateAlternateCodec:
		return "alternate_codec"
	case StateFailed:
		return "failed"
	case StateSuccess:
		return "success"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Attempt records one executed rung.
type Attempt struct {
	Ordinal int
	State   State
	// Output is the path the tool writes for this rung.
	Output  string
	Err     error
}

// Result is the machine's terminal outcome.
type Result struct {
	State    State
	Outputs  []string
	Attempts []Attempt
}

// Visited returns the states attempted, in order.
func (r Result) Visited() []State {
	out := make([]State, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, a.State)
	}
	return out
}
