package colorize

// State is a step of the per-request colorization state machine.
type State int

const (
	StateIdle State = iota
	StateEncoding
	StateInferring
	StateDecoding
	StateDone
	StateCancelled
	StateFailed
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateEncoding:  "encoding",
	StateInferring: "inferring",
	StateDecoding:  "decoding",
	StateDone:      "done",
	StateCancelled: "cancelled",
	StateFailed:    "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Active reports whether a request in this state is still in flight.
func (s State) Active() bool {
	return s == StateEncoding || s == StateInferring || s == StateDecoding
}

// Terminal reports whether the state ends a request.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}
