// internal/pipeline/state.go
package pipeline

import "fmt"

// State is a position in the replicate state machine.
type State string

const (
	StateStart              State = "START"
	StateRateLoaded         State = "RATE_LOADED"
	StateGenealogySimulated State = "GENEALOGY_SIMULATED"
	StateMutationsApplied   State = "MUTATIONS_APPLIED"
	StateStatsComputed      State = "STATS_COMPUTED"
	StateOutputsWritten     State = "OUTPUTS_WRITTEN"
	StateFailed             State = "FAILED"
)

var successor = map[State]State{
	StateStart:              StateRateLoaded,
	StateRateLoaded:         StateGenealogySimulated,
	StateGenealogySimulated: StateMutationsApplied,
	StateMutationsApplied:   StateStatsComputed,
	StateStatsComputed:      StateOutputsWritten,
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s State) bool { return s == StateOutputsWritten || s == StateFailed }

// Next is the single successful successor of s.
func Next(s State) (State, bool) {
	n, ok := successor[s]
	return n, ok
}

// Transition validates from -> to: either the sequential successor, or FAILED
// from any non-terminal state.
func Transition(from, to State) error {
	if IsTerminal(from) {
		return fmt.Errorf("no transition out of terminal state %s", from)
	}
	if to == StateFailed {
		return nil
	}
	if n, ok := successor[from]; ok && n == to {
		return nil
	}
	return fmt.Errorf("disallowed transition %s -> %s", from, to)
}

// StepError is a failure while leaving state From.
type StepError struct {
	From State
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("after %s: %v", e.From, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }
