package pipeline

import "testing"

func TestTransitionsAreSequential(t *testing.T) {
	order := []State{StateStart, StateRateLoaded, StateGenealogySimulated, StateMutationsApplied, StateStatsComputed, StateOutputsWritten}
	for i := 0; i+1 < len(order); i++ {
		if err := Transition(order[i], order[i+1]); err != nil {
			t.Fatalf("%s -> %s: %v", order[i], order[i+1], err)
		}
		if err := Transition(order[i], StateFailed); err != nil {
			t.Fatalf("%s -> FAILED: %v", order[i], err)
		}
		if i+2 < len(order) {
			if err := Transition(order[i], order[i+2]); err == nil {
				t.Fatalf("%s -> %s should be rejected", order[i], order[i+2])
			}
		}
	}
	for _, s := range []State{StateOutputsWritten, StateFailed} {
		if !IsTerminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
		if err := Transition(s, StateFailed); err == nil {
			t.Fatalf("%s must have no outgoing transition", s)
		}
	}
	if err := Transition(StateRateLoaded, StateStart); err == nil {
		t.Fatalf("backwards transition accepted")
	}
}

func TestDrawSeedRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if s := DrawSeed(); s >= SeedRange {
			t.Fatalf("seed %d out of range", s)
		}
	}
}

func TestNextWalksToOutputsWritten(t *testing.T) {
	var got []State
	for s, ok := StateStart, true; ok; s, ok = Next(s) {
		got = append(got, s)
	}
	want := []State{StateStart, StateRateLoaded, StateGenealogySimulated, StateMutationsApplied, StateStatsComputed, StateOutputsWritten}
	if len(got) != len(want) {
		t.Fatalf("walk=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk=%v", got)
		}
	}
	if _, ok := Next(StateFailed); ok {
		t.Fatalf("FAILED must have no successor")
	}
}
