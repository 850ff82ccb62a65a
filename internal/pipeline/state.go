package pipeline

import "fmt"

// State is a pipeline state. Transitions are strictly linear:
// Init → ConfigResolved → Built → (Compiled) → Done, with Failed reachable
// from any non-terminal state.
type State string

const (
	StateInit           State = "Init"
	StateConfigResolved State = "ConfigResolved"
	StateBuilt          State = "Built"
	StateCompiled       State = "Compiled"
	StateDone           State = "Done"
	StateFailed         State = "Failed"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

var transitions = map[State][]State{
	StateInit:           {StateConfigResolved},
	StateConfigResolved: {StateBuilt},
	StateBuilt:          {StateCompiled, StateDone},
	StateCompiled:       {StateDone},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine tracks the current state of one run.
type machine struct {
	state State
}

func (m *machine) move(to State) (State, error) {
	from := m.state
	if !CanTransition(from, to) {
		return from, fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	m.state = to
	return from, nil
}
