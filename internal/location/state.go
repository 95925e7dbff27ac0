// File: internal/location/state.go
package location

import "fmt"

// State is a step of the selection state machine.
type State int

const (
	Idle State = iota
	SelectingLevel
	AwaitingPanel
	MatchingOption
	LevelComplete
	Aborted
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SelectingLevel:
		return "selecting_level"
	case AwaitingPanel:
		return "awaiting_panel"
	case MatchingOption:
		return "matching_option"
	case LevelComplete:
		return "level_complete"
	case Aborted:
		return "aborted"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == Aborted || s == Complete }

// Transition is one recorded step. Level is the zero-based cascade level, or
// the position in the independent field order.
type Transition struct {
	Level int
	State State
}

func (t Transition) String() string {
	return fmt.Sprintf("%d:%s", t.Level, t.State)
}

// machine records transitions and rejects moves out of a terminal state.
type machine struct {
	state State
	trace []Transition
}

func (m *machine) to(level int, s State) {
	if m.state.Terminal() {
		panic(fmt.Sprintf("location: transition %s -> %s after terminal state", m.state, s))
	}
	m.state = s
	m.trace = append(m.trace, Transition{Level: level, State: s})
}
