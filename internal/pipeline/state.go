package pipeline

import "fmt"

// State is a step of a [Builder] run.
type State int32

// Builder run states, in order. Any state may move to StateFailed.
const (
	StateInit State = iota
	StateReading
	StateAssembling
	StateMinifying
	StateWriting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInit:       "INIT",
	StateReading:    "READING",
	StateAssembling: "ASSEMBLING",
	StateMinifying:  "MINIFYING",
	StateWriting:    "WRITING",
	StateDone:       "DONE",
	StateFailed:     "FAILED",
}

// String satisfies [fmt.Stringer].
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
