package decodethread

import (
	"fmt"
)

type State int32

const (
	StateUnstarted = State(iota)
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown_state_%d", int32(s))
	}
}
