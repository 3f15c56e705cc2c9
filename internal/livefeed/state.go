package livefeed

import (
	"fmt"
	"slices"
)

// State is the lifecycle state of a Feed connection.
type State int

const (
	// StateConnecting is the first dial, before any frame has arrived.
	StateConnecting State = iota
	// StateOpen means the socket is up and being read.
	StateOpen
	// StateReconnecting covers the backoff wait and the redial after a drop or a failed dial.
	StateReconnecting
	// StateClosed is terminal: the owner closed the feed or reconnection gave up.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

var validStateTransitions = map[State][]State{
	StateConnecting:   {StateOpen, StateReconnecting, StateClosed},
	StateOpen:         {StateReconnecting, StateClosed},
	StateReconnecting: {StateOpen, StateClosed},
	StateClosed:       {},
}

func isValidTransition(from, to State) bool {
	if from == to {
		return true
	}
	allowed, ok := validStateTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}
