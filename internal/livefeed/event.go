package livefeed

import "time"

type EventKind int

const (
	EventState EventKind = iota
	EventFrame
	EventMotion
	EventTick
	EventMalformed
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventFrame:
		return "frame"
	case EventMotion:
		return "motion"
	case EventTick:
		return "tick"
	case EventMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Event is one notification from a Feed. Only the fields of its Kind are set.
type Event struct {
	Kind   EventKind
	State  State     // EventState
	Err    error     // EventState (why the feed dropped or closed), EventMalformed
	Frame  []byte    // EventFrame
	Motion bool      // EventMotion: true when the indicator goes to alert, false when it returns to neutral
	Time   time.Time // EventTick
}
