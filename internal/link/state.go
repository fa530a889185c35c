package link

import "shipmap/internal/vessel"

// State of the push channel.
type State int

const (
	Connecting State = iota
	Live
	Degraded // terminal: the session polls snapshots from here on
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Live:
		return "live"
	case Degraded:
		return "degraded"
	}
	return "unknown"
}

// Events posted by the supervisor's goroutines.
type (
	// Connected means the push channel is open; records follow.
	Connected struct{}
	// RecordReceived carries one decoded push message.
	RecordReceived struct{ Record vessel.Record }
	// Failed reports a dial, read or close error on the push channel.
	Failed struct{ Err error }
	// PollTick asks for a snapshot while degraded.
	PollTick struct{}
)
