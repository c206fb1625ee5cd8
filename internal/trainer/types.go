package trainer

import (
	"fmt"
	"time"
)

// NumSlots is the maximum number of concurrently connected trainers.
const NumSlots = 4

// Slot identifies one of the logical trainer positions (0-3). Each slot is
// bound to one endpoint and one controller axis for the process lifetime.
type Slot int

// Valid reports whether the slot index is in range.
func (s Slot) Valid() bool {
	return s >= 0 && s < NumSlots
}

// String returns the slot as "slot0".."slot3".
func (s Slot) String() string {
	return fmt.Sprintf("slot%d", int(s))
}

// Sample is one decoded speed reading from a trainer.
//
// Samples are copied between goroutines, never shared: the session stores a
// fresh value per notification and readers receive copies.
type Sample struct {
	// Slot is the logical position the sample arrived on.
	Slot Slot

	// Speed is the instantaneous speed in km/h.
	Speed float64

	// At is when the sample was decoded (monotonic-clock bearing).
	At time.Time
}

// State is a session's lifecycle state. Exactly one authoritative state
// exists per slot, written only by that slot's session.
type State int

// Session lifecycle states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateStreaming
	StateFaulted
)

// String returns the lowercase state name used in logs and status payloads.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateStreaming:
		return "streaming"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Status is a point-in-time view of one session, safe to retain.
type Status struct {
	// Slot is the session's logical position.
	Slot Slot

	// State is the current lifecycle state.
	State State

	// Reason describes the most recent fault ("" if none since streaming).
	Reason string

	// Endpoint is the resolved transport endpoint ("" before first connect).
	Endpoint string

	// Sample is a copy of the latest decoded sample, nil if none yet.
	Sample *Sample

	// Counters since process start.
	FramesRx   uint64
	Samples    uint64
	Drops      uint64
	Reconnects uint64

	// LastActivity is the time of the last received frame.
	LastActivity time.Time
}

// Logger is the minimal logging interface the package depends on.
// Satisfied by logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
