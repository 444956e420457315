package term

import "context"

// ReaderState is the state of a Reader.
type ReaderState int

const (
	// ReaderIdle means the reader is not running.
	ReaderIdle ReaderState = iota
	// ReaderRunning means the reader is receiving messages.
	ReaderRunning
	// ReaderStopped means the reader stopped on cancellation.
	ReaderStopped
	// ReaderLost means the reader stopped on a transport error.
	ReaderLost
)

// String implements fmt.Stringer.
func (s ReaderState) String() string {
	switch s {
	case ReaderRunning:
		return "running"
	case ReaderStopped:
		return "stopped"
	case ReaderLost:
		return "lost"
	default:
		return "idle"
	}
}

// StateNotifier is called when the reader state changed.
// err is the transport error for ReaderLost.
type StateNotifier interface {
	StateChanged(ctx context.Context, state ReaderState, err error)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, ReaderState, error)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state ReaderState, err error) {
	f(ctx, state, err)
}
