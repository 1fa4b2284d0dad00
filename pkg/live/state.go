package live

import "sync/atomic"

// ConnState is where a live session sits in its lifecycle.
type ConnState int32

// Session states, in lifecycle order.
const (
	// StateDisconnected means no gateway connection exists.
	StateDisconnected ConnState = iota
	// StateAuthenticating means the connection is up and the handshake is in
	// progress.
	StateAuthenticating
	// StateReady means the session is authenticated and accepting
	// subscriptions.
	StateReady
	// StateStreaming means the record stream has started.
	StateStreaming
	// StateClosed means the session has been closed locally.
	StateClosed
)

// String returns the string representation of the session state.
func (s ConnState) String() string {
	return [...]string{
		"disconnected",
		"authenticating",
		"ready",
		"streaming",
		"closed",
	}[s]
}

// state provides thread-safe atomic access to a ConnState value.
type state struct {
	v atomic.Int32
}

// Load returns the current session state.
func (s *state) Load() ConnState {
	return ConnState(s.v.Load())
}

// Store sets the session state to the given value.
func (s *state) Store(st ConnState) {
	s.v.Store(int32(st))
}

// CompareAndSwap atomically compares the current state with old and swaps to
// new if equal. It returns true if the swap was performed.
func (s *state) CompareAndSwap(old, new ConnState) bool {
	return s.v.CompareAndSwap(int32(old), int32(new))
}
