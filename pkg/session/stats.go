package session

import "errors"

// LoopStats provides statistics about a session loop.
type LoopStats struct {
	// QueueDepth is the number of events waiting to run
	QueueDepth int

	// InFlight is the number of off-loop calls still running
	InFlight int64

	// Timers is the number of delayed events not yet posted
	Timers int64

	// Dropped is the number of events refused because the queue was full
	Dropped int64

	// Total is the number of events accepted
	Total int64

	// Panics is the number of events that panicked
	Panics int64
}

// Errors returned by session operations.
var (
	// ErrQueueFull is returned when the event queue is full and MaxWaitTime exceeded
	ErrQueueFull = errors.New("session: queue full, event dropped")

	// ErrLoopClosed is returned when posting to a closed loop
	ErrLoopClosed = errors.New("session: loop is closed")

	// ErrFlushTimeout is returned when Flush() times out waiting for outstanding work
	ErrFlushTimeout = errors.New("session: flush timeout exceeded")

	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session: not found")

	// ErrNotLoggedIn is returned when the browser carries no backend session cookie
	ErrNotLoggedIn = errors.New("session: no backend session")
)
