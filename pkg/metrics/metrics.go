package metrics

import (
	"time"
)

// Collector defines the interface for collecting console metrics.
// Implementations can export metrics to various backends (Prometheus, in-memory, etc.).
type Collector interface {
	// Data loaders
	RecordLoad(resource string, outcome LoadOutcome, duration time.Duration)

	// Action dispatcher
	RecordAction(action string, outcome ActionOutcome, duration time.Duration)

	// Backend circuit breaker
	RecordCircuitState(name string, state CircuitState)

	// Sessions and their event loops
	RecordActiveSessions(count int)
	RecordEventDropped()
}

// LoadOutcome is the result of one data loader invocation.
type LoadOutcome string

const (
	// LoadRendered means the response was applied to the view state.
	LoadRendered LoadOutcome = "rendered"
	// LoadFailed means a transport or application failure left the previous render in place.
	LoadFailed LoadOutcome = "failed"
	// LoadDiscarded means a newer request for the same resource superseded the response.
	LoadDiscarded LoadOutcome = "discarded"
)

// ActionOutcome is the settled result of one dispatched action.
type ActionOutcome string

const (
	ActionSuccess        ActionOutcome = "success"
	ActionError          ActionOutcome = "error"
	ActionTransportError ActionOutcome = "transport_error"
	// ActionRejected covers submits refused before any network call (pending guard, replay, validation).
	ActionRejected ActionOutcome = "rejected"
	ActionDeclined ActionOutcome = "declined"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed means the circuit breaker is allowing requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the circuit breaker is blocking requests.
	CircuitOpen
	// CircuitHalfOpen means the circuit breaker is testing if the backend has recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector is a no-op implementation of Collector.
// It's used as the default collector when metrics are not needed.
type NoOpCollector struct{}

// RecordLoad does nothing.
func (NoOpCollector) RecordLoad(resource string, outcome LoadOutcome, duration time.Duration) {}

// RecordAction does nothing.
func (NoOpCollector) RecordAction(action string, outcome ActionOutcome, duration time.Duration) {}

// RecordCircuitState does nothing.
func (NoOpCollector) RecordCircuitState(name string, state CircuitState) {}

// RecordActiveSessions does nothing.
func (NoOpCollector) RecordActiveSessions(count int) {}

// RecordEventDropped does nothing.
func (NoOpCollector) RecordEventDropped() {}
