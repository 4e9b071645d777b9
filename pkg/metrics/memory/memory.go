package memory

import (
	"sync"
	"time"

	"bank-console/pkg/metrics"
)

// MemoryCollector implements metrics.Collector for in-memory testing.
type MemoryCollector struct {
	mu sync.RWMutex

	loads   map[string]map[metrics.LoadOutcome]int64
	actions map[string]map[metrics.ActionOutcome]int64

	circuitStates map[string]metrics.CircuitState
	circuitOpens  map[string]int64

	activeSessions int
	droppedEvents  int64
}

// NewMemoryCollector creates a new in-memory metrics collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		loads:         make(map[string]map[metrics.LoadOutcome]int64),
		actions:       make(map[string]map[metrics.ActionOutcome]int64),
		circuitStates: make(map[string]metrics.CircuitState),
		circuitOpens:  make(map[string]int64),
	}
}

// RecordLoad records a data loader invocation.
func (mc *MemoryCollector) RecordLoad(resource string, outcome metrics.LoadOutcome, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.loads[resource] == nil {
		mc.loads[resource] = make(map[metrics.LoadOutcome]int64)
	}
	mc.loads[resource][outcome]++
}

// RecordAction records a settled or refused action.
func (mc *MemoryCollector) RecordAction(action string, outcome metrics.ActionOutcome, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.actions[action] == nil {
		mc.actions[action] = make(map[metrics.ActionOutcome]int64)
	}
	mc.actions[action][outcome]++
}

// RecordCircuitState records the current circuit breaker state.
func (mc *MemoryCollector) RecordCircuitState(name string, state metrics.CircuitState) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	old := mc.circuitStates[name]
	mc.circuitStates[name] = state

	// Count transitions to open
	if old != metrics.CircuitOpen && state == metrics.CircuitOpen {
		mc.circuitOpens[name]++
	}
}

// RecordActiveSessions records the number of live sessions.
func (mc *MemoryCollector) RecordActiveSessions(count int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.activeSessions = count
}

// RecordEventDropped records a dropped loop event.
func (mc *MemoryCollector) RecordEventDropped() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.droppedEvents++
}

// Loads returns how many loads of resource ended with outcome.
func (mc *MemoryCollector) Loads(resource string, outcome metrics.LoadOutcome) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.loads[resource][outcome]
}

// Actions returns how many dispatches of action ended with outcome.
func (mc *MemoryCollector) Actions(action string, outcome metrics.ActionOutcome) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.actions[action][outcome]
}

// Snapshot is a copy of the collected metrics.
type Snapshot struct {
	Loads          map[string]map[metrics.LoadOutcome]int64
	Actions        map[string]map[metrics.ActionOutcome]int64
	CircuitStates  map[string]metrics.CircuitState
	CircuitOpens   map[string]int64
	ActiveSessions int
	DroppedEvents  int64
}

// Snapshot returns a copy of the current metrics state.
func (mc *MemoryCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snapshot := Snapshot{
		Loads:          make(map[string]map[metrics.LoadOutcome]int64, len(mc.loads)),
		Actions:        make(map[string]map[metrics.ActionOutcome]int64, len(mc.actions)),
		CircuitStates:  make(map[string]metrics.CircuitState, len(mc.circuitStates)),
		CircuitOpens:   make(map[string]int64, len(mc.circuitOpens)),
		ActiveSessions: mc.activeSessions,
		DroppedEvents:  mc.droppedEvents,
	}

	for resource, outcomes := range mc.loads {
		cp := make(map[metrics.LoadOutcome]int64, len(outcomes))
		for k, v := range outcomes {
			cp[k] = v
		}
		snapshot.Loads[resource] = cp
	}
	for action, outcomes := range mc.actions {
		cp := make(map[metrics.ActionOutcome]int64, len(outcomes))
		for k, v := range outcomes {
			cp[k] = v
		}
		snapshot.Actions[action] = cp
	}
	for k, v := range mc.circuitStates {
		snapshot.CircuitStates[k] = v
	}
	for k, v := range mc.circuitOpens {
		snapshot.CircuitOpens[k] = v
	}

	return snapshot
}

// Reset clears all collected metrics.
func (mc *MemoryCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.loads = make(map[string]map[metrics.LoadOutcome]int64)
	mc.actions = make(map[string]map[metrics.ActionOutcome]int64)
	mc.circuitStates = make(map[string]metrics.CircuitState)
	mc.circuitOpens = make(map[string]int64)
	mc.activeSessions = 0
	mc.droppedEvents = 0
}
