package prometheus

import (
	"time"

	"bank-console/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements metrics.Collector for Prometheus.
type PrometheusCollector struct {
	namespace string

	// Data loaders
	loads       *prometheus.CounterVec
	loadLatency *prometheus.HistogramVec

	// Action dispatcher
	actions       *prometheus.CounterVec
	actionLatency *prometheus.HistogramVec

	// Backend circuit breaker
	circuitOpens *prometheus.CounterVec
	circuitState *prometheus.GaugeVec

	// Sessions
	activeSessions prometheus.Gauge
	droppedEvents  prometheus.Counter
}

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		namespace: namespace,
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Total number of data loader invocations per resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		loadLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Backend read latency per resource",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"resource"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total number of dispatched actions per action and outcome",
			},
			[]string{"action", "outcome"},
		),
		actionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Backend write latency per action",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"action"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Total number of circuit breaker opens per breaker",
			},
			[]string{"breaker"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Current circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"breaker"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of live console sessions",
			},
		),
		droppedEvents: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_events_total",
				Help:      "Total number of session loop events dropped due to backpressure",
			},
		),
	}
}

// Register registers all metrics with the given Prometheus registerer.
func (pc *PrometheusCollector) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.loads,
		pc.loadLatency,
		pc.actions,
		pc.actionLatency,
		pc.circuitOpens,
		pc.circuitState,
		pc.activeSessions,
		pc.droppedEvents,
	}

	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordLoad records a data loader invocation.
func (pc *PrometheusCollector) RecordLoad(resource string, outcome metrics.LoadOutcome, duration time.Duration) {
	pc.loads.WithLabelValues(resource, string(outcome)).Inc()
	if outcome != metrics.LoadDiscarded {
		pc.loadLatency.WithLabelValues(resource).Observe(duration.Seconds())
	}
}

// RecordAction records a settled or refused action.
func (pc *PrometheusCollector) RecordAction(action string, outcome metrics.ActionOutcome, duration time.Duration) {
	pc.actions.WithLabelValues(action, string(outcome)).Inc()
	if duration > 0 {
		pc.actionLatency.WithLabelValues(action).Observe(duration.Seconds())
	}
}

// RecordCircuitState records the current circuit breaker state.
func (pc *PrometheusCollector) RecordCircuitState(name string, state metrics.CircuitState) {
	pc.circuitState.WithLabelValues(name).Set(float64(state))
	if state == metrics.CircuitOpen {
		pc.circuitOpens.WithLabelValues(name).Inc()
	}
}

// RecordActiveSessions records the number of live sessions.
func (pc *PrometheusCollector) RecordActiveSessions(count int) {
	pc.activeSessions.Set(float64(count))
}

// RecordEventDropped records a session loop event dropped due to backpressure.
func (pc *PrometheusCollector) RecordEventDropped() {
	pc.droppedEvents.Inc()
}
