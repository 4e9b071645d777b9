package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// errServerStatus marks a 5xx response inside the breaker so it counts as
// a failure. The response itself is still returned to the caller.
var errServerStatus = errors.New("resilience: server error status")

// Doer wraps a backend.Doer with a per-call timeout and a circuit breaker.
// Only transport failures and 5xx responses count against the breaker;
// an envelope with success=false is a normal answer.
type Doer struct {
	next    backend.Doer
	cb      *gobreaker.CircuitBreaker
	name    string
	timeout time.Duration
	metrics metrics.Collector
	logger  *logging.Logger
}

// NewDoer creates a resilient wrapper around next.
func NewDoer(next backend.Doer, config Config) *Doer {
	return NewDoerWithMetrics(next, config, metrics.NoOpCollector{})
}

// NewDoerWithMetrics creates a resilient wrapper with a custom metrics collector.
func NewDoerWithMetrics(next backend.Doer, config Config, collector metrics.Collector) *Doer {
	if config.Name == "" {
		config.Name = "backend"
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	logger := logging.L().Named("resilience").Named(config.Name)

	d := &Doer{
		next:    next,
		name:    config.Name,
		timeout: config.Timeout,
		metrics: collector,
		logger:  logger,
	}

	logger.Info("backend breaker initialized",
		zap.Duration("timeout", config.Timeout),
		zap.Uint32("max_requests", config.CircuitBreakerConfig.MaxRequests),
		zap.Duration("circuit_interval", config.CircuitBreakerConfig.Interval),
		zap.Duration("circuit_timeout", config.CircuitBreakerConfig.Timeout),
	)

	cbConfig := config.CircuitBreakerConfig
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: cbConfig.MaxRequests,
		Interval:    cbConfig.Interval,
		Timeout:     cbConfig.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cbConfig.readyToTrip(Counts{
				Requests:             counts.Requests,
				TotalSuccesses:       counts.TotalSuccesses,
				TotalFailures:        counts.TotalFailures,
				ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
				ConsecutiveFailures:  counts.ConsecutiveFailures,
			})
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)

			var state metrics.CircuitState
			switch to {
			case gobreaker.StateClosed:
				state = metrics.CircuitClosed
			case gobreaker.StateHalfOpen:
				state = metrics.CircuitHalfOpen
			case gobreaker.StateOpen:
				state = metrics.CircuitOpen
			}
			d.metrics.RecordCircuitState(name, state)
		},
	}
	d.cb = gobreaker.NewCircuitBreaker(settings)

	return d
}

// Name returns the breaker name.
func (d *Doer) Name() string {
	return d.name
}

// State returns the current breaker state.
func (d *Doer) State() metrics.CircuitState {
	switch d.cb.State() {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}

// Do sends req through the breaker. The timeout stays armed until the
// caller closes the response body.
func (d *Doer) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()
	cancel := context.CancelFunc(func() {})
	if d.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		req = req.WithContext(ctx)
	}

	result, err := d.cb.Execute(func() (interface{}, error) {
		resp, err := d.next.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	if errors.Is(err, errServerStatus) {
		resp := result.(*http.Response)
		d.logger.Warn("backend server error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
		resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}

	if err != nil {
		defer cancel()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			d.logger.Warn("circuit breaker open - request rejected",
				zap.String("path", req.URL.Path),
			)
			return nil, backend.ErrCircuitOpen
		}
		if ctx.Err() == context.DeadlineExceeded {
			d.logger.Warn("backend timeout",
				zap.String("path", req.URL.Path),
				zap.Duration("timeout", d.timeout),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil, fmt.Errorf("%w: %v", backend.ErrTimeout, err)
		}
		d.logger.Error("backend request failed",
			zap.String("path", req.URL.Path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	resp := result.(*http.Response)
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelBody releases the call's timeout when the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
