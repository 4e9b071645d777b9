package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"

	"go.uber.org/zap"
)

// Loop serializes every mutation of one session's view state. Events run
// one at a time on a single worker goroutine, in the order they were
// accepted. Slow work runs through Go and posts its result back.
type Loop struct {
	queue      chan func()
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	config     LoopConfig
	metrics    metrics.Collector
	logger     *logging.Logger

	mu     sync.Mutex
	timers map[Timer]struct{}

	// Statistics (accessed atomically)
	queued   int64
	inflight int64
	pending  int64
	dropped  int64
	total    int64
	panics   int64
}

// LoopConfig configures the loop behavior.
type LoopConfig struct {
	// QueueSize is the bounded queue size (default: 256)
	QueueSize int

	// MaxWaitTime is the max time to wait if the queue is full (default: 50ms)
	MaxWaitTime time.Duration

	// Clock schedules After callbacks (default: RealClock)
	Clock Clock
}

// NewLoop starts a loop. It must be closed with Close().
func NewLoop(config LoopConfig, collector metrics.Collector, logger *logging.Logger) *Loop {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.MaxWaitTime == 0 {
		config.MaxWaitTime = 50 * time.Millisecond
	}
	if config.Clock == nil {
		config.Clock = RealClock()
	}
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if logger == nil {
		logger = logging.L()
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		queue:      make(chan func(), config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		metrics:    collector,
		logger:     logger.Named("loop"),
		timers:     make(map[Timer]struct{}),
	}

	l.wg.Add(1)
	go l.worker()
	return l
}

// Post enqueues fn to run on the loop. If the queue is full it waits up
// to MaxWaitTime before dropping the event.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.ctx.Done():
		return ErrLoopClosed
	default:
	}

	atomic.AddInt64(&l.queued, 1)

	timer := time.NewTimer(l.config.MaxWaitTime)
	defer timer.Stop()

	select {
	case l.queue <- fn:
		atomic.AddInt64(&l.total, 1)
		return nil
	case <-timer.C:
		atomic.AddInt64(&l.queued, -1)
		atomic.AddInt64(&l.dropped, 1)
		l.metrics.RecordEventDropped()
		return ErrQueueFull
	case <-l.ctx.Done():
		atomic.AddInt64(&l.queued, -1)
		return ErrLoopClosed
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		// The worker drains the queue on close, so fn normally still runs.
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return ErrLoopClosed
		}
	}
}

// Go runs fn on its own goroutine. The context is cancelled when the loop
// closes. fn must not touch view state except through Post.
func (l *Loop) Go(fn func(ctx context.Context)) error {
	select {
	case <-l.ctx.Done():
		return ErrLoopClosed
	default:
	}

	atomic.AddInt64(&l.inflight, 1)
	go func() {
		defer atomic.AddInt64(&l.inflight, -1)
		defer l.recoverPanic("go")
		fn(l.ctx)
	}()
	return nil
}

// After posts fn to the loop once d has elapsed on the loop's clock.
func (l *Loop) After(d time.Duration, fn func()) error {
	select {
	case <-l.ctx.Done():
		return ErrLoopClosed
	default:
	}

	atomic.AddInt64(&l.pending, 1)

	var t Timer
	var fired atomic.Bool
	l.mu.Lock()
	t = l.config.Clock.AfterFunc(d, func() {
		fired.Store(true)
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()

		if err := l.Post(fn); err != nil {
			l.logger.Warn("delayed event dropped", zap.Error(err))
		}
		atomic.AddInt64(&l.pending, -1)
	})
	if !fired.Load() {
		l.timers[t] = struct{}{}
	}
	l.mu.Unlock()
	return nil
}

// worker runs events until the loop closes, then drains what is queued.
func (l *Loop) worker() {
	defer l.wg.Done()

	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
		case <-l.ctx.Done():
			for {
				select {
				case fn := <-l.queue:
					l.run(fn)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) run(fn func()) {
	defer atomic.AddInt64(&l.queued, -1)
	defer l.recoverPanic("event")
	fn()
}

func (l *Loop) recoverPanic(where string) {
	if r := recover(); r != nil {
		atomic.AddInt64(&l.panics, 1)
		l.logger.Error("session event panicked",
			zap.String("where", where),
			zap.String("panic", fmt.Sprint(r)),
		)
	}
}

// Flush waits until no event is queued and no off-loop call is running,
// or until timeout. Delayed events that have not come due are not waited for.
func (l *Loop) Flush(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		if atomic.LoadInt64(&l.queued) == 0 && atomic.LoadInt64(&l.inflight) == 0 {
			return nil
		}

		if time.Now().After(deadline) {
			return ErrFlushTimeout
		}

		time.Sleep(2 * time.Millisecond)
	}
}

// Busy reports whether any work is outstanding, delayed events included.
func (l *Loop) Busy() bool {
	return atomic.LoadInt64(&l.queued) > 0 ||
		atomic.LoadInt64(&l.inflight) > 0 ||
		atomic.LoadInt64(&l.pending) > 0
}

// Close stops accepting events, cancels delayed ones and waits for the
// worker to drain the queue. Off-loop calls see their context cancelled.
func (l *Loop) Close() error {
	l.cancelFunc()

	l.mu.Lock()
	for t := range l.timers {
		if t.Stop() {
			atomic.AddInt64(&l.pending, -1)
		}
	}
	l.timers = make(map[Timer]struct{})
	l.mu.Unlock()

	l.wg.Wait()
	return nil
}

// Stats returns current statistics about the loop.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		QueueDepth: len(l.queue),
		InFlight:   atomic.LoadInt64(&l.inflight),
		Timers:     atomic.LoadInt64(&l.pending),
		Dropped:    atomic.LoadInt64(&l.dropped),
		Total:      atomic.LoadInt64(&l.total),
		Panics:     atomic.LoadInt64(&l.panics),
	}
}
