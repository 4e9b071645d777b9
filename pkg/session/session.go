// Package session owns the live console sessions. Each session pairs a
// view state with the event loop that is its only writer, and exposes the
// user's interactions as loop calls.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/config"
	"bank-console/pkg/dispatch"
	"bank-console/pkg/journal"
	"bank-console/pkg/loader"
	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"
	"bank-console/pkg/render"
	"bank-console/pkg/view"
)

// Deps are shared by every session of a Manager.
type Deps struct {
	// Client is the unauthenticated backend client; each session binds
	// its own cookies to a copy.
	Client   *backend.Client
	Renderer *render.Renderer
	Guard    *dispatch.ReplayGuard
	Journal  journal.Journal
	Delays   config.Delays
	Metrics  metrics.Collector
	Logger   *logging.Logger
	Clock    Clock
	Loop     LoopConfig
}

// Session is one signed-in console page.
type Session struct {
	Record

	state      *view.State
	loop       *Loop
	client     *backend.Client
	refresher  *loader.Refresher
	dispatcher *dispatch.Dispatcher
	clock      Clock
	lastSeen   atomic.Int64
}

// New builds a session from its record. Nothing is loaded until Start.
func New(rec Record, deps Deps) (*Session, error) {
	st, err := view.NewState(rec.Role)
	if err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = logging.L()
	}
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}
	logger := deps.Logger.ForSession(rec.ID, string(rec.Role))

	loopConfig := deps.Loop
	loopConfig.Clock = deps.Clock
	loop := NewLoop(loopConfig, deps.Metrics, logger)

	client := deps.Client.WithCookies(rec.HTTPCookies())
	refresher := loader.NewRefresher(client, deps.Renderer, loop, deps.Metrics, logger)

	s := &Session{
		Record:    rec,
		state:     st,
		loop:      loop,
		client:    client,
		refresher: refresher,
		clock:     deps.Clock,
		dispatcher: dispatch.New(dispatch.Config{
			SessionID: rec.ID,
			Backend:   client,
			Refresher: refresher,
			Executor:  loop,
			Guard:     deps.Guard,
			Journal:   deps.Journal,
			Delays:    deps.Delays,
			Metrics:   deps.Metrics,
			Logger:    logger,
		}),
	}
	s.Touch()
	return s, nil
}

// Start issues the role's eager loads.
func (s *Session) Start(ctx context.Context) error {
	return s.do(ctx, func(st *view.State) error {
		return s.refresher.RefreshAll(st, st.Layout().Eager)
	})
}

// do runs fn on the loop and returns its error.
func (s *Session) do(ctx context.Context, fn func(st *view.State) error) error {
	var inner error
	if err := s.loop.Call(ctx, func() { inner = fn(s.state) }); err != nil {
		return err
	}
	return inner
}

// View runs fn on the loop with read access to the view state. fn must not
// keep references to the state after it returns.
func (s *Session) View(ctx context.Context, fn func(st *view.State)) error {
	return s.loop.Call(ctx, func() { fn(s.state) })
}

// Activate switches panel and refreshes what the panel shows.
func (s *Session) Activate(ctx context.Context, panel view.PanelID, trigger string) error {
	return s.do(ctx, func(st *view.State) error {
		resources, err := st.Activate(panel, trigger)
		if err != nil {
			return err
		}
		return s.refresher.RefreshAll(st, resources)
	})
}

// OpenModal opens modal and refreshes what it needs.
func (s *Session) OpenModal(ctx context.Context, modal view.ModalID, params map[string]string) error {
	return s.do(ctx, func(st *view.State) error {
		resources, err := st.OpenModal(modal, params)
		if err != nil {
			return err
		}
		return s.refresher.RefreshAll(st, resources)
	})
}

func (s *Session) CloseModal(ctx context.Context, modal view.ModalID) error {
	return s.do(ctx, func(st *view.State) error {
		return st.CloseModal(modal)
	})
}

// SelectTransactions loads the transactions of accountID. An empty id
// clears the list and discards any answer still in flight.
func (s *Session) SelectTransactions(ctx context.Context, accountID string) error {
	return s.do(ctx, func(st *view.State) error {
		st.SelectTransactionsAccount(accountID)
		return s.refresher.Refresh(st, view.ResTransactions)
	})
}

// Submit hands a form to the dispatcher.
func (s *Session) Submit(ctx context.Context, action view.ActionID, input map[string]string, nonce string) error {
	return s.do(ctx, func(st *view.State) error {
		return s.dispatcher.Submit(st, action, input, nonce)
	})
}

// Confirm answers the pending confirmation.
func (s *Session) Confirm(ctx context.Context, accepted bool) error {
	return s.do(ctx, func(st *view.State) error {
		return s.dispatcher.Confirm(st, accepted)
	})
}

func (s *Session) DismissDialog(ctx context.Context) error {
	return s.do(ctx, func(st *view.State) error {
		st.DismissDialog()
		return nil
	})
}

// Logout ends the backend session. The caller discards the console session.
func (s *Session) Logout(ctx context.Context) error {
	return s.client.Logout(ctx)
}

// Touch records activity now.
func (s *Session) Touch() {
	s.lastSeen.Store(s.clock.Now().UnixNano())
}

// LastSeen returns the time of the last recorded activity.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Busy reports whether loads, actions or delayed closes are outstanding.
func (s *Session) Busy() bool {
	return s.loop.Busy()
}

// Flush waits for outstanding loads and actions.
func (s *Session) Flush(timeout time.Duration) error {
	return s.loop.Flush(timeout)
}

func (s *Session) Stats() LoopStats {
	return s.loop.Stats()
}

func (s *Session) Close() error {
	return s.loop.Close()
}
