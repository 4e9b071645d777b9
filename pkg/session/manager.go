package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"
	"bank-console/pkg/view"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Deps  Deps
	Store Store
	// TTL closes sessions idle for longer (default 30m)
	TTL time.Duration
	// BackendCookie is the name of the backend session cookie (default "session")
	BackendCookie string
	// ReapInterval is how often idle sessions are looked for (default 1m)
	ReapInterval time.Duration
}

// Manager creates, restores and reaps sessions.
type Manager struct {
	deps          Deps
	store         Store
	ttl           time.Duration
	backendCookie string
	metrics       metrics.Collector
	logger        *logging.Logger

	mu    sync.Mutex
	live  map[string]*Session
	group singleflight.Group

	reapTicker *time.Ticker
	stopReap   chan struct{}
	wg         sync.WaitGroup
}

// CookieName is the console cookie carrying a role's session id. Roles use
// separate cookies so one browser can hold both pages.
func CookieName(role view.Role) string {
	return "console_" + string(role)
}

// NewManager starts a manager and its reaper. It must be closed with Close().
func NewManager(config ManagerConfig) *Manager {
	if config.TTL <= 0 {
		config.TTL = 30 * time.Minute
	}
	if config.BackendCookie == "" {
		config.BackendCookie = "session"
	}
	if config.ReapInterval <= 0 {
		config.ReapInterval = time.Minute
	}
	if config.Store == nil {
		config.Store = NewMemoryStore(config.ReapInterval)
	}
	if config.Deps.Metrics == nil {
		config.Deps.Metrics = metrics.NoOpCollector{}
	}
	if config.Deps.Logger == nil {
		config.Deps.Logger = logging.L()
	}
	if config.Deps.Clock == nil {
		config.Deps.Clock = RealClock()
	}

	m := &Manager{
		deps:          config.Deps,
		store:         config.Store,
		ttl:           config.TTL,
		backendCookie: config.BackendCookie,
		metrics:       config.Deps.Metrics,
		logger:        config.Deps.Logger.Named("sessions"),
		live:          make(map[string]*Session),
		reapTicker:    time.NewTicker(config.ReapInterval),
		stopReap:      make(chan struct{}),
	}

	m.wg.Add(1)
	go m.reaper()
	return m
}

// Create starts a session for role from the browser's cookies. It returns
// ErrNotLoggedIn when the backend session cookie is missing.
func (m *Manager) Create(ctx context.Context, role view.Role, cookies []*http.Cookie) (*Session, error) {
	if _, err := view.LayoutFor(role); err != nil {
		return nil, err
	}

	var backendCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == m.backendCookie && c.Value != "" {
			backendCookie = c
			break
		}
	}
	if backendCookie == nil {
		return nil, ErrNotLoggedIn
	}

	rec := Record{
		ID:        uuid.NewString(),
		Role:      role,
		Cookies:   map[string]string{backendCookie.Name: backendCookie.Value},
		CreatedAt: m.deps.Clock.Now().UTC(),
	}
	if err := m.store.Save(ctx, rec, m.ttl); err != nil {
		return nil, fmt.Errorf("session: save: %w", err)
	}

	sess, err := m.start(ctx, rec)
	if err != nil {
		m.store.Delete(ctx, rec.ID)
		return nil, err
	}
	m.logger.Info("session created", zap.String("session_id", rec.ID), zap.String("role", string(role)))
	return sess, nil
}

// Get returns the live session id of role, restoring it from the store if
// this process has not seen it. Concurrent restores of one id share a
// single load.
func (m *Manager) Get(ctx context.Context, role view.Role, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	sess, ok := m.live[id]
	m.mu.Unlock()

	if !ok {
		v, err, _ := m.group.Do(id, func() (interface{}, error) {
			m.mu.Lock()
			if sess, ok := m.live[id]; ok {
				m.mu.Unlock()
				return sess, nil
			}
			m.mu.Unlock()

			rec, err := m.store.Load(ctx, id)
			if err != nil {
				return nil, err
			}
			m.logger.Info("session restored", zap.String("session_id", id))
			return m.start(ctx, rec)
		})
		if err != nil {
			return nil, err
		}
		sess = v.(*Session)
	}

	if sess.Role != role {
		return nil, ErrSessionNotFound
	}

	sess.Touch()
	if err := m.store.Touch(ctx, id, m.ttl); err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.logger.Warn("session touch failed", zap.String("session_id", id), zap.Error(err))
	}
	return sess, nil
}

func (m *Manager) start(ctx context.Context, rec Record) (*Session, error) {
	sess, err := New(rec, m.deps)
	if err != nil {
		return nil, err
	}
	if err := sess.Start(ctx); err != nil {
		sess.Close()
		return nil, fmt.Errorf("session: start: %w", err)
	}

	m.mu.Lock()
	m.live[rec.ID] = sess
	count := len(m.live)
	m.mu.Unlock()

	m.metrics.RecordActiveSessions(count)
	return sess, nil
}

// Matches reports whether the browser still presents the backend session
// sess was created with. A different or missing cookie means the user
// logged in again elsewhere or was logged out by the backend.
func (m *Manager) Matches(sess *Session, cookies []*http.Cookie) bool {
	for _, c := range cookies {
		if c.Name == m.backendCookie {
			return c.Value != "" && c.Value == sess.Cookies[c.Name]
		}
	}
	return false
}

// Discard closes the session and forgets its record.
func (m *Manager) Discard(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.live[id]
	delete(m.live, id)
	count := len(m.live)
	m.mu.Unlock()

	if ok {
		sess.Close()
		m.metrics.RecordActiveSessions(count)
	}
	return m.store.Delete(ctx, id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Reap closes sessions idle for longer than the TTL. Their records are
// left to expire in the store.
func (m *Manager) Reap() int {
	cutoff := m.deps.Clock.Now().Add(-m.ttl)

	m.mu.Lock()
	var idle []*Session
	for id, sess := range m.live {
		if sess.LastSeen().Before(cutoff) {
			idle = append(idle, sess)
			delete(m.live, id)
		}
	}
	count := len(m.live)
	m.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
		m.logger.Info("idle session closed", zap.String("session_id", sess.ID))
	}
	if len(idle) > 0 {
		m.metrics.RecordActiveSessions(count)
	}
	return len(idle)
}

func (m *Manager) reaper() {
	defer m.wg.Done()

	for {
		select {
		case <-m.reapTicker.C:
			m.Reap()
		case <-m.stopReap:
			return
		}
	}
}

// Close stops the reaper, closes every session and the store.
func (m *Manager) Close() error {
	m.reapTicker.Stop()
	close(m.stopReap)
	m.wg.Wait()

	m.mu.Lock()
	live := m.live
	m.live = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range live {
		sess.Close()
	}
	m.metrics.RecordActiveSessions(0)
	return m.store.Close()
}

// StoreName names the backing store, for status output.
func (m *Manager) StoreName() string {
	return m.store.Name()
}
