// Package server is the console's HTTP surface: the two role pages, the
// form endpoints that drive a session, and the health, status and metrics
// endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"
	"bank-console/pkg/session"
	"bank-console/pkg/view"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Breaker reports the state of the backend circuit breaker.
type Breaker interface {
	Name() string
	State() metrics.CircuitState
}

// Server serves the console.
type Server struct {
	sessions *session.Manager
	breaker  Breaker
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	config   ServerConfig
	router   *mux.Router
	server   *http.Server
	started  time.Time
}

// ServerConfig holds configuration for the console server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// CustomerLoginURL and AdminLoginURL receive users without a backend session
	CustomerLoginURL string
	AdminLoginURL    string

	// SecureCookies marks console cookies Secure
	SecureCookies bool

	// RefreshSeconds is the meta refresh interval while work is outstanding
	RefreshSeconds int

	// CallTimeout bounds how long a handler waits on a session loop
	CallTimeout time.Duration
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:          ":8080",
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     10 * time.Second,
		CustomerLoginURL: "/login",
		AdminLoginURL:    "/admin-login",
		RefreshSeconds:   1,
		CallTimeout:      5 * time.Second,
	}
}

// NewServer wires the routes. A nil gatherer serves the default registry.
func NewServer(sessions *session.Manager, breaker Breaker, gatherer prometheus.Gatherer, config ServerConfig, logger *logging.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.L()
	}
	if config.RefreshSeconds <= 0 {
		config.RefreshSeconds = 1
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 5 * time.Second
	}

	s := &Server{
		sessions: sessions,
		breaker:  breaker,
		gatherer: gatherer,
		logger:   logger.Named("server"),
		config:   config,
		started:  time.Now(),
	}

	r := mux.NewRouter()

	r.HandleFunc("/dashboard", s.handlePage(view.RoleCustomer)).Methods(http.MethodGet)
	r.HandleFunc("/admin-dashboard", s.handlePage(view.RoleAdmin)).Methods(http.MethodGet)

	ui := r.PathPrefix("/ui/{role}").Subrouter()
	ui.HandleFunc("/containers/{container}", s.withSession(s.handleContainer)).Methods(http.MethodGet)
	ui.HandleFunc("/panels/{panel}", s.withSession(s.handleActivate)).Methods(http.MethodPost)
	ui.HandleFunc("/modals/{modal}/open", s.withSession(s.handleOpenModal)).Methods(http.MethodPost)
	ui.HandleFunc("/modals/{modal}/close", s.withSession(s.handleCloseModal)).Methods(http.MethodPost)
	ui.HandleFunc("/transactions", s.withSession(s.handleSelectTransactions)).Methods(http.MethodPost)
	ui.HandleFunc("/actions/{action}", s.withSession(s.handleSubmit)).Methods(http.MethodPost)
	ui.HandleFunc("/confirm", s.withSession(s.handleConfirm)).Methods(http.MethodPost)
	ui.HandleFunc("/dialog/dismiss", s.withSession(s.handleDismissDialog)).Methods(http.MethodPost)
	ui.HandleFunc("/logout", s.withSession(s.handleLogout)).Methods(http.MethodPost)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router = r
	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("console server error", zap.Error(err))
		}
	}()
	s.logger.Info("console server listening", zap.String("address", s.config.Address))
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleHealth returns a simple health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleStatus returns uptime, sessions and the backend breaker state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "running",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(s.started).String(),
		"sessions":  s.sessions.Count(),
		"store":     s.sessions.StoreName(),
	}
	if s.breaker != nil {
		response["backend"] = map[string]string{
			"name":    s.breaker.Name(),
			"circuit": s.breaker.State().String(),
		}
	}
	writeJSON(w, http.StatusOK, response)
}
