package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/config"
	"bank-console/pkg/dispatch"
	"bank-console/pkg/journal"
	"bank-console/pkg/logging"
	promMetrics "bank-console/pkg/metrics/prometheus"
	"bank-console/pkg/render"
	"bank-console/pkg/resilience"
	"bank-console/pkg/server"
	"bank-console/pkg/session"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger from environment
	logger, err := logging.NewLoggerFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logging.SetGlobal(logger)
	logger.Info("Starting banking console", zap.String("backend", cfg.BackendURL))

	collector := promMetrics.NewPrometheusCollector(cfg.MetricsNamespace)
	if err := collector.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	// Every backend call goes through the breaker; the per-call timeout
	// lives there rather than on the http.Client.
	doer := resilience.NewDoerWithMetrics(&http.Client{}, cfg.Resilience(), collector)
	client, err := backend.NewClient(cfg.BackendURL, doer)
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Failed to resolve viewer timezone", zap.Error(err))
	}

	ctx := context.Background()
	actions, err := journal.Open(ctx, cfg.JournalDriver, cfg.JournalDSN)
	if err != nil {
		logger.Fatal("Failed to open action journal", zap.Error(err))
	}
	defer actions.Close()

	var store session.Store
	if cfg.RedisAddr != "" {
		redisConfig := session.DefaultRedisStoreConfig()
		redisConfig.Addr = cfg.RedisAddr
		store, err = session.NewRedisStore(redisConfig)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	} else {
		store = session.NewMemoryStore(time.Minute)
	}
	logger.Info("Session store ready", zap.String("store", store.Name()))

	sessions := session.NewManager(session.ManagerConfig{
		Deps: session.Deps{
			Client:   client,
			Renderer: render.New(loc),
			Guard:    dispatch.NewReplayGuard(100000, 0.0001),
			Journal:  actions,
			Delays:   cfg.Delays,
			Metrics:  collector,
			Logger:   logger,
		},
		Store:         store,
		TTL:           cfg.SessionTTL,
		BackendCookie: cfg.SessionCookie,
	})

	serverConfig := server.DefaultServerConfig()
	serverConfig.Address = cfg.Addr
	serverConfig.CustomerLoginURL = cfg.CustomerLoginURL
	serverConfig.AdminLoginURL = cfg.AdminLoginURL
	serverConfig.SecureCookies = cfg.SecureCookies

	srv := server.NewServer(sessions, doer, prometheus.DefaultGatherer, serverConfig, logger)
	if err := srv.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	logger.Info("Console ready",
		zap.String("customer", "http://localhost"+cfg.Addr+"/dashboard"),
		zap.String("admin", "http://localhost"+cfg.Addr+"/admin-dashboard"),
		zap.String("metrics", "http://localhost"+cfg.Addr+"/metrics"),
	)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := sessions.Close(); err != nil {
		logger.Error("Session manager close error", zap.Error(err))
	}
	logger.Info("Console stopped")
}
