package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/proof"
	"github.com/mynextid/private-score/server/api"
	"github.com/mynextid/private-score/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

const (
	EnvJWTSecret     = "PRIVATESCORE_JWT_SECRET"
	EnvIndexerAPIKey = "PRIVATESCORE_INDEXER_API_KEY"
	EnvPostgresURL   = "PRIVATESCORE_POSTGRES_URL"
	EnvRedisPassword = "PRIVATESCORE_REDIS_PASSWORD"
)

type ServeConfig struct {
	// Server settings
	Host string
	Port int

	// Proof settings
	Backend        string // "simulated" or "gnark"
	CircuitsDir    string
	CompileMissing bool

	// Storage settings
	Store         string // "memory", "badger", "redis" or "postgres"
	BadgerDir     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresURL   string
	PruneSchedule string // cron spec, empty disables pruning

	// Indexer settings
	IndexerURL     string
	IndexerAPIKey  string
	IndexerTimeout time.Duration
	HistoryLimit   int
	ScoreCacheTTL  time.Duration

	// Lending pools
	PoolsFile string

	// Performance settings
	MaxRequestSize  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Security settings
	JWTSecret   string
	EnableCORS  bool
	CorsOrigins []string

	// Observability
	EnablePprof bool
	LogLevel    string
	LogFormat   string // "json" or "text"
	LogFile     string

	// TLS settings
	EnableTLS bool
	CertFile  string
	KeyFile   string
}

// getenv returns the environment value of key, or fallback when unset
func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// ApplyEnv fills unset secrets from the environment
func (cfg *ServeConfig) ApplyEnv() {
	cfg.JWTSecret = getenv(EnvJWTSecret, cfg.JWTSecret)
	cfg.IndexerAPIKey = getenv(EnvIndexerAPIKey, cfg.IndexerAPIKey)
	cfg.PostgresURL = getenv(EnvPostgresURL, cfg.PostgresURL)
	cfg.RedisPassword = getenv(EnvRedisPassword, cfg.RedisPassword)
}

// Components are the wired core of a running server
type Components struct {
	Service *service.Service
	Pools   int
	close   []func()
}

// Close releases the components in reverse order
func (c *Components) Close() {
	for i := len(c.close) - 1; i >= 0; i-- {
		c.close[i]()
	}
}

// Build wires store, indexer, proof backend and service from cfg
func Build(ctx context.Context, cfg *ServeConfig, logger Logger, reg *prometheus.Registry) (*Components, error) {
	c := &Components{}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	c.close = append(c.close, closeStore)

	backend, err := newBackend(cfg, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create proof backend: %w", err)
	}

	pools, err := LoadPools(cfg.PoolsFile)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Pools = len(pools)

	svc, err := service.New(
		newIndexer(cfg, logger),
		lifecycle.NewManager(store, lifecycle.WithLogger(logger)),
		proof.NewGenerator(backend, proof.WithLogger(logger)),
		service.WithLogger(logger),
		service.WithRegisterer(reg),
		service.WithPools(pools),
		service.WithHistoryLimit(cfg.HistoryLimit),
		service.WithScoreCacheTTL(cfg.ScoreCacheTTL),
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Service = svc
	c.close = append(c.close, func() { _ = svc.Close() })

	return c, nil
}

// schedulePruning removes expired commitments on the cron schedule spec
func schedulePruning(ctx context.Context, spec string, svc *service.Service, logger Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := svc.Prune(ctx)
		if err != nil {
			logger.Error("Pruning failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("Pruned expired commitments", "count", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}

func Run(cfg *ServeConfig) error {
	cfg.ApplyEnv()

	// Validate configuration
	if err := validateServeConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup structured logging
	logger := SetupLogger(cfg.LogLevel, cfg.LogFormat, LogFile{Path: cfg.LogFile, MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	reg := NewRegistry()
	components, err := Build(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer components.Close()
	logger.Info("Service ready", "store", cfg.Store, "backend", cfg.Backend, "pools", components.Pools)

	if cfg.PruneSchedule != "" {
		c, err := schedulePruning(ctx, cfg.PruneSchedule, components.Service, logger)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	// Create server
	server := api.NewServer(components.Service, cfg.Backend)

	// Setup router with middleware
	r := setupRouter(server, cfg, logger, reg)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr, "tls", cfg.EnableTLS)

		var err error
		if cfg.EnableTLS {
			err = httpServer.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server gracefully...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func validateServeConfig(cfg *ServeConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	if cfg.EnableTLS {
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert-file or key-file not provided")
		}
		if _, err := os.Stat(cfg.CertFile); err != nil {
			return fmt.Errorf("cert file not found: %s", cfg.CertFile)
		}
		if _, err := os.Stat(cfg.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %s", cfg.KeyFile)
		}
	}

	if len(cfg.JWTSecret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 bytes (flag --jwt-secret or %s)", EnvJWTSecret)
	}

	switch cfg.Store {
	case StoreMemory, StoreBadger:
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("redis store requires --redis-addr")
		}
	case StorePostgres:
		if cfg.PostgresURL == "" {
			return fmt.Errorf("postgres store requires --postgres-url or %s", EnvPostgresURL)
		}
	default:
		return fmt.Errorf("unknown store: %s", cfg.Store)
	}

	switch cfg.Backend {
	case BackendSimulated:
	case BackendGnark:
		if !cfg.CompileMissing {
			if _, err := os.Stat(cfg.CircuitsDir); err != nil {
				return fmt.Errorf("circuits directory not found: %s", cfg.CircuitsDir)
			}
		}
	default:
		return fmt.Errorf("unknown proof backend: %s", cfg.Backend)
	}

	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			return fmt.Errorf("invalid prune schedule: %w", err)
		}
	}

	return nil
}
