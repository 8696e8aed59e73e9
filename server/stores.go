package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mynextid/private-score/indexer"
	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/proof"
	"github.com/mynextid/private-score/proof/gnarkbackend"
	"github.com/mynextid/private-score/store/badger"
	"github.com/mynextid/private-score/store/memory"
	"github.com/mynextid/private-score/store/postgres"
	"github.com/mynextid/private-score/store/redis"
)

const (
	StoreMemory   = "memory"
	StoreBadger   = "badger"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	BackendSimulated = "simulated"
	BackendGnark     = "gnark"
)

// openStore connects the configured commitment store. The returned func
// releases it.
func openStore(ctx context.Context, cfg *ServeConfig, logger Logger) (lifecycle.Store, func(), error) {
	switch cfg.Store {
	case StoreMemory, "":
		logger.Warn("Using the in-memory store, commitments are lost on restart")
		return memory.New(), func() {}, nil

	case StoreBadger:
		s, err := badger.Open(cfg.BadgerDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Error("Failed to close badger store", "error", err)
			}
		}, nil

	case StoreRedis:
		s, err := redis.Open(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case StorePostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, db.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// newBackend builds the configured proof backend
func newBackend(cfg *ServeConfig, logger Logger) (proof.ProofBackend, error) {
	switch cfg.Backend {
	case BackendSimulated, "":
		logger.Warn("Using the simulated proof backend, proofs are not zero-knowledge")
		return proof.NewSimulatedBackend(), nil

	case BackendGnark:
		registry := gnarkbackend.NewCircuitRegistry()

		loaded := 0
		for _, ci := range gnarkbackend.CircuitList {
			if err := registry.LoadCircuit(cfg.CircuitsDir, ci, cfg.CompileMissing); err != nil {
				logger.Warn("Failed to load circuit", "circuit", ci.Circuit, "error", err)
				continue
			}
			loaded++
			logger.Info("Loaded circuit", "circuit", ci.Circuit)
		}
		if loaded == 0 {
			return nil, fmt.Errorf("no circuits loaded from %s", cfg.CircuitsDir)
		}

		logger.Info("Circuit loading complete", "loaded", loaded, "total", len(gnarkbackend.CircuitList))
		return gnarkbackend.NewBackend(registry, logger), nil
	}

	return nil, fmt.Errorf("unknown proof backend %q", cfg.Backend)
}

func newIndexer(cfg *ServeConfig, logger Logger) indexer.Indexer {
	if cfg.IndexerURL == "" {
		logger.Warn("No indexer configured, every wallet scores an empty history")
		return indexer.Static{}
	}
	return indexer.NewClient(cfg.IndexerURL, cfg.IndexerAPIKey, &http.Client{Timeout: cfg.IndexerTimeout}, logger)
}
