// Package service ties the credit pipeline together: activity is fetched,
// aggregated and scored, scores are committed, and proofs are generated
// against the committed record of a wallet.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/indexer"
	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/metrics"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
	"github.com/mynextid/private-score/scoring"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultHistoryLimit  = 500
	DefaultScoreCacheTTL = 10 * time.Minute
)

var (
	ErrUnknownPool = errors.New("unknown lending pool")
)

// Assessment is a freshly computed score with the metrics it came from
type Assessment struct {
	Metrics models.CreditMetrics     `json:"metrics"`
	Result  models.CreditScoreResult `json:"result"`
}

// Service is safe for concurrent use
type Service struct {
	indexer   indexer.Indexer
	lifecycle *lifecycle.Manager
	generator *proof.Generator
	verifier  *proof.Verifier
	cache     *bigcache.BigCache
	locks     *keyedMutex
	metrics   *Metrics
	pools     map[uint64]models.LendingPool
	logger    common.Logger

	historyLimit int
	cacheTTL     time.Duration
	registerer   prometheus.Registerer
}

type Option func(*Service)

func WithLogger(l common.Logger) Option { return func(s *Service) { s.logger = common.OrNop(l) } }

// WithRegisterer registers the service metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) { s.registerer = reg }
}

// WithScoreCacheTTL sets how long a computed score is served from cache
func WithScoreCacheTTL(d time.Duration) Option { return func(s *Service) { s.cacheTTL = d } }

// WithHistoryLimit caps the number of transactions fetched per wallet
func WithHistoryLimit(n int) Option { return func(s *Service) { s.historyLimit = n } }

// WithPools restricts proofs to the given lending pools
func WithPools(pools []models.LendingPool) Option {
	return func(s *Service) {
		s.pools = make(map[uint64]models.LendingPool, len(pools))
		for _, p := range pools {
			s.pools[p.PoolID] = p
		}
	}
}

func New(ix indexer.Indexer, mgr *lifecycle.Manager, gen *proof.Generator, opts ...Option) (*Service, error) {
	s := &Service{
		lifecycle:    mgr,
		generator:    gen,
		verifier:     proof.NewVerifier(gen.Backend()),
		locks:        newKeyedMutex(),
		logger:       common.NopLogger{},
		historyLimit: DefaultHistoryLimit,
		cacheTTL:     DefaultScoreCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.indexer = indexer.Safe(ix, s.logger)
	s.metrics = NewMetrics(s.registerer)

	cfg := bigcache.DefaultConfig(s.cacheTTL)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10000
	cfg.MaxEntrySize = 4096
	cfg.CleanWindow = s.cacheTTL
	cfg.Verbose = false
	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create score cache: %w", err)
	}
	s.cache = cache

	return s, nil
}

// Close releases the score cache
func (s *Service) Close() error {
	return s.cache.Close()
}

// Metrics exposes the service collectors
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// Pools returns the configured lending pools ordered by id
func (s *Service) Pools() []models.LendingPool {
	out := make([]models.LendingPool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	sortPools(out)
	return out
}

func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", lifecycle.ErrInvalidAddress
	}
	return address, nil
}

// Score returns the credit score of address, from cache when a recent one
// exists
func (s *Service) Score(ctx context.Context, address string) (models.CreditScoreResult, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return models.CreditScoreResult{}, err
	}

	if b, err := s.cache.Get(address); err == nil {
		var r models.CreditScoreResult
		if err := json.Unmarshal(b, &r); err == nil {
			s.metrics.ScoreRequests.WithLabelValues("hit").Inc()
			return r, nil
		}
		s.logger.Warn("discarding unreadable cached score", "address", address)
	}
	s.metrics.ScoreRequests.WithLabelValues("miss").Inc()

	a, err := s.Assess(ctx, address)
	if err != nil {
		return models.CreditScoreResult{}, err
	}
	return a.Result, nil
}

// Assess fetches and scores the activity of address, bypassing the cache.
// The fresh result replaces any cached one.
func (s *Service) Assess(ctx context.Context, address string) (Assessment, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return Assessment{}, err
	}

	events, err := s.indexer.FetchActivity(ctx, address, indexer.Options{Limit: s.historyLimit})
	if err != nil {
		return Assessment{}, err
	}

	now := s.lifecycle.Now()
	m := metrics.Aggregate(events, now)
	r := scoring.Score(m, now)
	if prev, ok := s.lifecycle.Active(ctx, address); ok {
		r = scoring.WithTrend(r, prev.Score)
	}
	s.metrics.ScoreValues.Observe(float64(r.Score))

	if b, err := json.Marshal(r); err == nil {
		if err := s.cache.Set(address, b); err != nil {
			s.logger.Warn("failed to cache score", "address", address, "error", err)
		}
	}

	s.logger.Debug("score computed", "address", address, "tier", r.Tier, "events", len(events))
	return Assessment{Metrics: m, Result: r}, nil
}

// Register scores address afresh and commits to the score, replacing any
// previous commitment
func (s *Service) Register(ctx context.Context, address string) (models.CommitmentRecord, error) {
	return s.commit(ctx, "register", address, s.lifecycle.Register)
}

// Update rotates the commitment of address to a freshly computed score
func (s *Service) Update(ctx context.Context, address string) (models.CommitmentRecord, error) {
	return s.commit(ctx, "update", address, s.lifecycle.Update)
}

func (s *Service) commit(ctx context.Context, op, address string,
	fn func(context.Context, string, int) (models.CommitmentRecord, error)) (models.CommitmentRecord, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return models.CommitmentRecord{}, err
	}

	unlock := s.locks.Lock(address)
	defer unlock()

	a, err := s.Assess(ctx, address)
	if err != nil {
		s.metrics.Commitments.WithLabelValues(op, outcomeError).Inc()
		return models.CommitmentRecord{}, err
	}
	record, err := fn(ctx, address, a.Result.Score)
	if err != nil {
		s.metrics.Commitments.WithLabelValues(op, outcome(err)).Inc()
		return models.CommitmentRecord{}, err
	}
	s.metrics.Commitments.WithLabelValues(op, outcomeOK).Inc()
	return record, nil
}

// Commitment returns the active record of address
func (s *Service) Commitment(ctx context.Context, address string) (models.CommitmentRecord, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return models.CommitmentRecord{}, err
	}
	record, ok := s.lifecycle.Active(ctx, address)
	if !ok {
		return models.CommitmentRecord{}, lifecycle.ErrNoActiveCommitment
	}
	return record, nil
}

// Revoke deletes the commitment of address and drops its cached score
func (s *Service) Revoke(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(address)
	defer unlock()

	if err := s.lifecycle.Revoke(ctx, address); err != nil {
		s.metrics.Commitments.WithLabelValues("revoke", outcomeError).Inc()
		return err
	}
	_ = s.cache.Delete(address)
	s.metrics.Commitments.WithLabelValues("revoke", outcomeOK).Inc()
	return nil
}

// Prune removes expired records from the store
func (s *Service) Prune(ctx context.Context) (int, error) {
	n, err := s.lifecycle.Prune(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordsPruned.Add(float64(n))
	return n, nil
}

// Now is the lifecycle clock
func (s *Service) Now() time.Time {
	return s.lifecycle.Now()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, proof.ErrValidation),
		errors.Is(err, proof.ErrPredicateNotMet),
		errors.Is(err, proof.ErrCommitmentMismatch),
		errors.Is(err, lifecycle.ErrNoActiveCommitment),
		errors.Is(err, lifecycle.ErrInvalidAddress),
		errors.Is(err, ErrUnknownPool):
		return outcomeRejected
	}
	return outcomeError
}
