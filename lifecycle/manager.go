// Package lifecycle manages the commitment record of each wallet: creation,
// rotation, nonce advancement, expiry and revocation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mynextid/private-score/commitment"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

var (
	ErrNoActiveCommitment = errors.New("no active commitment")
	ErrInvalidAddress     = errors.New("invalid wallet address")
	ErrNonceRegression    = errors.New("nonce must not decrease")
)

// Manager owns the commitment records of a Store
type Manager struct {
	store    Store
	clock    clockwork.Clock
	validity time.Duration
	logger   common.Logger
}

type Option func(*Manager)

func WithClock(c clockwork.Clock) Option { return func(m *Manager) { m.clock = c } }

func WithLogger(l common.Logger) Option { return func(m *Manager) { m.logger = common.OrNop(l) } }

// WithValidity overrides the default 30 day commitment validity
func WithValidity(d time.Duration) Option { return func(m *Manager) { m.validity = d } }

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		clock:    clockwork.NewRealClock(),
		validity: models.CommitmentValidity,
		logger:   common.NopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now is the manager's current time, truncated to seconds
func (m *Manager) Now() time.Time {
	return time.Unix(m.clock.Now().Unix(), 0).UTC()
}

func normalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrInvalidAddress
	}
	return address, nil
}

// Register commits to score under a fresh salt and stores the record with
// nonce 1, replacing any previous record of address
func (m *Manager) Register(ctx context.Context, address string, score int) (models.CommitmentRecord, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return models.CommitmentRecord{}, err
	}

	hash, salt, err := commitment.New(score)
	if err != nil {
		return models.CommitmentRecord{}, err
	}

	now := m.Now()
	record := models.CommitmentRecord{
		Address:      address,
		Score:        score,
		Salt:         salt,
		Hash:         hash,
		Nonce:        1,
		Tier:         models.TierForScore(score),
		RegisteredAt: now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(m.validity),
	}
	if err := m.store.Put(ctx, record); err != nil {
		return models.CommitmentRecord{}, fmt.Errorf("failed to store commitment: %w", err)
	}

	m.logger.Info("commitment registered", "address", address, "tier", record.Tier, "expiresAt", record.ExpiresAt)
	return record, nil
}

// Update rotates the commitment of an existing record to a new score. The
// nonce keeps increasing and the expiry is reset.
func (m *Manager) Update(ctx context.Context, address string, score int) (models.CommitmentRecord, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return models.CommitmentRecord{}, err
	}

	prev, found, err := m.store.Get(ctx, address)
	if err != nil {
		return models.CommitmentRecord{}, fmt.Errorf("failed to load commitment: %w", err)
	}
	if !found {
		return models.CommitmentRecord{}, fmt.Errorf("%w: %s", ErrNoActiveCommitment, address)
	}

	hash, salt, err := commitment.New(score)
	if err != nil {
		return models.CommitmentRecord{}, err
	}

	now := m.Now()
	record := prev
	record.Score = score
	record.Salt = salt
	record.Hash = hash
	record.Nonce = nextNonce(prev.Nonce)
	record.Tier = models.TierForScore(score)
	record.UpdatedAt = now
	record.ExpiresAt = now.Add(m.validity)

	if err := m.store.Put(ctx, record); err != nil {
		return models.CommitmentRecord{}, fmt.Errorf("failed to store commitment: %w", err)
	}

	m.logger.Info("commitment updated", "address", address, "nonce", record.Nonce, "tier", record.Tier)
	return record, nil
}

// Active returns the unexpired record of address. Store failures are
// logged and reported as no active commitment.
func (m *Manager) Active(ctx context.Context, address string) (models.CommitmentRecord, bool) {
	address, err := normalizeAddress(address)
	if err != nil {
		return models.CommitmentRecord{}, false
	}

	record, found, err := m.store.Get(ctx, address)
	if err != nil {
		m.logger.Warn("commitment lookup failed", "address", address, "error", err)
		return models.CommitmentRecord{}, false
	}
	if !found || IsExpired(record, m.Now()) {
		return models.CommitmentRecord{}, false
	}
	return record, true
}

// AdvanceNonce returns record with the nonce incremented and one more
// proof counted. It does not persist anything.
func (m *Manager) AdvanceNonce(record models.CommitmentRecord) models.CommitmentRecord {
	record.Nonce = nextNonce(record.Nonce)
	if record.ProofsGenerated < math.MaxUint32 {
		record.ProofsGenerated++
	}
	record.UpdatedAt = m.Now()
	return record
}

// Commit persists an advanced record. The stored nonce must not be
// greater than the new one.
func (m *Manager) Commit(ctx context.Context, record models.CommitmentRecord) error {
	if _, err := normalizeAddress(record.Address); err != nil {
		return err
	}

	prev, found, err := m.store.Get(ctx, record.Address)
	if err != nil {
		return fmt.Errorf("failed to load commitment: %w", err)
	}
	if found && prev.Nonce > record.Nonce {
		return fmt.Errorf("%w: stored=%d, new=%d", ErrNonceRegression, prev.Nonce, record.Nonce)
	}

	if err := m.store.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to store commitment: %w", err)
	}
	m.logger.Debug("commitment nonce advanced", "address", record.Address, "nonce", record.Nonce)
	return nil
}

// Revoke removes the record of address
func (m *Manager) Revoke(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, address); err != nil {
		return fmt.Errorf("failed to revoke commitment: %w", err)
	}
	m.logger.Info("commitment revoked", "address", address)
	return nil
}

// Prune removes expired records when the store supports it
func (m *Manager) Prune(ctx context.Context) (int, error) {
	p, ok := m.store.(Pruner)
	if !ok {
		return 0, nil
	}
	n, err := p.Prune(ctx, m.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune commitments: %w", err)
	}
	if n > 0 {
		m.logger.Info("expired commitments pruned", "count", n)
	}
	return n, nil
}

// IsExpired reports whether record has no whole or partial day left at now
func IsExpired(record models.CommitmentRecord, now time.Time) bool {
	return record.ExpiresIn(now) <= 0
}

func nextNonce(n uint64) uint64 {
	if n == math.MaxUint64 {
		return n
	}
	return n + 1
}
