// Package redis stores commitment records in Redis as JSON values under
// {prefix}{address}, with the Redis TTL set to the record expiry
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/models"
)

const DefaultKeyPrefix = "privatescore:commitment:"

type Store struct {
	client    client
	keyPrefix string
	clock     clockwork.Clock
}

var (
	_ lifecycle.Store  = (*Store)(nil)
	_ lifecycle.Pruner = (*Store)(nil)
)

// Open connects to Redis and checks the connection
func Open(ctx context.Context, cfg Config) (*Store, error) {
	c, err := newGoRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	s, err := newStore(ctx, c, cfg.KeyPrefix, clockwork.NewRealClock())
	if err != nil {
		c.Close()
		return nil, err
	}
	return s, nil
}

func newStore(ctx context.Context, c client, prefix string, clock clockwork.Clock) (*Store, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Store{client: c, keyPrefix: prefix, clock: clock}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(address string) string {
	return s.keyPrefix + address
}

func (s *Store) Put(ctx context.Context, record models.CommitmentRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	// a record already past its expiry has no TTL and is left to Prune
	ttl := record.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(record.Address), value, ttl); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, address string) (models.CommitmentRecord, bool, error) {
	value, err := s.client.Get(ctx, s.key(address))
	if errors.Is(err, errKeyNotFound) {
		return models.CommitmentRecord{}, false, nil
	}
	if err != nil {
		return models.CommitmentRecord{}, false, fmt.Errorf("redis get failed: %w", err)
	}
	var record models.CommitmentRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return models.CommitmentRecord{}, false, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, true, nil
}

func (s *Store) Delete(ctx context.Context, address string) error {
	if _, err := s.client.Del(ctx, s.key(address)); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func (s *Store) Prune(ctx context.Context, now time.Time) (int, error) {
	keys, err := s.client.Scan(ctx, s.keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("redis scan failed: %w", err)
	}

	var expired []string
	for _, k := range keys {
		r, found, err := s.Get(ctx, strings.TrimPrefix(k, s.keyPrefix))
		if err != nil || !found {
			continue
		}
		if lifecycle.IsExpired(r, now) {
			expired = append(expired, k)
		}
	}
	n, err := s.client.Del(ctx, expired...)
	if err != nil {
		return 0, fmt.Errorf("redis del failed: %w", err)
	}
	return int(n), nil
}
