// Package storetest is a conformance suite for lifecycle.Store
// implementations
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/models"
	"github.com/stretchr/testify/require"
)

// Record returns a fixture record of address expiring at expires
func Record(address string, nonce uint64, expires time.Time) models.CommitmentRecord {
	at := expires.Add(-models.CommitmentValidity).UTC().Truncate(time.Second)
	return models.CommitmentRecord{
		Address:      address,
		Score:        742,
		Salt:         "5a1f",
		Hash:         "c0ffee",
		Nonce:        nonce,
		Tier:         models.TierVeryGood,
		RegisteredAt: at,
		UpdatedAt:    at,
		ExpiresAt:    expires.UTC().Truncate(time.Second),
	}
}

// Run exercises s. now anchors the fixture expiries.
func Run(t *testing.T, s lifecycle.Store, now time.Time) {
	t.Helper()
	ctx := context.Background()
	future := now.Add(models.CommitmentValidity)

	t.Run("missing", func(t *testing.T) {
		_, found, err := s.Get(ctx, "absent")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("put get", func(t *testing.T) {
		r := Record("wallet-a", 1, future)
		require.NoError(t, s.Put(ctx, r))

		got, found, err := s.Get(ctx, "wallet-a")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, r.Hash, got.Hash)
		require.Equal(t, r.Nonce, got.Nonce)
		require.Equal(t, r.Tier, got.Tier)
		require.True(t, r.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("last writer wins", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, Record("wallet-b", 1, future)))
		require.NoError(t, s.Put(ctx, Record("wallet-b", 2, future)))

		got, found, err := s.Get(ctx, "wallet-b")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, uint64(2), got.Nonce)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, Record("wallet-c", 1, future)))
		require.NoError(t, s.Delete(ctx, "wallet-c"))
		_, found, err := s.Get(ctx, "wallet-c")
		require.NoError(t, err)
		require.False(t, found)

		require.NoError(t, s.Delete(ctx, "wallet-c"))
	})

	t.Run("concurrent", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for n := uint64(1); n <= 8; n++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Put(ctx, Record("wallet-d", n, future))
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		got, found, err := s.Get(ctx, "wallet-d")
		require.NoError(t, err)
		require.True(t, found)
		require.GreaterOrEqual(t, got.Nonce, uint64(1))
	})

	p, ok := s.(lifecycle.Pruner)
	if !ok {
		return
	}
	t.Run("prune", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, Record("wallet-old", 3, now.Add(-time.Hour))))
		require.NoError(t, s.Put(ctx, Record("wallet-new", 3, future)))

		n, err := p.Prune(ctx, now)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1)

		_, found, err := s.Get(ctx, "wallet-old")
		require.NoError(t, err)
		require.False(t, found)
		_, found, err = s.Get(ctx, "wallet-new")
		require.NoError(t, err)
		require.True(t, found)
	})
}
