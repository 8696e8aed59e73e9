package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mynextid/private-score/indexer"
	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
	"github.com/mynextid/private-score/service"
	"github.com/mynextid/private-score/store/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

type countingIndexer struct {
	indexer.Indexer
	mu    sync.Mutex
	calls int
}

func (c *countingIndexer) FetchActivity(ctx context.Context, address string, opts indexer.Options) ([]models.ActivityEvent, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Indexer.FetchActivity(ctx, address, opts)
}

func (c *countingIndexer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func pointer(b bool) *bool { return &b }

// history borrows 1000, repays 600 in four repayments, three on time
func history() indexer.Static {
	at := func(days int) time.Time { return start.Add(-time.Duration(days) * 24 * time.Hour) }
	return indexer.Static{
		{Signature: "b1", Timestamp: at(200), Protocol: "solend", Action: models.ActionBorrow, Amount: 1000, Successful: true},
		{Signature: "r1", Timestamp: at(150), Protocol: "solend", Action: models.ActionRepay, Amount: 150, Successful: true, OnTime: pointer(true)},
		{Signature: "r2", Timestamp: at(100), Protocol: "solend", Action: models.ActionRepay, Amount: 150, Successful: true, OnTime: pointer(true)},
		{Signature: "r3", Timestamp: at(50), Protocol: "solend", Action: models.ActionRepay, Amount: 150, Successful: true, OnTime: pointer(false)},
		{Signature: "r4", Timestamp: at(5), Protocol: "kamino", Action: models.ActionRepay, Amount: 150, Successful: true, OnTime: pointer(true)},
	}
}

type fixture struct {
	svc     *service.Service
	indexer *countingIndexer
	clock   *clockwork.FakeClock
	store   *memory.Store
}

func newFixture(t *testing.T, events indexer.Static, opts ...service.Option) fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(start)
	store := memory.New()
	ix := &countingIndexer{Indexer: events}
	mgr := lifecycle.NewManager(store, lifecycle.WithClock(clock))
	gen := proof.NewGenerator(proof.NewSimulatedBackend(), proof.WithClock(clock))

	opts = append([]service.Option{service.WithRegisterer(prometheus.NewRegistry())}, opts...)
	svc, err := service.New(ix, mgr, gen, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	return fixture{svc: svc, indexer: ix, clock: clock, store: store}
}

func TestScoreEmptyHistory(t *testing.T) {
	f := newFixture(t, indexer.Static{})

	r, err := f.svc.Score(context.Background(), "wallet")
	require.NoError(t, err)
	require.Equal(t, 550, r.Score)
	require.Equal(t, models.TierFair, r.Tier)
	require.Equal(t, models.TrendStable, r.Trend)

	_, err = f.svc.Score(context.Background(), "  ")
	require.ErrorIs(t, err, lifecycle.ErrInvalidAddress)
}

func TestScoreIsCached(t *testing.T) {
	f := newFixture(t, history())
	ctx := context.Background()

	first, err := f.svc.Score(ctx, "wallet")
	require.NoError(t, err)
	second, err := f.svc.Score(ctx, "wallet")
	require.NoError(t, err)

	require.Equal(t, first.Score, second.Score)
	require.Equal(t, 1, f.indexer.count())
	require.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics().ScoreRequests.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics().ScoreRequests.WithLabelValues("miss")))

	// Assess always goes to the indexer
	_, err = f.svc.Assess(ctx, "wallet")
	require.NoError(t, err)
	require.Equal(t, 2, f.indexer.count())
}

func TestRegisterAndRevoke(t *testing.T) {
	f := newFixture(t, indexer.Static{})
	ctx := context.Background()

	_, err := f.svc.Commitment(ctx, "wallet")
	require.ErrorIs(t, err, lifecycle.ErrNoActiveCommitment)

	r, err := f.svc.Register(ctx, "wallet")
	require.NoError(t, err)
	require.Equal(t, 550, r.Score)
	require.Equal(t, uint64(1), r.Nonce)

	active, err := f.svc.Commitment(ctx, "wallet")
	require.NoError(t, err)
	require.Equal(t, r.Hash, active.Hash)

	require.NoError(t, f.svc.Revoke(ctx, "wallet"))
	_, err = f.svc.Commitment(ctx, "wallet")
	require.ErrorIs(t, err, lifecycle.ErrNoActiveCommitment)

	_, err = f.svc.Update(ctx, "wallet")
	require.ErrorIs(t, err, lifecycle.ErrNoActiveCommitment)
	require.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics().Commitments.WithLabelValues("update", "rejected")))
}

func TestProveAdvancesNonce(t *testing.T) {
	f := newFixture(t, indexer.Static{})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "wallet")
	require.NoError(t, err)

	p, err := f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 1, MinScore: 500})
	require.NoError(t, err)
	n, err := proof.Nonce(p)
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)

	r, err := f.svc.Commitment(ctx, "wallet")
	require.NoError(t, err)
	require.Equal(t, uint64(2), r.Nonce)
	require.Equal(t, uint32(1), r.ProofsGenerated)

	require.NoError(t, f.svc.Verify(p, models.CircuitScoreThreshold))
	require.NoError(t, f.svc.CheckSubmission(ctx, "wallet", p))

	// a second proof supersedes the first
	_, err = f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 1, MinScore: 500})
	require.NoError(t, err)
	require.ErrorIs(t, f.svc.CheckSubmission(ctx, "wallet", p), proof.ErrNonceMismatch)

	f.clock.Advance(2 * time.Hour)
	require.ErrorIs(t, f.svc.Verify(p, models.CircuitScoreThreshold), proof.ErrExpiredArtifact)
}

func TestFailedProofKeepsNonce(t *testing.T) {
	f := newFixture(t, indexer.Static{})
	ctx := context.Background()

	_, err := f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 1, MinScore: 500})
	require.ErrorIs(t, err, lifecycle.ErrNoActiveCommitment)

	_, err = f.svc.Register(ctx, "wallet")
	require.NoError(t, err)

	_, err = f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 1, MinScore: 700})
	require.ErrorIs(t, err, proof.ErrScoreBelowThreshold)

	_, err = f.svc.Prove(ctx, "wallet", "prove_age", service.ProveParams{})
	require.ErrorIs(t, err, models.ErrUnknownCircuit)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.svc.Prove(cancelled, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 1, MinScore: 500})
	require.ErrorIs(t, err, proof.ErrProofGenerationFailed)

	r, err := f.svc.Commitment(ctx, "wallet")
	require.NoError(t, err)
	require.Equal(t, uint64(1), r.Nonce)
	require.Equal(t, 2.0, testutil.ToFloat64(f.svc.Metrics().Proofs.WithLabelValues(string(models.CircuitScoreThreshold), "rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics().Proofs.WithLabelValues(string(models.CircuitScoreThreshold), "error")))
}

func TestProveFromActivity(t *testing.T) {
	f := newFixture(t, history())
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "wallet")
	require.NoError(t, err)

	// debt 400 of income 2000 is 2000 bps, three of four payments on time
	params := service.ProveParams{
		PoolID:           2,
		MinScore:         300,
		MaxDTIBps:        3000,
		MinOnTimeRateBps: 7000,
		MinPayments:      4,
		Income:           2000,
	}
	p, err := f.svc.Prove(ctx, "wallet", models.CircuitCreditworthy, params)
	require.NoError(t, err)
	require.Equal(t, models.CompositeChecks, p.Proof.Checks)

	stricter := params
	stricter.MinOnTimeRateBps = 8000
	_, err = f.svc.Prove(ctx, "wallet", models.CircuitPaymentHistory, stricter)
	require.ErrorIs(t, err, proof.ErrPaymentRateBelowMin)

	// supplied values override the aggregated ones
	onTime, total := uint64(4), uint64(4)
	stricter.OnTimePayments, stricter.TotalPayments = &onTime, &total
	_, err = f.svc.Prove(ctx, "wallet", models.CircuitPaymentHistory, stricter)
	require.NoError(t, err)

	noIncome := params
	noIncome.Income = 0
	_, err = f.svc.Prove(ctx, "wallet", models.CircuitDTIRatio, noIncome)
	require.ErrorIs(t, err, proof.ErrMissingPrivateInput)
}

func TestPools(t *testing.T) {
	pools := []models.LendingPool{
		{PoolID: 7, Name: "stable", MinCreditScore: 500, BaseCollateralBps: 15000, CreditCollateralBps: 12000},
		{PoolID: 3, Name: "growth", MinCreditScore: 700, BaseCollateralBps: 15000, CreditCollateralBps: 11000},
	}
	f := newFixture(t, indexer.Static{}, service.WithPools(pools))
	ctx := context.Background()

	require.Equal(t, []uint64{3, 7}, []uint64{f.svc.Pools()[0].PoolID, f.svc.Pools()[1].PoolID})

	_, err := f.svc.Register(ctx, "wallet")
	require.NoError(t, err)

	_, err = f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 9})
	require.ErrorIs(t, err, service.ErrUnknownPool)

	// the pool minimum applies when none is given
	p, err := f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 7})
	require.NoError(t, err)
	require.Equal(t, "500", p.PublicInputs[1])

	_, err = f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 3})
	require.ErrorIs(t, err, proof.ErrScoreBelowThreshold)
}

func TestConcurrentProofsGetDistinctNonces(t *testing.T) {
	f := newFixture(t, indexer.Static{})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "wallet")
	require.NoError(t, err)

	const n = 8
	nonces := make(chan uint64, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := f.svc.Prove(ctx, "wallet", models.CircuitScoreThreshold, service.ProveParams{PoolID: 1, MinScore: 300})
			if err != nil {
				errs <- err
				return
			}
			nonce, err := proof.Nonce(p)
			if err != nil {
				errs <- err
				return
			}
			nonces <- nonce
		}()
	}
	wg.Wait()
	close(nonces)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	seen := make(map[uint64]bool)
	for nonce := range nonces {
		require.False(t, seen[nonce], "nonce %d issued twice", nonce)
		seen[nonce] = true
	}
	require.Len(t, seen, n)

	r, err := f.svc.Commitment(ctx, "wallet")
	require.NoError(t, err)
	require.Equal(t, uint64(n+1), r.Nonce)
}

func TestPrune(t *testing.T) {
	f := newFixture(t, indexer.Static{})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "a")
	require.NoError(t, err)
	f.clock.Advance(31 * 24 * time.Hour)
	_, err = f.svc.Register(ctx, "b")
	require.NoError(t, err)

	n, err := f.svc.Prune(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, f.store.Len())
	require.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics().RecordsPruned))
}
