package metrics_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/mynextid/private-score/metrics"
	"github.com/mynextid/private-score/models"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func event(action models.Action, protocol string, amount float64, age time.Duration) models.ActivityEvent {
	return models.ActivityEvent{
		Signature:  "sig",
		Timestamp:  now.Add(-age),
		Protocol:   protocol,
		Action:     action,
		Amount:     amount,
		Token:      "USDC",
		Successful: true,
	}
}

func TestAggregateEmpty(t *testing.T) {
	m := metrics.Aggregate(nil, now)

	require.Zero(t, m.TotalBorrowed)
	require.Zero(t, m.TotalTransactions)
	require.Zero(t, m.AverageTransactionValue)
	require.Zero(t, m.OldestActivityDays)
	require.NotNil(t, m.UniqueProtocols)
	require.Empty(t, m.UniqueProtocols)
	require.Empty(t, m.UtilizationHistory)
}

func TestAggregate(t *testing.T) {
	repayOnTime := event(models.ActionRepay, "kamino", 300, 10*24*time.Hour)
	repayOnTime.OnTime = boolPtr(true)
	repayLate := event(models.ActionRepay, "kamino", 100, 5*24*time.Hour)
	repayLate.OnTime = boolPtr(false)
	repayUnknown := event(models.ActionRepay, "solend", 100, 24*time.Hour)

	events := []models.ActivityEvent{
		event(models.ActionBorrow, "solend", 1000, 40*24*time.Hour+3*time.Hour),
		event(models.ActionDeposit, "marginfi", 500, 20*24*time.Hour),
		repayOnTime,
		repayLate,
		repayUnknown,
		event(models.ActionLiquidate, "solend", 0, time.Hour),
	}

	m := metrics.Aggregate(events, now)

	require.Equal(t, 1000.0, m.TotalBorrowed)
	require.Equal(t, 500.0, m.TotalRepaid)
	require.Equal(t, 1, m.OnTimePayments)
	require.Equal(t, 1, m.LatePayments)
	require.Equal(t, 1, m.Defaults)
	require.Equal(t, 40, m.OldestActivityDays)
	require.Equal(t, 6, m.TotalTransactions)
	require.InDelta(t, 2000.0/6, m.AverageTransactionValue, 1e-9)
	require.Len(t, m.UniqueProtocols, 3)
	require.Equal(t, []float64{0.5}, m.UtilizationHistory)
}

func TestAggregateNoBorrowNoUtilization(t *testing.T) {
	m := metrics.Aggregate([]models.ActivityEvent{
		event(models.ActionSwap, "jupiter", 50, time.Hour),
	}, now)
	require.Empty(t, m.UtilizationHistory)
	require.Equal(t, 0, m.OldestActivityDays)
}

func TestAggregateOrderIndependent(t *testing.T) {
	var events []models.ActivityEvent
	for i := 0; i < 50; i++ {
		action := []models.Action{models.ActionBorrow, models.ActionRepay, models.ActionStake}[i%3]
		ev := event(action, []string{"a", "b", "c", "d"}[i%4], float64(i*10), time.Duration(i)*24*time.Hour)
		if action == models.ActionRepay {
			ev.OnTime = boolPtr(i%2 == 0)
		}
		events = append(events, ev)
	}

	want := metrics.Aggregate(events, now)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		shuffled := append([]models.ActivityEvent(nil), events...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := metrics.Aggregate(shuffled, now)
		require.Equal(t, want.TotalBorrowed, got.TotalBorrowed)
		require.Equal(t, want.TotalRepaid, got.TotalRepaid)
		require.Equal(t, want.OnTimePayments, got.OnTimePayments)
		require.Equal(t, want.LatePayments, got.LatePayments)
		require.Equal(t, want.OldestActivityDays, got.OldestActivityDays)
		require.Equal(t, want.UniqueProtocols, got.UniqueProtocols)
		require.InDelta(t, want.AverageTransactionValue, got.AverageTransactionValue, 1e-9)
	}
}
