package scoring_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func protocols(n int) map[string]struct{} {
	out := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		out[fmt.Sprintf("protocol-%d", i)] = struct{}{}
	}
	return out
}

func TestScoreExample(t *testing.T) {
	m := models.CreditMetrics{
		TotalBorrowed:           10000,
		TotalRepaid:             9000,
		OnTimePayments:          9,
		LatePayments:            1,
		Defaults:                0,
		OldestActivityDays:      400,
		UniqueProtocols:         protocols(4),
		AverageTransactionValue: 200,
		TotalTransactions:       50,
	}

	r := scoring.Score(m, now)

	b := r.Breakdown
	assert.Equal(t, 85.0, b.PaymentHistory.Score)
	assert.Equal(t, models.RatingVeryGood, b.PaymentHistory.Rating)
	assert.Equal(t, 95.0, b.CreditUtilization.Score)
	assert.Equal(t, models.RatingExcellent, b.CreditUtilization.Rating)
	assert.Equal(t, 95.0, b.AccountHistory.Score)
	assert.Equal(t, models.RatingExcellent, b.AccountHistory.Rating)
	assert.Equal(t, 80.0, b.ProtocolDiversity.Score)
	assert.Equal(t, models.RatingVeryGood, b.ProtocolDiversity.Rating)
	assert.InDelta(t, 52.0, b.RecentActivity.Score, 1e-9)
	assert.Equal(t, models.RatingGood, b.RecentActivity.Rating)

	require.Equal(t, 771, r.Score)
	require.Equal(t, models.TierVeryGood, r.Tier)
	require.Equal(t, models.TrendStable, r.Trend)
	require.Equal(t, now, r.LastUpdated)
	require.Empty(t, r.Recommendations)
}

func TestScoreEmptyMetrics(t *testing.T) {
	r := scoring.Score(models.CreditMetrics{}, now)

	b := r.Breakdown
	assert.Equal(t, 50.0, b.PaymentHistory.Score)
	assert.Equal(t, 70.0, b.CreditUtilization.Score)
	assert.Equal(t, 20.0, b.AccountHistory.Score)
	assert.Equal(t, 20.0, b.ProtocolDiversity.Score)
	assert.Equal(t, 20.0, b.RecentActivity.Score)

	require.Equal(t, 550, r.Score)
	require.Equal(t, models.TierFair, r.Tier)

	require.Len(t, r.Recommendations, 4)
	require.Equal(t, models.PriorityHigh, r.Recommendations[0].Priority)
	require.Equal(t, models.PriorityLow, r.Recommendations[3].Priority)
}

func TestWeightsSumTo100(t *testing.T) {
	r := scoring.Score(models.CreditMetrics{}, now)
	var sum float64
	for _, c := range r.Breakdown.Components() {
		sum += c.Weight
		require.InDelta(t, c.Score*c.Weight/100, c.Weighted, 1e-9)
	}
	require.Equal(t, 100.0, sum)
}

func TestScoreBounds(t *testing.T) {
	cases := []models.CreditMetrics{
		{},
		{TotalBorrowed: 1, OnTimePayments: 0, LatePayments: 100, Defaults: 50},
		{TotalBorrowed: 1e12, TotalRepaid: 1e12, OnTimePayments: 1000, OldestActivityDays: 5000,
			UniqueProtocols: protocols(20), TotalTransactions: 1e6, AverageTransactionValue: 1e9},
		{TotalBorrowed: 100, TotalRepaid: 500},
		{OldestActivityDays: 10, TotalTransactions: 1},
	}

	for i, m := range cases {
		r := scoring.Score(m, now)
		require.GreaterOrEqual(t, r.Score, models.MinScore, "case %d", i)
		require.LessOrEqual(t, r.Score, models.MaxScore, "case %d", i)
		for _, c := range r.Breakdown.Components() {
			require.GreaterOrEqual(t, c.Score, 0.0)
			require.LessOrEqual(t, c.Score, 100.0)
		}
		require.LessOrEqual(t, len(r.Recommendations), 5)
	}
}

func TestScoreDeterministic(t *testing.T) {
	m := models.CreditMetrics{TotalBorrowed: 500, TotalRepaid: 250, OnTimePayments: 3, LatePayments: 2,
		OldestActivityDays: 120, UniqueProtocols: protocols(2), TotalTransactions: 12, AverageTransactionValue: 80}
	require.Equal(t, scoring.Score(m, now), scoring.Score(m, now))
}

func TestPaymentPenalties(t *testing.T) {
	r := scoring.Score(models.CreditMetrics{OnTimePayments: 8, LatePayments: 2, Defaults: 1}, now)
	// 80 - 15 - 10
	require.Equal(t, 55.0, r.Breakdown.PaymentHistory.Score)

	r = scoring.Score(models.CreditMetrics{OnTimePayments: 10, Defaults: 1}, now)
	require.Equal(t, 85.0, r.Breakdown.PaymentHistory.Score)
	require.Equal(t, models.RatingVeryGood, r.Breakdown.PaymentHistory.Rating)

	r = scoring.Score(models.CreditMetrics{LatePayments: 10, Defaults: 3}, now)
	require.Equal(t, 0.0, r.Breakdown.PaymentHistory.Score)
	require.Equal(t, models.RatingPoor, r.Breakdown.PaymentHistory.Rating)
}

func TestUtilizationBands(t *testing.T) {
	cases := []struct {
		repaid float64
		score  float64
	}{
		{1000, 95}, {900, 95}, {800, 90}, {700, 90}, {600, 75}, {500, 75},
		{400, 50}, {300, 50}, {200, 30}, {100, 30}, {0, 10},
	}
	for _, c := range cases {
		r := scoring.Score(models.CreditMetrics{TotalBorrowed: 1000, TotalRepaid: c.repaid}, now)
		require.Equal(t, c.score, r.Breakdown.CreditUtilization.Score, "repaid %v", c.repaid)
	}
}

func TestHistoryBands(t *testing.T) {
	cases := map[int]float64{0: 20, 1: 30, 29: 30, 30: 50, 89: 50, 90: 65, 179: 65, 180: 80, 364: 80, 365: 95}
	for days, want := range cases {
		r := scoring.Score(models.CreditMetrics{OldestActivityDays: days}, now)
		require.Equal(t, want, r.Breakdown.AccountHistory.Score, "days %d", days)
	}
}

func TestDiversityBands(t *testing.T) {
	cases := map[int]float64{0: 20, 1: 40, 2: 60, 3: 60, 4: 80, 5: 80, 6: 95}
	for n, want := range cases {
		r := scoring.Score(models.CreditMetrics{UniqueProtocols: protocols(n)}, now)
		require.Equal(t, want, r.Breakdown.ProtocolDiversity.Score, "protocols %d", n)
	}
}

func TestActivityBonusCapped(t *testing.T) {
	r := scoring.Score(models.CreditMetrics{TotalTransactions: 25, AverageTransactionValue: 5000}, now)
	// 25 tx in one month: 95 + min(10, 50) capped at 100
	require.Equal(t, 100.0, r.Breakdown.RecentActivity.Score)

	r = scoring.Score(models.CreditMetrics{TotalTransactions: 1, OldestActivityDays: 90}, now)
	require.Equal(t, 30.0, r.Breakdown.RecentActivity.Score)
	require.Equal(t, models.RatingFair, r.Breakdown.RecentActivity.Rating)
}

func TestTierCutoffs(t *testing.T) {
	cases := map[int]models.Tier{
		300: models.TierPoor, 549: models.TierPoor, 550: models.TierFair, 669: models.TierFair,
		670: models.TierGood, 739: models.TierGood, 740: models.TierVeryGood, 799: models.TierVeryGood,
		800: models.TierExcellent, 850: models.TierExcellent,
	}
	for score, want := range cases {
		require.Equal(t, want, models.TierForScore(score), "score %d", score)
	}
}

func TestRecommendationOrdering(t *testing.T) {
	b := models.ScoreBreakdown{
		PaymentHistory:    models.ComponentScore{Score: 100},
		CreditUtilization: models.ComponentScore{Score: 10},
		AccountHistory:    models.ComponentScore{Score: 10},
		ProtocolDiversity: models.ComponentScore{Score: 10},
		RecentActivity:    models.ComponentScore{Score: 10},
	}
	recs := scoring.Recommend(b)
	require.Len(t, recs, 4)

	var prio []models.Priority
	for _, r := range recs {
		prio = append(prio, r.Priority)
	}
	require.Equal(t, []models.Priority{models.PriorityHigh, models.PriorityMedium, models.PriorityMedium, models.PriorityLow}, prio)
	require.Equal(t, "Build account history", recs[1].Title)
	require.Equal(t, "Diversify protocol usage", recs[2].Title)
}

func TestWithTrend(t *testing.T) {
	r := models.CreditScoreResult{Score: 700}
	require.Equal(t, models.TrendImproving, scoring.WithTrend(r, 690).Trend)
	require.Equal(t, models.TrendDeclining, scoring.WithTrend(r, 720).Trend)
	require.Equal(t, models.TrendStable, scoring.WithTrend(r, 698).Trend)
}
