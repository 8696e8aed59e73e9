// Package scoring derives a 300-850 credit score from credit metrics
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/mynextid/private-score/models"
)

const (
	scoreRange = models.MaxScore - models.MinScore

	maxRecommendations = 5

	// trendDeadBand is the score change below which a trend is stable
	trendDeadBand = 5
)

// Score computes the credit score of m. It is pure and total: every input,
// including the zero value, yields a result in [300, 850].
func Score(m models.CreditMetrics, now time.Time) models.CreditScoreResult {
	b := models.ScoreBreakdown{
		PaymentHistory:    paymentHistory(m),
		CreditUtilization: creditUtilization(m),
		AccountHistory:    accountHistory(m),
		ProtocolDiversity: protocolDiversity(m),
		RecentActivity:    recentActivity(m),
	}

	var weighted float64
	for _, c := range b.Components() {
		weighted += c.Weighted
	}

	raw := models.MinScore + weighted/100*scoreRange
	score := int(math.Round(clamp(raw, models.MinScore, models.MaxScore)))

	return models.CreditScoreResult{
		Score:           score,
		Tier:            models.TierForScore(score),
		Breakdown:       b,
		Recommendations: Recommend(b),
		Trend:           models.TrendStable,
		LastUpdated:     now,
	}
}

// WithTrend sets the trend of r relative to a previous score of the same
// wallet
func WithTrend(r models.CreditScoreResult, previous int) models.CreditScoreResult {
	switch d := r.Score - previous; {
	case d >= trendDeadBand:
		r.Trend = models.TrendImproving
	case d <= -trendDeadBand:
		r.Trend = models.TrendDeclining
	default:
		r.Trend = models.TrendStable
	}
	return r
}

type rule struct {
	threshold float64
	score     func(models.ScoreBreakdown) float64
	rec       models.Recommendation
}

var rules = []rule{
	{
		threshold: 70,
		score:     func(b models.ScoreBreakdown) float64 { return b.PaymentHistory.Score },
		rec: models.Recommendation{
			Title:       "Repay loans on time",
			Description: "Late repayments and liquidations weigh most on your score. Set reminders ahead of due dates.",
			Priority:    models.PriorityHigh,
			Impact:      "+30-50 points",
		},
	},
	{
		threshold: 70,
		score:     func(b models.ScoreBreakdown) float64 { return b.CreditUtilization.Score },
		rec: models.Recommendation{
			Title:       "Reduce outstanding debt",
			Description: "Keep outstanding borrowing below 30% of what you have borrowed overall.",
			Priority:    models.PriorityHigh,
			Impact:      "+20-40 points",
		},
	},
	{
		threshold: 50,
		score:     func(b models.ScoreBreakdown) float64 { return b.AccountHistory.Score },
		rec: models.Recommendation{
			Title:       "Build account history",
			Description: "A longer track record improves your score. Keep your wallet active over time.",
			Priority:    models.PriorityMedium,
			Impact:      "+10-20 points",
		},
	},
	{
		threshold: 60,
		score:     func(b models.ScoreBreakdown) float64 { return b.ProtocolDiversity.Score },
		rec: models.Recommendation{
			Title:       "Diversify protocol usage",
			Description: "Using several lending and DeFi protocols shows broader experience.",
			Priority:    models.PriorityMedium,
			Impact:      "+5-15 points",
		},
	},
	{
		threshold: 50,
		score:     func(b models.ScoreBreakdown) float64 { return b.RecentActivity.Score },
		rec: models.Recommendation{
			Title:       "Stay active",
			Description: "Regular transactions keep your profile current.",
			Priority:    models.PriorityLow,
			Impact:      "+5-10 points",
		},
	},
}

// Recommend lists improvement hints for weak components, most urgent first
func Recommend(b models.ScoreBreakdown) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(rules))
	for _, r := range rules {
		if r.score(b) < r.threshold {
			recs = append(recs, r.rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
