package scoring

import (
	"fmt"
	"math"

	"github.com/mynextid/private-score/models"
)

// Component weights, in percent. They sum to 100.
const (
	WeightPaymentHistory    = 35
	WeightCreditUtilization = 30
	WeightAccountHistory    = 15
	WeightProtocolDiversity = 10
	WeightRecentActivity    = 10
)

func component(score, weight float64, rating models.Rating, details string) models.ComponentScore {
	return models.ComponentScore{
		Score:    score,
		Weight:   weight,
		Weighted: score * weight / 100,
		Rating:   rating,
		Details:  details,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func ratingFor(score float64) models.Rating {
	switch {
	case score >= 90:
		return models.RatingExcellent
	case score >= 75:
		return models.RatingVeryGood
	case score >= 60:
		return models.RatingGood
	case score >= 40:
		return models.RatingFair
	}
	return models.RatingPoor
}

func paymentHistory(m models.CreditMetrics) models.ComponentScore {
	total := m.OnTimePayments + m.LatePayments
	if total == 0 {
		return component(50, WeightPaymentHistory, models.RatingFair, "No repayment history yet")
	}

	rate := float64(m.OnTimePayments) * 100 / float64(total)
	score := clamp(rate-float64(m.Defaults)*15-float64(m.LatePayments)*5, 0, 100)

	details := fmt.Sprintf("%d of %d payments on time", m.OnTimePayments, total)
	if m.Defaults > 0 {
		details += fmt.Sprintf(", %d defaults", m.Defaults)
	}
	return component(score, WeightPaymentHistory, ratingFor(score), details)
}

func creditUtilization(m models.CreditMetrics) models.ComponentScore {
	if m.TotalBorrowed == 0 {
		return component(70, WeightCreditUtilization, models.RatingGood, "No borrowing activity")
	}

	u := (m.TotalBorrowed - m.TotalRepaid) / m.TotalBorrowed
	details := fmt.Sprintf("%.0f%% of borrowed funds outstanding", u*100)

	switch {
	case u <= 0.1:
		return component(95, WeightCreditUtilization, models.RatingExcellent, details)
	case u <= 0.3:
		return component(90, WeightCreditUtilization, models.RatingVeryGood, details)
	case u <= 0.5:
		return component(75, WeightCreditUtilization, models.RatingGood, details)
	case u <= 0.7:
		return component(50, WeightCreditUtilization, models.RatingFair, details)
	case u <= 0.9:
		return component(30, WeightCreditUtilization, models.RatingPoor, details)
	}
	return component(10, WeightCreditUtilization, models.RatingPoor, details)
}

func accountHistory(m models.CreditMetrics) models.ComponentScore {
	d := m.OldestActivityDays
	if d == 0 {
		return component(20, WeightAccountHistory, models.RatingPoor, "No account history")
	}

	details := fmt.Sprintf("%d days of on-chain history", d)
	switch {
	case d >= 365:
		return component(95, WeightAccountHistory, models.RatingExcellent, details)
	case d >= 180:
		return component(80, WeightAccountHistory, models.RatingVeryGood, details)
	case d >= 90:
		return component(65, WeightAccountHistory, models.RatingGood, details)
	case d >= 30:
		return component(50, WeightAccountHistory, models.RatingFair, details)
	}
	return component(30, WeightAccountHistory, models.RatingPoor, details)
}

func protocolDiversity(m models.CreditMetrics) models.ComponentScore {
	n := len(m.UniqueProtocols)
	details := fmt.Sprintf("%d protocols used", n)

	switch {
	case n == 0:
		return component(20, WeightProtocolDiversity, models.RatingPoor, "No protocol interactions")
	case n == 1:
		return component(40, WeightProtocolDiversity, models.RatingFair, "1 protocol used")
	case n <= 3:
		return component(60, WeightProtocolDiversity, models.RatingGood, details)
	case n <= 5:
		return component(80, WeightProtocolDiversity, models.RatingVeryGood, details)
	}
	return component(95, WeightProtocolDiversity, models.RatingExcellent, details)
}

func recentActivity(m models.CreditMetrics) models.ComponentScore {
	if m.TotalTransactions == 0 {
		return component(20, WeightRecentActivity, models.RatingPoor, "No transactions")
	}

	months := math.Max(1, float64(m.OldestActivityDays)/30)
	perMonth := float64(m.TotalTransactions) / months

	var base float64
	var rating models.Rating
	switch {
	case perMonth >= 20:
		base, rating = 95, models.RatingExcellent
	case perMonth >= 10:
		base, rating = 85, models.RatingVeryGood
	case perMonth >= 5:
		base, rating = 70, models.RatingGood
	case perMonth >= 2:
		base, rating = 50, models.RatingGood
	default:
		base, rating = 30, models.RatingFair
	}

	bonus := math.Min(10, m.AverageTransactionValue/100)
	score := math.Min(100, base+bonus)

	details := fmt.Sprintf("%.1f transactions per month", perMonth)
	return component(score, WeightRecentActivity, rating, details)
}
