package models

import "time"

const (
	MinScore = 300
	MaxScore = 850
)

// Rating is the qualitative band of a single score component
type Rating string

const (
	RatingPoor      Rating = "Poor"
	RatingFair      Rating = "Fair"
	RatingGood      Rating = "Good"
	RatingVeryGood  Rating = "Very Good"
	RatingExcellent Rating = "Excellent"
)

// Priority of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, lower is more urgent
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Trend compares a score with the previous one for the same wallet
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// ComponentScore is one weighted part of the credit score
type ComponentScore struct {
	Score    float64 `json:"score"`    // 0-100
	Weight   float64 `json:"weight"`   // percent
	Weighted float64 `json:"weighted"` // Score * Weight / 100
	Rating   Rating  `json:"rating"`
	Details  string  `json:"details"`
}

// ScoreBreakdown holds the five score components
type ScoreBreakdown struct {
	PaymentHistory    ComponentScore `json:"paymentHistory"`
	CreditUtilization ComponentScore `json:"creditUtilization"`
	AccountHistory    ComponentScore `json:"accountHistory"`
	ProtocolDiversity ComponentScore `json:"protocolDiversity"`
	RecentActivity    ComponentScore `json:"recentActivity"`
}

// Components returns the components in their fixed order
func (b ScoreBreakdown) Components() []ComponentScore {
	return []ComponentScore{
		b.PaymentHistory,
		b.CreditUtilization,
		b.AccountHistory,
		b.ProtocolDiversity,
		b.RecentActivity,
	}
}

// Recommendation is an actionable hint for improving a component
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Impact      string   `json:"impact"`
}

// CreditScoreResult is the output of the score engine
type CreditScoreResult struct {
	Score           int              `json:"score"`
	Tier            Tier             `json:"tier"`
	Breakdown       ScoreBreakdown   `json:"breakdown"`
	Recommendations []Recommendation `json:"recommendations"`
	Trend           Trend            `json:"trend"`
	LastUpdated     time.Time        `json:"lastUpdated"`
}
