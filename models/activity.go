package models

import "time"

// Action classifies a wallet transaction
type Action string

const (
	ActionBorrow    Action = "borrow"
	ActionRepay     Action = "repay"
	ActionDeposit   Action = "deposit"
	ActionWithdraw  Action = "withdraw"
	ActionStake     Action = "stake"
	ActionUnstake   Action = "unstake"
	ActionSwap      Action = "swap"
	ActionLiquidate Action = "liquidate"
)

// Valid reports whether a is one of the known actions
func (a Action) Valid() bool {
	switch a {
	case ActionBorrow, ActionRepay, ActionDeposit, ActionWithdraw,
		ActionStake, ActionUnstake, ActionSwap, ActionLiquidate:
		return true
	}
	return false
}

// ActivityEvent is a single classified on-chain transaction of a wallet
type ActivityEvent struct {
	Signature  string    `json:"signature"`
	Timestamp  time.Time `json:"timestamp"`
	Protocol   string    `json:"protocol"`
	Action     Action    `json:"action"`
	Amount     float64   `json:"amount"`
	Token      string    `json:"token"`
	Successful bool      `json:"successful"`
	// OnTime is only meaningful for repayments. nil means the indexer could
	// not classify the repayment.
	OnTime *bool `json:"onTime,omitempty"`
}

// CreditMetrics is the aggregate of a wallet's activity
type CreditMetrics struct {
	TotalBorrowed           float64             `json:"totalBorrowed"`
	TotalRepaid             float64             `json:"totalRepaid"`
	OnTimePayments          int                 `json:"onTimePayments"`
	LatePayments            int                 `json:"latePayments"`
	Defaults                int                 `json:"defaults"`
	OldestActivityDays      int                 `json:"oldestActivityDays"`
	UniqueProtocols         map[string]struct{} `json:"-"`
	AverageTransactionValue float64             `json:"averageTransactionValue"`
	TotalTransactions       int                 `json:"totalTransactions"`
	UtilizationHistory      []float64           `json:"utilizationHistory"`
}

// Protocols returns the protocol set as a slice, in no particular order
func (m CreditMetrics) Protocols() []string {
	out := make([]string, 0, len(m.UniqueProtocols))
	for p := range m.UniqueProtocols {
		out = append(out, p)
	}
	return out
}

// TotalPayments is the number of classified repayments
func (m CreditMetrics) TotalPayments() int {
	return m.OnTimePayments + m.LatePayments
}

// OutstandingDebt is borrowed minus repaid, floored at zero
func (m CreditMetrics) OutstandingDebt() float64 {
	if d := m.TotalBorrowed - m.TotalRepaid; d > 0 {
		return d
	}
	return 0
}
