// Package metrics folds classified wallet activity into credit metrics
package metrics

import (
	"math"
	"time"

	"github.com/mynextid/private-score/models"
)

const day = 24 * time.Hour

// Aggregate computes the credit metrics of events as observed at now. The
// result does not depend on the order of events.
func Aggregate(events []models.ActivityEvent, now time.Time) models.CreditMetrics {
	m := models.CreditMetrics{
		UniqueProtocols:    make(map[string]struct{}),
		UtilizationHistory: []float64{},
	}
	if len(events) == 0 {
		return m
	}

	oldest := events[0].Timestamp
	var volume float64

	for _, ev := range events {
		if ev.Timestamp.Before(oldest) {
			oldest = ev.Timestamp
		}
		if ev.Protocol != "" {
			m.UniqueProtocols[ev.Protocol] = struct{}{}
		}
		volume += ev.Amount

		switch ev.Action {
		case models.ActionBorrow:
			m.TotalBorrowed += ev.Amount
		case models.ActionRepay:
			m.TotalRepaid += ev.Amount
			if ev.OnTime != nil {
				if *ev.OnTime {
					m.OnTimePayments++
				} else {
					m.LatePayments++
				}
			}
		case models.ActionLiquidate:
			m.Defaults++
		}
	}

	m.TotalTransactions = len(events)
	m.AverageTransactionValue = volume / float64(m.TotalTransactions)

	if age := now.Sub(oldest); age > 0 {
		m.OldestActivityDays = int(math.Floor(float64(age) / float64(day)))
	}

	if m.TotalBorrowed > 0 {
		m.UtilizationHistory = append(m.UtilizationHistory, (m.TotalBorrowed-m.TotalRepaid)/m.TotalBorrowed)
	}

	return m
}
