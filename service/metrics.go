package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Metrics are the service level Prometheus collectors
type Metrics struct {
	ScoreRequests *prometheus.CounterVec
	ScoreValues   prometheus.Histogram
	Commitments   *prometheus.CounterVec
	Proofs        *prometheus.CounterVec
	ProofDuration *prometheus.HistogramVec
	RecordsPruned prometheus.Counter
}

// NewMetrics registers the collectors with reg. A nil reg yields
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScoreRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "privatescore",
			Subsystem: "service",
			Name:      "score_requests_total",
			Help:      "Score computations by cache result",
		}, []string{"cache"}),
		ScoreValues: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "privatescore",
			Subsystem: "service",
			Name:      "score_value",
			Help:      "Distribution of computed credit scores",
			Buckets:   []float64{300, 550, 670, 740, 800, 850},
		}),
		Commitments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "privatescore",
			Subsystem: "service",
			Name:      "commitment_operations_total",
			Help:      "Commitment lifecycle operations",
		}, []string{"operation", "outcome"}),
		Proofs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "privatescore",
			Subsystem: "service",
			Name:      "proofs_total",
			Help:      "Proof generations by circuit and outcome",
		}, []string{"circuit", "outcome"}),
		ProofDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "privatescore",
			Subsystem: "service",
			Name:      "proof_duration_seconds",
			Help:      "Proof generation latency",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"circuit"}),
		RecordsPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "privatescore",
			Subsystem: "service",
			Name:      "records_pruned_total",
			Help:      "Expired commitment records removed",
		}),
	}
}
