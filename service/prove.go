package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
)

// ProveParams are the predicate parameters of a proof request. Income has
// no on-chain source and is always supplied by the wallet owner. The other
// private values default to the wallet's aggregated activity when nil.
type ProveParams struct {
	PoolID           uint64 `json:"poolId"`
	MinScore         int    `json:"minScore"`
	MaxDTIBps        uint32 `json:"maxDtiBps"`
	MinOnTimeRateBps uint32 `json:"minOnTimeRateBps"`
	MinPayments      uint64 `json:"minPayments"`

	Income         uint64  `json:"income,omitempty"`
	TotalDebt      *uint64 `json:"totalDebt,omitempty"`
	OnTimePayments *uint64 `json:"onTimePayments,omitempty"`
	TotalPayments  *uint64 `json:"totalPayments,omitempty"`
}

// private holds the resolved private inputs
type private struct {
	debt, income, onTime, total uint64
}

func (p ProveParams) needsActivity(c models.Circuit) bool {
	switch c {
	case models.CircuitDTIRatio:
		return p.TotalDebt == nil
	case models.CircuitPaymentHistory:
		return p.OnTimePayments == nil || p.TotalPayments == nil
	case models.CircuitCreditworthy:
		return p.TotalDebt == nil || p.OnTimePayments == nil || p.TotalPayments == nil
	}
	return false
}

func (p ProveParams) resolve(m models.CreditMetrics) private {
	out := private{
		income: p.Income,
		debt:   uint64(math.Round(m.OutstandingDebt())),
		onTime: uint64(m.OnTimePayments),
		total:  uint64(m.TotalPayments()),
	}
	if p.TotalDebt != nil {
		out.debt = *p.TotalDebt
	}
	if p.OnTimePayments != nil {
		out.onTime = *p.OnTimePayments
	}
	if p.TotalPayments != nil {
		out.total = *p.TotalPayments
	}
	return out
}

// pool applies the pool's minimum score when the request names none
func (s *Service) pool(p ProveParams) (ProveParams, error) {
	if len(s.pools) == 0 {
		return p, nil
	}
	pool, ok := s.pools[p.PoolID]
	if !ok {
		return p, fmt.Errorf("%w: %d", ErrUnknownPool, p.PoolID)
	}
	if p.MinScore == 0 {
		p.MinScore = pool.MinCreditScore
	}
	return p, nil
}

// Prove generates a proof for circuit against the active commitment of
// address. Generation is serialized per address and the record's nonce
// advances only once the proof exists.
func (s *Service) Prove(ctx context.Context, address string, circuit models.Circuit, p ProveParams) (models.GeneratedProof, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return models.GeneratedProof{}, err
	}
	if _, err := models.ParseCircuit(string(circuit)); err != nil {
		return models.GeneratedProof{}, err
	}
	p, err = s.pool(p)
	if err != nil {
		s.metrics.Proofs.WithLabelValues(string(circuit), outcomeRejected).Inc()
		return models.GeneratedProof{}, err
	}

	unlock := s.locks.Lock(address)
	defer unlock()

	record, err := s.Commitment(ctx, address)
	if err != nil {
		s.metrics.Proofs.WithLabelValues(string(circuit), outcomeRejected).Inc()
		return models.GeneratedProof{}, err
	}

	var m models.CreditMetrics
	if p.needsActivity(circuit) {
		a, err := s.Assess(ctx, address)
		if err != nil {
			return models.GeneratedProof{}, err
		}
		m = a.Metrics
	}

	start := time.Now()
	generated, err := s.generate(ctx, circuit, record, p, p.resolve(m))
	s.metrics.ProofDuration.WithLabelValues(string(circuit)).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Proofs.WithLabelValues(string(circuit), outcome(err)).Inc()
		s.logger.Info("proof not generated", "address", address, "circuit", circuit, "error", err)
		return models.GeneratedProof{}, err
	}

	if err := s.lifecycle.Commit(ctx, s.lifecycle.AdvanceNonce(record)); err != nil {
		s.metrics.Proofs.WithLabelValues(string(circuit), outcomeError).Inc()
		return models.GeneratedProof{}, fmt.Errorf("proof generated but nonce not advanced: %w", err)
	}

	s.metrics.Proofs.WithLabelValues(string(circuit), outcomeOK).Inc()
	s.logger.Info("proof generated", "address", address, "circuit", circuit, "nonce", record.Nonce)
	return generated, nil
}

func (s *Service) generate(ctx context.Context, c models.Circuit, r models.CommitmentRecord, p ProveParams, priv private) (models.GeneratedProof, error) {
	switch c {
	case models.CircuitScoreThreshold:
		return s.generator.ProveScoreThreshold(ctx, proof.ScoreThresholdRequest{
			Score:      r.Score,
			Salt:       r.Salt,
			Commitment: r.Hash,
			MinScore:   p.MinScore,
			PoolID:     p.PoolID,
			Nonce:      r.Nonce,
		})
	case models.CircuitDTIRatio:
		return s.generator.ProveDTIRatio(ctx, proof.DTIRatioRequest{
			Score:      r.Score,
			Salt:       r.Salt,
			Commitment: r.Hash,
			TotalDebt:  priv.debt,
			Income:     priv.income,
			MaxDTIBps:  p.MaxDTIBps,
			PoolID:     p.PoolID,
			Nonce:      r.Nonce,
		})
	case models.CircuitPaymentHistory:
		return s.generator.ProvePaymentHistory(ctx, proof.PaymentHistoryRequest{
			Score:            r.Score,
			Salt:             r.Salt,
			Commitment:       r.Hash,
			OnTimePayments:   priv.onTime,
			TotalPayments:    priv.total,
			MinOnTimeRateBps: p.MinOnTimeRateBps,
			MinPayments:      p.MinPayments,
			PoolID:           p.PoolID,
			Nonce:            r.Nonce,
		})
	case models.CircuitCreditworthy:
		return s.generator.ProveCreditworthy(ctx, proof.CreditworthyRequest{
			Score:            r.Score,
			Salt:             r.Salt,
			Commitment:       r.Hash,
			MinScore:         p.MinScore,
			TotalDebt:        priv.debt,
			Income:           priv.income,
			MaxDTIBps:        p.MaxDTIBps,
			OnTimePayments:   priv.onTime,
			TotalPayments:    priv.total,
			MinOnTimeRateBps: p.MinOnTimeRateBps,
			MinPayments:      p.MinPayments,
			PoolID:           p.PoolID,
			Nonce:            r.Nonce,
		})
	}
	return models.GeneratedProof{}, fmt.Errorf("%w: %s", models.ErrUnknownCircuit, c)
}

// Verify checks the structure and validity window of a proof produced for
// circuit
func (s *Service) Verify(p models.GeneratedProof, circuit models.Circuit) error {
	if err := s.verifier.VerifyStructure(p, circuit); err != nil {
		return err
	}
	if proof.IsExpired(p, s.Now()) {
		return fmt.Errorf("%w: expired at %s", proof.ErrExpiredArtifact, p.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// CheckSubmission applies the lending program checks to p against the
// stored record of address. Only the most recently issued proof passes,
// since every issued proof has already advanced the stored nonce.
func (s *Service) CheckSubmission(ctx context.Context, address string, p models.GeneratedProof) error {
	record, err := s.Commitment(ctx, address)
	if err != nil {
		return err
	}
	if record.Nonce > 1 {
		record.Nonce--
	}
	return s.verifier.CheckSubmission(p, record, s.Now())
}

func sortPools(pools []models.LendingPool) {
	sort.Slice(pools, func(i, j int) bool { return pools[i].PoolID < pools[j].PoolID })
}
