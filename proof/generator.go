// Package proof generates and structurally verifies predicate proofs over a
// committed credit score.
//
// Every request moves through Validating, then either Rejected or
// Generating, then Produced. Validation runs entirely before the backend is
// called, so a rejected request has no side effects. The commitment check
// always precedes the predicate checks.
package proof

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mynextid/private-score/commitment"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

// Stage of a proof request
type Stage string

const (
	StageValidating Stage = "validating"
	StageRejected   Stage = "rejected"
	StageGenerating Stage = "generating"
	StageProduced   Stage = "produced"
)

// StageObserver is notified on every stage transition
type StageObserver func(circuit models.Circuit, stage Stage)

// Generator validates proof requests and drives a ProofBackend
type Generator struct {
	backend ProofBackend
	clock   clockwork.Clock
	logger  common.Logger
	observe StageObserver
}

type Option func(*Generator)

func WithClock(c clockwork.Clock) Option { return func(g *Generator) { g.clock = c } }

func WithLogger(l common.Logger) Option { return func(g *Generator) { g.logger = common.OrNop(l) } }

func WithStageObserver(fn StageObserver) Option { return func(g *Generator) { g.observe = fn } }

// NewGenerator creates a generator over backend
func NewGenerator(backend ProofBackend, opts ...Option) *Generator {
	g := &Generator{
		backend: backend,
		clock:   clockwork.NewRealClock(),
		logger:  common.NopLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Backend returns the backend proofs are generated with
func (g *Generator) Backend() ProofBackend {
	return g.backend
}

func (g *Generator) stage(c models.Circuit, s Stage) {
	g.logger.Debug("proof stage", "circuit", c, "stage", s)
	if g.observe != nil {
		g.observe(c, s)
	}
}

func (g *Generator) reject(c models.Circuit, err error) error {
	g.stage(c, StageRejected)
	g.logger.Info("proof request rejected", "circuit", c, "error", err)
	return err
}

func (g *Generator) now() time.Time {
	return time.Unix(g.clock.Now().Unix(), 0).UTC()
}

// ProveScoreThreshold proves score >= MinScore
func (g *Generator) ProveScoreThreshold(ctx context.Context, r ScoreThresholdRequest) (models.GeneratedProof, error) {
	c := models.CircuitScoreThreshold
	g.stage(c, StageValidating)

	r.Commitment = normalizeHex(r.Commitment)
	if err := checkCommitment(c, r.Score, r.Salt, r.Commitment); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkThreshold(r.Score, r.MinScore); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkRange(r.Score); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkParams(c, r.MinScore, r.Nonce); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}

	at := g.now()
	w, err := baseWitness(r.Score, r.Salt, r.Commitment, r.PoolID, r.Nonce)
	if err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	w.MinScore = uint64(r.MinScore)
	w.Timestamp = uint64(at.Unix())

	return g.produce(ctx, c, w, r.publicInputs(at), at)
}

// ProveDTIRatio proves TotalDebt / Income <= MaxDTIBps / 10000
func (g *Generator) ProveDTIRatio(ctx context.Context, r DTIRatioRequest) (models.GeneratedProof, error) {
	c := models.CircuitDTIRatio
	g.stage(c, StageValidating)

	r.Commitment = normalizeHex(r.Commitment)
	if err := checkCommitment(c, r.Score, r.Salt, r.Commitment); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkRange(r.Score); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkDTI(c, r.TotalDebt, r.Income, r.MaxDTIBps); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkParams(c, 0, r.Nonce); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}

	at := g.now()
	w, err := baseWitness(r.Score, r.Salt, r.Commitment, r.PoolID, r.Nonce)
	if err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	w.TotalDebt = r.TotalDebt
	w.Income = r.Income
	w.MaxDTIBps = uint64(r.MaxDTIBps)

	return g.produce(ctx, c, w, r.publicInputs(), at)
}

// ProvePaymentHistory proves TotalPayments >= MinPayments and
// OnTimePayments / TotalPayments >= MinOnTimeRateBps / 10000
func (g *Generator) ProvePaymentHistory(ctx context.Context, r PaymentHistoryRequest) (models.GeneratedProof, error) {
	c := models.CircuitPaymentHistory
	g.stage(c, StageValidating)

	r.Commitment = normalizeHex(r.Commitment)
	if err := checkCommitment(c, r.Score, r.Salt, r.Commitment); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkRange(r.Score); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkPayments(c, r.OnTimePayments, r.TotalPayments, r.MinOnTimeRateBps, r.MinPayments); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkParams(c, 0, r.Nonce); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}

	at := g.now()
	w, err := baseWitness(r.Score, r.Salt, r.Commitment, r.PoolID, r.Nonce)
	if err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	w.OnTimePayments = r.OnTimePayments
	w.TotalPayments = r.TotalPayments
	w.MinOnTimeRateBps = uint64(r.MinOnTimeRateBps)
	w.MinPayments = r.MinPayments

	return g.produce(ctx, c, w, r.publicInputs(), at)
}

// ProveCreditworthy proves the three predicates against one commitment.
// Either all of them hold and a single artifact is produced, or nothing is.
func (g *Generator) ProveCreditworthy(ctx context.Context, r CreditworthyRequest) (models.GeneratedProof, error) {
	c := models.CircuitCreditworthy
	g.stage(c, StageValidating)

	r.Commitment = normalizeHex(r.Commitment)
	if err := checkCommitment(c, r.Score, r.Salt, r.Commitment); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkThreshold(r.Score, r.MinScore); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkRange(r.Score); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkDTI(c, r.TotalDebt, r.Income, r.MaxDTIBps); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkPayments(c, r.OnTimePayments, r.TotalPayments, r.MinOnTimeRateBps, r.MinPayments); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	if err := checkParams(c, r.MinScore, r.Nonce); err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}

	at := g.now()
	w, err := baseWitness(r.Score, r.Salt, r.Commitment, r.PoolID, r.Nonce)
	if err != nil {
		return models.GeneratedProof{}, g.reject(c, err)
	}
	w.MinScore = uint64(r.MinScore)
	w.TotalDebt = r.TotalDebt
	w.Income = r.Income
	w.MaxDTIBps = uint64(r.MaxDTIBps)
	w.OnTimePayments = r.OnTimePayments
	w.TotalPayments = r.TotalPayments
	w.MinOnTimeRateBps = uint64(r.MinOnTimeRateBps)
	w.MinPayments = r.MinPayments
	w.Timestamp = uint64(at.Unix())

	return g.produce(ctx, c, w, r.publicInputs(at), at)
}

func (g *Generator) produce(ctx context.Context, c models.Circuit, w Witness, public []string, at time.Time) (models.GeneratedProof, error) {
	g.stage(c, StageGenerating)

	start := g.clock.Now()
	artifact, err := g.backend.Generate(ctx, Statement{Circuit: c, Witness: w, PublicInputs: public})
	if err != nil {
		return models.GeneratedProof{}, g.reject(c, WrapProofGenerationFailedError(c, err))
	}
	if err := g.backend.VerifyStructure(artifact, c); err != nil {
		return models.GeneratedProof{}, g.reject(c, WrapProofGenerationFailedError(c, err))
	}

	g.stage(c, StageProduced)
	g.logger.Info("proof produced", "circuit", c, "duration", g.clock.Since(start))

	return models.GeneratedProof{
		Proof:        artifact,
		PublicInputs: public,
		Commitment:   public[0],
		Timestamp:    at,
		ExpiresAt:    at.Add(c.Validity()),
	}, nil
}

func normalizeHex(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "0x"))
}

func checkCommitment(c models.Circuit, score int, salt, hash string) error {
	if salt == "" {
		return fmt.Errorf("%w: salt", ErrMissingPrivateInput)
	}
	if !commitment.Verify(score, salt, hash) {
		return WrapCommitmentMismatchError(c)
	}
	return nil
}

func checkThreshold(score, min int) error {
	if score < min {
		return predicateErr(ErrScoreBelowThreshold, fmt.Sprintf("%d", score), fmt.Sprintf(">= %d", min))
	}
	return nil
}

func checkRange(score int) error {
	if score < models.MinScore || score > models.MaxScore {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidScoreRange, score, models.MinScore, models.MaxScore)
	}
	return nil
}

func checkDTI(c models.Circuit, debt, income uint64, maxBps uint32) error {
	if income == 0 {
		return fmt.Errorf("%w: circuit=%s, income", ErrMissingPrivateInput, c)
	}
	// debt*10000 <= maxBps*income, computed in 128 bits
	if mulCmp(debt, 10000, income, uint64(maxBps)) > 0 {
		ratio := float64(debt) / float64(income)
		return predicateErr(ErrDTIAboveMax, fmt.Sprintf("%.4f", ratio), fmt.Sprintf("<= %.4f", float64(maxBps)/10000))
	}
	return nil
}

func checkPayments(c models.Circuit, onTime, total uint64, minRateBps uint32, minPayments uint64) error {
	if onTime > total {
		return WrapValidationError(c, fmt.Sprintf("on-time payments %d exceed total %d", onTime, total))
	}
	if total < minPayments {
		return predicateErr(ErrInsufficientPaymentHistory, fmt.Sprintf("%d payments", total), fmt.Sprintf(">= %d payments", minPayments))
	}
	if total == 0 {
		if minRateBps == 0 {
			return nil
		}
		return predicateErr(ErrInsufficientPaymentHistory, "0 payments", "at least one payment")
	}
	// onTime*10000 >= minRateBps*total
	if mulCmp(onTime, 10000, total, uint64(minRateBps)) < 0 {
		rate := float64(onTime) / float64(total)
		return predicateErr(ErrPaymentRateBelowMin, fmt.Sprintf("%.4f", rate), fmt.Sprintf(">= %.4f", float64(minRateBps)/10000))
	}
	return nil
}

func checkParams(c models.Circuit, minScore int, nonce uint64) error {
	if minScore < 0 {
		return WrapValidationError(c, "negative minimum score")
	}
	if nonce == 0 {
		return WrapValidationError(c, "nonce must be at least 1")
	}
	return nil
}

func baseWitness(score int, saltHex, commitmentHex string, poolID, nonce uint64) (Witness, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return Witness{}, fmt.Errorf("%w: salt is not hex", ErrValidation)
	}
	hash, err := hex.DecodeString(commitmentHex)
	if err != nil {
		return Witness{}, fmt.Errorf("%w: commitment is not hex", ErrValidation)
	}
	return Witness{
		Score:      uint64(score),
		Salt:       salt,
		Commitment: hash,
		PoolID:     poolID,
		Nonce:      nonce,
	}, nil
}

// mulCmp compares a*b with c*d without overflow
func mulCmp(a, b, c, d uint64) int {
	hi1, lo1 := bits.Mul64(a, b)
	hi2, lo2 := bits.Mul64(c, d)
	switch {
	case hi1 != hi2:
		if hi1 < hi2 {
			return -1
		}
		return 1
	case lo1 < lo2:
		return -1
	case lo1 > lo2:
		return 1
	}
	return 0
}
