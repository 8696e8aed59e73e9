package proof

import (
	"errors"
	"fmt"

	"github.com/mynextid/private-score/models"
)

var (
	// ErrValidation is the root of all input errors
	ErrValidation = errors.New("invalid proof request")

	// ErrInvalidScoreRange is a score outside [300, 850]
	ErrInvalidScoreRange = fmt.Errorf("%w: score out of range", ErrValidation)

	// ErrMissingPrivateInput is a private value required by the predicate
	// that was not supplied
	ErrMissingPrivateInput = fmt.Errorf("%w: missing private input", ErrValidation)

	// ErrCommitmentMismatch means (score, salt) does not reproduce the commitment
	ErrCommitmentMismatch = errors.New("commitment mismatch")

	// ErrPredicateNotMet is the root of all predicate failures
	ErrPredicateNotMet = errors.New("predicate not met")

	ErrScoreBelowThreshold        = errors.New("score below threshold")
	ErrDTIAboveMax                = errors.New("debt-to-income ratio above maximum")
	ErrPaymentRateBelowMin        = errors.New("on-time payment rate below minimum")
	ErrInsufficientPaymentHistory = errors.New("insufficient payment history")

	// ErrProofGenerationFailed wraps backend failures
	ErrProofGenerationFailed = errors.New("proof generation failed")

	// ErrInvalidArtifact is a structurally malformed proof
	ErrInvalidArtifact = errors.New("invalid proof artifact")

	// ErrCircuitMismatch is an artifact produced for another circuit
	ErrCircuitMismatch = errors.New("circuit mismatch")

	// ErrExpiredArtifact is a proof used past its validity window
	ErrExpiredArtifact = errors.New("proof expired")

	// ErrNonceMismatch is a proof bound to a nonce other than the record's
	ErrNonceMismatch = errors.New("nonce mismatch")
)

// PredicateError reports a predicate that does not hold for the private
// inputs. It matches both ErrPredicateNotMet and its specific sentinel.
type PredicateError struct {
	Kind     error
	Actual   string
	Required string
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("%v: actual=%s, required=%s", e.Kind, e.Actual, e.Required)
}

func (e *PredicateError) Is(target error) bool {
	return target == ErrPredicateNotMet || target == e.Kind
}

func (e *PredicateError) Unwrap() error {
	return e.Kind
}

func predicateErr(kind error, actual, required string) error {
	return &PredicateError{Kind: kind, Actual: actual, Required: required}
}

// WrapValidationError attaches a reason to ErrValidation
func WrapValidationError(circuit models.Circuit, reason string) error {
	return fmt.Errorf("%w: circuit=%s, reason=%s", ErrValidation, circuit, reason)
}

// WrapCommitmentMismatchError attaches the circuit to ErrCommitmentMismatch
func WrapCommitmentMismatchError(circuit models.Circuit) error {
	return fmt.Errorf("%w: circuit=%s", ErrCommitmentMismatch, circuit)
}

// WrapProofGenerationFailedError wraps a backend failure
func WrapProofGenerationFailedError(circuit models.Circuit, err error) error {
	return fmt.Errorf("%w: circuit=%s, cause=%w", ErrProofGenerationFailed, circuit, err)
}

// WrapInvalidArtifactError attaches a reason to ErrInvalidArtifact
func WrapInvalidArtifactError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArtifact, reason)
}
