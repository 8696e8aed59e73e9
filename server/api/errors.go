package api

import (
	"errors"
	"net/http"

	"github.com/mynextid/private-score/commitment"
	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
	"github.com/mynextid/private-score/service"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// ordered: specific sentinels before the roots that wrap them
var errorMappings = []errorMapping{
	{models.ErrUnknownCircuit, http.StatusNotFound, "circuit_not_found"},
	{lifecycle.ErrNoActiveCommitment, http.StatusNotFound, "no_active_commitment"},
	{lifecycle.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
	{service.ErrUnknownPool, http.StatusBadRequest, "unknown_pool"},
	{commitment.ErrScoreOutOfRange, http.StatusBadRequest, "invalid_score"},
	{proof.ErrValidation, http.StatusBadRequest, "invalid_request"},
	{proof.ErrCommitmentMismatch, http.StatusConflict, "commitment_mismatch"},
	{proof.ErrNonceMismatch, http.StatusConflict, "nonce_mismatch"},
	{lifecycle.ErrNonceRegression, http.StatusConflict, "nonce_mismatch"},
	{proof.ErrPredicateNotMet, http.StatusUnprocessableEntity, "predicate_not_met"},
	{proof.ErrExpiredArtifact, http.StatusGone, "expired"},
	{proof.ErrCircuitMismatch, http.StatusBadRequest, "circuit_mismatch"},
	{proof.ErrInvalidArtifact, http.StatusBadRequest, "invalid_artifact"},
}

// statusFor maps an error of the core packages to an HTTP status and code
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondServiceError writes err with its mapped status. Unmapped errors
// are not echoed to the client.
func respondServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondError(w, status, code, msg)
}

// isVerdict reports whether err is a negative verification result rather
// than a failure to verify
func isVerdict(err error) bool {
	return errors.Is(err, proof.ErrInvalidArtifact) ||
		errors.Is(err, proof.ErrCircuitMismatch) ||
		errors.Is(err, proof.ErrCommitmentMismatch) ||
		errors.Is(err, proof.ErrNonceMismatch)
}
