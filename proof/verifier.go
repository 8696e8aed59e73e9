package proof

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mynextid/private-score/models"
)

const (
	minProofBytes        = 64
	minPublicInputsBytes = 32
)

// publicInputCount is the number of public inputs each circuit carries
var publicInputCount = map[models.Circuit]int{
	models.CircuitScoreThreshold: 5,
	models.CircuitDTIRatio:       4,
	models.CircuitPaymentHistory: 5,
	models.CircuitCreditworthy:   8,
}

// Verifier performs the checks a consumer can run without private inputs
type Verifier struct {
	backend ProofBackend
}

func NewVerifier(backend ProofBackend) *Verifier {
	return &Verifier{backend: backend}
}

// VerifyStructure checks that p is a well-formed proof for circuit. It does
// not check the predicate; that is the on-chain verifier's job.
func (v *Verifier) VerifyStructure(p models.GeneratedProof, circuit models.Circuit) error {
	if err := v.checkInputs(p.Proof, p.PublicInputs, circuit); err != nil {
		return err
	}
	if p.PublicInputs[0] != p.Commitment {
		return WrapInvalidArtifactError("first public input is not the commitment")
	}
	if !p.ExpiresAt.After(p.Timestamp) {
		return WrapInvalidArtifactError("validity window is empty")
	}
	return nil
}

// VerifyBytes checks the buffer pair produced by EncodeForVerifier as a
// lending program receives it, and returns the proof rebuilt from it. The
// validity window is only known for circuits that carry a timestamp input;
// for the others Timestamp and ExpiresAt stay zero.
func (v *Verifier) VerifyBytes(proofBytes, publicInputsBytes []byte, circuit models.Circuit) (models.GeneratedProof, error) {
	if len(proofBytes) < minProofBytes {
		return models.GeneratedProof{}, WrapInvalidArtifactError(fmt.Sprintf("proof is %d bytes, minimum %d", len(proofBytes), minProofBytes))
	}
	if len(publicInputsBytes) < minPublicInputsBytes {
		return models.GeneratedProof{}, WrapInvalidArtifactError(fmt.Sprintf("public inputs are %d bytes, minimum %d", len(publicInputsBytes), minPublicInputsBytes))
	}

	artifact, err := DeserializeArtifact(proofBytes)
	if err != nil {
		return models.GeneratedProof{}, err
	}
	inputs := DecodePublicInputs(publicInputsBytes)
	if err := v.checkInputs(artifact, inputs, circuit); err != nil {
		return models.GeneratedProof{}, err
	}

	p := models.GeneratedProof{Proof: artifact, PublicInputs: inputs, Commitment: inputs[0]}
	if idx := timestampIndex(circuit); idx >= 0 {
		ts, _ := strconv.ParseInt(inputs[idx], 10, 64)
		p.Timestamp = time.Unix(ts, 0).UTC()
		p.ExpiresAt = p.Timestamp.Add(circuit.Validity())
	}
	return p, nil
}

func (v *Verifier) checkInputs(a models.ProofArtifact, inputs []string, circuit models.Circuit) error {
	if err := v.backend.VerifyStructure(a, circuit); err != nil {
		return err
	}

	want, ok := publicInputCount[circuit]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownCircuit, circuit)
	}
	if len(inputs) != want {
		return WrapInvalidArtifactError(fmt.Sprintf("%d public inputs, expected %d", len(inputs), want))
	}
	if inputs[0] == "" {
		return WrapInvalidArtifactError("commitment input is empty")
	}
	for _, s := range inputs[1:] {
		if _, err := strconv.ParseUint(s, 10, 64); err != nil {
			return WrapInvalidArtifactError(fmt.Sprintf("public input %q is not a decimal", s))
		}
	}
	return nil
}

// timestampIndex is the position of the generation time in the public
// inputs, or -1 when the circuit does not carry one
func timestampIndex(c models.Circuit) int {
	switch c {
	case models.CircuitScoreThreshold, models.CircuitCreditworthy:
		return publicInputCount[c] - 1
	}
	return -1
}

// IsExpired reports whether p is past its validity window at now
func IsExpired(p models.GeneratedProof, now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Nonce extracts the nonce a proof is bound to
func Nonce(p models.GeneratedProof) (uint64, error) {
	idx := nonceIndex(p.Proof.Circuit)
	if idx < 0 || idx >= len(p.PublicInputs) {
		return 0, WrapInvalidArtifactError("no nonce in public inputs")
	}
	n, err := strconv.ParseUint(p.PublicInputs[idx], 10, 64)
	if err != nil {
		return 0, WrapInvalidArtifactError(fmt.Sprintf("nonce %q is not a decimal", p.PublicInputs[idx]))
	}
	return n, nil
}

// PoolID extracts the pool a proof is bound to
func PoolID(p models.GeneratedProof) (uint64, error) {
	idx := poolIndex(p.Proof.Circuit)
	if idx < 0 || idx >= len(p.PublicInputs) {
		return 0, WrapInvalidArtifactError("no pool id in public inputs")
	}
	n, err := strconv.ParseUint(p.PublicInputs[idx], 10, 64)
	if err != nil {
		return 0, WrapInvalidArtifactError(fmt.Sprintf("pool id %q is not a decimal", p.PublicInputs[idx]))
	}
	return n, nil
}

// CheckSubmission runs the sanity checks a lending program applies before
// accepting p against the wallet's current record
func (v *Verifier) CheckSubmission(p models.GeneratedProof, record models.CommitmentRecord, now time.Time) error {
	if err := v.VerifyStructure(p, p.Proof.Circuit); err != nil {
		return err
	}

	proofBytes, publicBytes, err := EncodeForVerifier(p)
	if err != nil {
		return err
	}
	if len(proofBytes) < minProofBytes {
		return WrapInvalidArtifactError(fmt.Sprintf("proof is %d bytes, minimum %d", len(proofBytes), minProofBytes))
	}
	if len(publicBytes) < minPublicInputsBytes {
		return WrapInvalidArtifactError(fmt.Sprintf("public inputs are %d bytes, minimum %d", len(publicBytes), minPublicInputsBytes))
	}

	if normalizeHex(p.Commitment) != normalizeHex(record.Hash) {
		return fmt.Errorf("%w: proof is bound to another commitment", ErrCommitmentMismatch)
	}
	nonce, err := Nonce(p)
	if err != nil {
		return err
	}
	if nonce != record.Nonce {
		return fmt.Errorf("%w: proof=%d, record=%d", ErrNonceMismatch, nonce, record.Nonce)
	}
	if IsExpired(p, now) {
		return fmt.Errorf("%w: expired at %s", ErrExpiredArtifact, p.ExpiresAt.Format(time.RFC3339))
	}
	if record.ExpiresIn(now) <= 0 {
		return fmt.Errorf("%w: commitment expired at %s", ErrExpiredArtifact, record.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}
