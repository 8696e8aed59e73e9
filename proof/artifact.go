package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mynextid/private-score/models"
)

// SerializeArtifact encodes an artifact in its wire form
func SerializeArtifact(a models.ProofArtifact) ([]byte, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize proof: %w", err)
	}
	return b, nil
}

// DeserializeArtifact decodes the wire form of an artifact
func DeserializeArtifact(b []byte) (models.ProofArtifact, error) {
	var a models.ProofArtifact
	if err := json.Unmarshal(b, &a); err != nil {
		return models.ProofArtifact{}, WrapInvalidArtifactError(err.Error())
	}
	return a, nil
}

// EncodeForVerifier returns the two buffers submitted to an on-chain
// verifier: the serialized artifact and the comma joined public inputs
func EncodeForVerifier(p models.GeneratedProof) (proofBytes, publicInputsBytes []byte, err error) {
	proofBytes, err = SerializeArtifact(p.Proof)
	if err != nil {
		return nil, nil, err
	}
	return proofBytes, []byte(strings.Join(p.PublicInputs, ",")), nil
}

// DecodePublicInputs splits a public inputs buffer
func DecodePublicInputs(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	return strings.Split(string(b), ",")
}

// ProofHash is the audit digest of a serialized proof
func ProofHash(proofBytes []byte) string {
	sum := sha256.Sum256(proofBytes)
	return hex.EncodeToString(sum[:])
}
