package models

import (
	"fmt"
	"time"
)

// Circuit names the predicate a proof attests to
type Circuit string

const (
	CircuitScoreThreshold Circuit = "prove_score_threshold"
	CircuitDTIRatio       Circuit = "prove_dti_ratio"
	CircuitPaymentHistory Circuit = "prove_payment_history"
	CircuitCreditworthy   Circuit = "prove_creditworthy"
)

// Circuits lists every supported circuit
var Circuits = []Circuit{
	CircuitScoreThreshold,
	CircuitDTIRatio,
	CircuitPaymentHistory,
	CircuitCreditworthy,
}

// Composite checks carried by a creditworthy proof, in order
const (
	CheckScoreThreshold = "score_threshold"
	CheckDTIRatio       = "dti_ratio"
	CheckPaymentHistory = "payment_history"
)

var CompositeChecks = []string{CheckScoreThreshold, CheckDTIRatio, CheckPaymentHistory}

// ParseCircuit validates a circuit name
func ParseCircuit(s string) (Circuit, error) {
	for _, c := range Circuits {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCircuit, s)
}

// Composite reports whether the circuit checks several predicates
func (c Circuit) Composite() bool {
	return c == CircuitCreditworthy
}

// Validity is how long a proof of this circuit stays acceptable
func (c Circuit) Validity() time.Duration {
	if c.Composite() {
		return 24 * time.Hour
	}
	return time.Hour
}

// ProofArtifact is the opaque proof object handed to a verifier
type ProofArtifact struct {
	PiA      string   `json:"pi_a"`
	PiB      string   `json:"pi_b"`
	PiC      string   `json:"pi_c"`
	Protocol string   `json:"protocol"`
	Circuit  Circuit  `json:"circuit"`
	Checks   []string `json:"checks,omitempty"`
	// Raw is the backend native proof encoding, if the backend has one
	Raw []byte `json:"raw,omitempty"`
}

// GeneratedProof is a produced proof together with its public context
type GeneratedProof struct {
	Proof        ProofArtifact `json:"proof"`
	PublicInputs []string      `json:"publicInputs"`
	Commitment   string        `json:"commitment"`
	Timestamp    time.Time     `json:"timestamp"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}
