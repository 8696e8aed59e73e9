package proof

import (
	"context"

	"github.com/mynextid/private-score/models"
)

// ProtocolTag is the protocol string carried by every artifact
const ProtocolTag = "groth16"

// Witness is the full assignment of a proof statement. Fields not used by
// a circuit are zero. It must never be logged; String redacts it.
type Witness struct {
	// private
	Score          uint64
	Salt           []byte
	TotalDebt      uint64
	Income         uint64
	OnTimePayments uint64
	TotalPayments  uint64

	// public
	Commitment       []byte
	MinScore         uint64
	MaxDTIBps        uint64
	MinOnTimeRateBps uint64
	MinPayments      uint64
	PoolID           uint64
	Nonce            uint64
	Timestamp        uint64
}

func (Witness) String() string   { return "proof.Witness{redacted}" }
func (Witness) GoString() string { return "proof.Witness{redacted}" }

// Statement is a validated request handed to a backend
type Statement struct {
	Circuit      models.Circuit
	Witness      Witness
	PublicInputs []string
}

// ProofBackend produces and structurally checks proof artifacts. The
// generator only calls Generate after every predicate has been checked.
type ProofBackend interface {
	Generate(ctx context.Context, st Statement) (models.ProofArtifact, error)
	VerifyStructure(artifact models.ProofArtifact, circuit models.Circuit) error
}
