// Package gnarkbackend proves the credit predicates with Groth16 over
// BN254. The artifact elements are the compressed proof points and Raw
// carries the full gnark encoding, which Verify checks against the loaded
// verifying key.
package gnarkbackend

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	groth16bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	ccp "github.com/mynextid/private-score/circuits/credit-predicates"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
)

const (
	g1HexLen = 64
	g2HexLen = 128
)

// Backend generates real Groth16 proofs with the circuits of a registry
type Backend struct {
	registry *CircuitRegistry
	logger   common.Logger
}

var _ proof.ProofBackend = (*Backend)(nil)

// NewBackend creates a backend over a loaded registry. gnark's own log
// output is redirected to logger at debug level.
func NewBackend(registry *CircuitRegistry, logger common.Logger) *Backend {
	logger = common.OrNop(logger)
	gnarklogger.Set(zerolog.New(logWriter{logger}).Level(zerolog.WarnLevel))
	return &Backend{registry: registry, logger: logger}
}

// Registry returns the circuits the backend proves with
func (b *Backend) Registry() *CircuitRegistry {
	return b.registry
}

type logWriter struct {
	logger common.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Debug("gnark", "event", strings.TrimSpace(string(p)))
	return len(p), nil
}

// Generate proves st. Proving itself is not interruptible; ctx is checked
// before and after.
func (b *Backend) Generate(ctx context.Context, st proof.Statement) (models.ProofArtifact, error) {
	if err := ctx.Err(); err != nil {
		return models.ProofArtifact{}, err
	}

	circuit, err := b.registry.Get(st.Circuit)
	if err != nil {
		return models.ProofArtifact{}, err
	}
	assignment, err := ccp.Assign(st.Circuit, st.Witness)
	if err != nil {
		return models.ProofArtifact{}, err
	}

	start := time.Now()
	p, err := circuit.Prove(assignment)
	if err != nil {
		return models.ProofArtifact{}, err
	}
	b.logger.Debug("groth16 proof generated", "circuit", st.Circuit, "duration", time.Since(start))

	if err := ctx.Err(); err != nil {
		return models.ProofArtifact{}, err
	}

	return artifactFor(st.Circuit, p)
}

func artifactFor(c models.Circuit, p groth16.Proof) (models.ProofArtifact, error) {
	bn, ok := p.(*groth16bn254.Proof)
	if !ok {
		return models.ProofArtifact{}, fmt.Errorf("unexpected proof type %T", p)
	}
	raw, err := encodeProof(p)
	if err != nil {
		return models.ProofArtifact{}, err
	}

	ar := bn.Ar.Bytes()
	bs := bn.Bs.Bytes()
	krs := bn.Krs.Bytes()

	a := models.ProofArtifact{
		PiA:      hex.EncodeToString(ar[:]),
		PiB:      hex.EncodeToString(bs[:]),
		PiC:      hex.EncodeToString(krs[:]),
		Protocol: proof.ProtocolTag,
		Circuit:  c,
		Raw:      raw,
	}
	if c.Composite() {
		a.Checks = append([]string(nil), models.CompositeChecks...)
	}
	return a, nil
}

// VerifyStructure checks the envelope and that the elements match the raw
// proof encoding
func (b *Backend) VerifyStructure(a models.ProofArtifact, circuit models.Circuit) error {
	if err := proof.CheckEnvelope(a, circuit); err != nil {
		return err
	}
	if len(a.PiA) != g1HexLen || len(a.PiB) != g2HexLen || len(a.PiC) != g1HexLen {
		return proof.WrapInvalidArtifactError("proof elements are not compressed BN254 points")
	}
	if len(a.Raw) == 0 {
		return proof.WrapInvalidArtifactError("missing raw proof")
	}

	p, err := decodeProof(a.Raw)
	if err != nil {
		return proof.WrapInvalidArtifactError(err.Error())
	}
	decoded, err := artifactFor(circuit, p)
	if err != nil {
		return proof.WrapInvalidArtifactError(err.Error())
	}
	if decoded.PiA != a.PiA || decoded.PiB != a.PiB || decoded.PiC != a.PiC {
		return proof.WrapInvalidArtifactError("proof elements do not match the raw proof")
	}
	return nil
}

// Verify runs the Groth16 verifier for p against its public inputs
func (b *Backend) Verify(p models.GeneratedProof) error {
	if err := b.VerifyStructure(p.Proof, p.Proof.Circuit); err != nil {
		return err
	}
	circuit, err := b.registry.Get(p.Proof.Circuit)
	if err != nil {
		return err
	}

	w, err := publicWitness(p.Proof.Circuit, p.PublicInputs)
	if err != nil {
		return err
	}
	assignment, err := ccp.Assign(p.Proof.Circuit, w)
	if err != nil {
		return proof.WrapInvalidArtifactError(err.Error())
	}

	gp, err := decodeProof(p.Proof.Raw)
	if err != nil {
		return proof.WrapInvalidArtifactError(err.Error())
	}
	return circuit.Verify(assignment, gp)
}
