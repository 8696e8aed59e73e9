package proof

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mynextid/private-score/models"
)

const (
	simulatedDomain  = "privatescore/simulated/v1"
	simulatedElemLen = 2 * sha256.Size
)

var elementNames = [3]string{"pi_a", "pi_b", "pi_c"}

type slot struct {
	name   string
	role   string
	values []uint64
}

// SimulatedBackend derives proof elements as one-way digests of the
// private values backing each slot. It has no soundness; it stands in for
// a real prover with the same artifact shape.
type SimulatedBackend struct {
	// Latency delays Generate, honouring context cancellation
	Latency time.Duration
}

var _ ProofBackend = (*SimulatedBackend)(nil)

// NewSimulatedBackend returns a backend with no artificial latency
func NewSimulatedBackend() *SimulatedBackend {
	return &SimulatedBackend{}
}

func slotsFor(c models.Circuit, w Witness) ([3]slot, error) {
	switch c {
	case models.CircuitScoreThreshold:
		return [3]slot{
			{"pi_a", "commitment", []uint64{w.Score}},
			{"pi_b", "range", []uint64{w.Score}},
			{"pi_c", "threshold", []uint64{w.Score}},
		}, nil
	case models.CircuitDTIRatio:
		return [3]slot{
			{"pi_a", "commitment", []uint64{w.Score}},
			{"pi_b", "debt", []uint64{w.TotalDebt}},
			{"pi_c", "income", []uint64{w.Income}},
		}, nil
	case models.CircuitPaymentHistory:
		return [3]slot{
			{"pi_a", "commitment", []uint64{w.Score}},
			{"pi_b", "on_time", []uint64{w.OnTimePayments}},
			{"pi_c", "total", []uint64{w.TotalPayments}},
		}, nil
	case models.CircuitCreditworthy:
		return [3]slot{
			{"pi_a", "score", []uint64{w.Score}},
			{"pi_b", "dti", []uint64{w.TotalDebt, w.Income}},
			{"pi_c", "payment", []uint64{w.OnTimePayments, w.TotalPayments}},
		}, nil
	}
	return [3]slot{}, fmt.Errorf("%w: %s", models.ErrUnknownCircuit, c)
}

func element(c models.Circuit, s slot, salt []byte, public []string) string {
	h := sha256.New()
	h.Write([]byte(simulatedDomain))
	h.Write([]byte{0})
	h.Write([]byte(c))
	h.Write([]byte{0})
	h.Write([]byte(s.name))
	h.Write([]byte{0})
	h.Write([]byte(s.role))
	h.Write([]byte{0})

	var buf [8]byte
	for _, v := range s.values {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	h.Write(salt)
	h.Write([]byte(strings.Join(public, ",")))

	return hex.EncodeToString(h.Sum(nil))
}

// Generate builds the artifact for st
func (b *SimulatedBackend) Generate(ctx context.Context, st Statement) (models.ProofArtifact, error) {
	slots, err := slotsFor(st.Circuit, st.Witness)
	if err != nil {
		return models.ProofArtifact{}, err
	}

	if b.Latency > 0 {
		t := time.NewTimer(b.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return models.ProofArtifact{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return models.ProofArtifact{}, err
	}

	a := models.ProofArtifact{
		PiA:      element(st.Circuit, slots[0], st.Witness.Salt, st.PublicInputs),
		PiB:      element(st.Circuit, slots[1], st.Witness.Salt, st.PublicInputs),
		PiC:      element(st.Circuit, slots[2], st.Witness.Salt, st.PublicInputs),
		Protocol: ProtocolTag,
		Circuit:  st.Circuit,
	}
	if st.Circuit.Composite() {
		a.Checks = slices.Clone(models.CompositeChecks)
	}
	return a, nil
}

// VerifyStructure checks the shape of a simulated artifact
func (b *SimulatedBackend) VerifyStructure(a models.ProofArtifact, circuit models.Circuit) error {
	if err := CheckEnvelope(a, circuit); err != nil {
		return err
	}
	for i, e := range []string{a.PiA, a.PiB, a.PiC} {
		name := elementNames[i]
		if len(e) != simulatedElemLen {
			return WrapInvalidArtifactError(fmt.Sprintf("%s has length %d, expected %d", name, len(e), simulatedElemLen))
		}
		if _, err := hex.DecodeString(e); err != nil {
			return WrapInvalidArtifactError(fmt.Sprintf("%s is not hex", name))
		}
	}
	return nil
}

// CheckEnvelope validates the backend independent fields of an artifact
func CheckEnvelope(a models.ProofArtifact, circuit models.Circuit) error {
	if a.PiA == "" || a.PiB == "" || a.PiC == "" {
		return WrapInvalidArtifactError("missing proof element")
	}
	if a.Protocol != ProtocolTag {
		return WrapInvalidArtifactError(fmt.Sprintf("unexpected protocol %q", a.Protocol))
	}
	if a.Circuit != circuit {
		return fmt.Errorf("%w: artifact=%s, expected=%s", ErrCircuitMismatch, a.Circuit, circuit)
	}
	if circuit.Composite() {
		if !slices.Equal(a.Checks, models.CompositeChecks) {
			return WrapInvalidArtifactError(fmt.Sprintf("composite checks %v, expected %v", a.Checks, models.CompositeChecks))
		}
	} else if len(a.Checks) != 0 {
		return WrapInvalidArtifactError("checks present on a single predicate proof")
	}
	return nil
}
