package gnarkbackend

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/mynextid/private-score/commitment"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
)

// publicWitness rebuilds the public part of a witness from the wire
// public inputs. Secret fields are zero.
func publicWitness(c models.Circuit, public []string) (proof.Witness, error) {
	var names []string
	switch c {
	case models.CircuitScoreThreshold:
		names = []string{"minScore", "poolId", "nonce", "timestamp"}
	case models.CircuitDTIRatio:
		names = []string{"maxDtiBps", "poolId", "nonce"}
	case models.CircuitPaymentHistory:
		names = []string{"minOnTimeRateBps", "minPayments", "poolId", "nonce"}
	case models.CircuitCreditworthy:
		names = []string{"minScore", "maxDtiBps", "minOnTimeRateBps", "minPayments", "poolId", "nonce", "timestamp"}
	default:
		return proof.Witness{}, fmt.Errorf("%w: %s", models.ErrUnknownCircuit, c)
	}
	if len(public) != len(names)+1 {
		return proof.Witness{}, proof.WrapInvalidArtifactError(fmt.Sprintf("%d public inputs, expected %d", len(public), len(names)+1))
	}

	hash, err := hex.DecodeString(public[0])
	if err != nil || len(hash) != commitment.HashSize {
		return proof.Witness{}, proof.WrapInvalidArtifactError("commitment is not a 32 byte hex digest")
	}

	w := proof.Witness{
		Salt:       make([]byte, commitment.SaltSize),
		Commitment: hash,
	}
	for i, name := range names {
		v, err := strconv.ParseUint(public[i+1], 10, 64)
		if err != nil {
			return proof.Witness{}, proof.WrapInvalidArtifactError(fmt.Sprintf("%s %q is not a decimal", name, public[i+1]))
		}
		switch name {
		case "minScore":
			w.MinScore = v
		case "maxDtiBps":
			w.MaxDTIBps = v
		case "minOnTimeRateBps":
			w.MinOnTimeRateBps = v
		case "minPayments":
			w.MinPayments = v
		case "poolId":
			w.PoolID = v
		case "nonce":
			w.Nonce = v
		case "timestamp":
			w.Timestamp = v
		}
	}
	return w, nil
}
