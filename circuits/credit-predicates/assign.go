package ccp

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
)

// Template returns an empty circuit for compilation
func Template(c models.Circuit) (frontend.Circuit, error) {
	switch c {
	case models.CircuitScoreThreshold:
		return &ScoreThresholdCircuit{}, nil
	case models.CircuitDTIRatio:
		return &DTIRatioCircuit{}, nil
	case models.CircuitPaymentHistory:
		return &PaymentHistoryCircuit{}, nil
	case models.CircuitCreditworthy:
		return &CreditworthyCircuit{}, nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrUnknownCircuit, c)
}

func bytes32(b []byte, name string) ([32]uints.U8, error) {
	var out [32]uints.U8
	u, err := common.FixedU8Array(b, 32)
	if err != nil {
		return out, fmt.Errorf("%s: %w", name, err)
	}
	copy(out[:], u)
	return out, nil
}

// Assign builds the full witness assignment of circuit c from w
func Assign(c models.Circuit, w proof.Witness) (frontend.Circuit, error) {
	salt, err := bytes32(w.Salt, "salt")
	if err != nil {
		return nil, err
	}
	commitment, err := bytes32(w.Commitment, "commitment")
	if err != nil {
		return nil, err
	}

	switch c {
	case models.CircuitScoreThreshold:
		return &ScoreThresholdCircuit{
			Score:      w.Score,
			Salt:       salt,
			Commitment: commitment,
			MinScore:   w.MinScore,
			PoolID:     w.PoolID,
			Nonce:      w.Nonce,
			Timestamp:  w.Timestamp,
		}, nil
	case models.CircuitDTIRatio:
		return &DTIRatioCircuit{
			Score:      w.Score,
			Salt:       salt,
			TotalDebt:  w.TotalDebt,
			Income:     w.Income,
			Commitment: commitment,
			MaxDTIBps:  w.MaxDTIBps,
			PoolID:     w.PoolID,
			Nonce:      w.Nonce,
		}, nil
	case models.CircuitPaymentHistory:
		return &PaymentHistoryCircuit{
			Score:            w.Score,
			Salt:             salt,
			OnTimePayments:   w.OnTimePayments,
			TotalPayments:    w.TotalPayments,
			Commitment:       commitment,
			MinOnTimeRateBps: w.MinOnTimeRateBps,
			MinPayments:      w.MinPayments,
			PoolID:           w.PoolID,
			Nonce:            w.Nonce,
		}, nil
	case models.CircuitCreditworthy:
		return &CreditworthyCircuit{
			Score:            w.Score,
			Salt:             salt,
			TotalDebt:        w.TotalDebt,
			Income:           w.Income,
			OnTimePayments:   w.OnTimePayments,
			TotalPayments:    w.TotalPayments,
			Commitment:       commitment,
			MinScore:         w.MinScore,
			MaxDTIBps:        w.MaxDTIBps,
			MinOnTimeRateBps: w.MinOnTimeRateBps,
			MinPayments:      w.MinPayments,
			PoolID:           w.PoolID,
			Nonce:            w.Nonce,
			Timestamp:        w.Timestamp,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrUnknownCircuit, c)
}
