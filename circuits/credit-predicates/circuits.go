// Package ccp holds the credit predicate circuits. Each circuit opens the
// public score commitment and checks its predicate over private values.
// Public fields are declared in the same order as the proof public inputs.
package ccp

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
)

type ScoreThresholdCircuit struct {
	// Secret input
	Score frontend.Variable `gnark:",secret"`
	Salt  [32]uints.U8      `gnark:",secret"`

	// Public input
	Commitment [32]uints.U8      `gnark:",public"`
	MinScore   frontend.Variable `gnark:",public"`
	PoolID     frontend.Variable `gnark:",public"`
	Nonce      frontend.Variable `gnark:",public"`
	Timestamp  frontend.Variable `gnark:",public"`
}

func (c *ScoreThresholdCircuit) Define(api frontend.API) error {
	if err := AssertCommitment(api, c.Score, c.Salt[:], c.Commitment[:]); err != nil {
		return err
	}
	assertThreshold(api, c.Score, c.MinScore)
	bindContext(api, c.PoolID, c.Nonce)
	api.ToBinary(c.Timestamp, countBits)
	return nil
}

type DTIRatioCircuit struct {
	Score     frontend.Variable `gnark:",secret"`
	Salt      [32]uints.U8      `gnark:",secret"`
	TotalDebt frontend.Variable `gnark:",secret"`
	Income    frontend.Variable `gnark:",secret"`

	Commitment [32]uints.U8      `gnark:",public"`
	MaxDTIBps  frontend.Variable `gnark:",public"`
	PoolID     frontend.Variable `gnark:",public"`
	Nonce      frontend.Variable `gnark:",public"`
}

func (c *DTIRatioCircuit) Define(api frontend.API) error {
	if err := AssertCommitment(api, c.Score, c.Salt[:], c.Commitment[:]); err != nil {
		return err
	}
	assertDTI(api, c.TotalDebt, c.Income, c.MaxDTIBps)
	bindContext(api, c.PoolID, c.Nonce)
	return nil
}

type PaymentHistoryCircuit struct {
	Score          frontend.Variable `gnark:",secret"`
	Salt           [32]uints.U8      `gnark:",secret"`
	OnTimePayments frontend.Variable `gnark:",secret"`
	TotalPayments  frontend.Variable `gnark:",secret"`

	Commitment       [32]uints.U8      `gnark:",public"`
	MinOnTimeRateBps frontend.Variable `gnark:",public"`
	MinPayments      frontend.Variable `gnark:",public"`
	PoolID           frontend.Variable `gnark:",public"`
	Nonce            frontend.Variable `gnark:",public"`
}

func (c *PaymentHistoryCircuit) Define(api frontend.API) error {
	if err := AssertCommitment(api, c.Score, c.Salt[:], c.Commitment[:]); err != nil {
		return err
	}
	assertPayments(api, c.OnTimePayments, c.TotalPayments, c.MinOnTimeRateBps, c.MinPayments)
	bindContext(api, c.PoolID, c.Nonce)
	return nil
}

// CreditworthyCircuit checks all three predicates against one commitment
type CreditworthyCircuit struct {
	Score          frontend.Variable `gnark:",secret"`
	Salt           [32]uints.U8      `gnark:",secret"`
	TotalDebt      frontend.Variable `gnark:",secret"`
	Income         frontend.Variable `gnark:",secret"`
	OnTimePayments frontend.Variable `gnark:",secret"`
	TotalPayments  frontend.Variable `gnark:",secret"`

	Commitment       [32]uints.U8      `gnark:",public"`
	MinScore         frontend.Variable `gnark:",public"`
	MaxDTIBps        frontend.Variable `gnark:",public"`
	MinOnTimeRateBps frontend.Variable `gnark:",public"`
	MinPayments      frontend.Variable `gnark:",public"`
	PoolID           frontend.Variable `gnark:",public"`
	Nonce            frontend.Variable `gnark:",public"`
	Timestamp        frontend.Variable `gnark:",public"`
}

func (c *CreditworthyCircuit) Define(api frontend.API) error {
	if err := AssertCommitment(api, c.Score, c.Salt[:], c.Commitment[:]); err != nil {
		return err
	}
	assertThreshold(api, c.Score, c.MinScore)
	assertDTI(api, c.TotalDebt, c.Income, c.MaxDTIBps)
	assertPayments(api, c.OnTimePayments, c.TotalPayments, c.MinOnTimeRateBps, c.MinPayments)
	bindContext(api, c.PoolID, c.Nonce)
	api.ToBinary(c.Timestamp, countBits)
	return nil
}
