package ccp

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

const (
	scoreBits = 16
	bpsBits   = 32
	countBits = 64
	bpsScale  = 10000
)

// AssertCommitment recomputes SHA-256(BE32(score) || salt) and asserts it
// equals the public commitment. Score is bounded to [300, 850].
func AssertCommitment(api frontend.API, score frontend.Variable, salt, commitment []uints.U8) error {
	uapi, err := uints.New[uints.U32](api)
	if err != nil {
		return err
	}

	common.AssertInRange(api, score, models.MinScore, models.MaxScore, scoreBits)

	bits := api.ToBinary(score, scoreBits)
	lo := uapi.ByteValueOf(api.FromBinary(bits[:8]...))
	hi := uapi.ByteValueOf(api.FromBinary(bits[8:]...))

	// 32 byte big-endian score: 30 zero bytes then hi, lo
	encoded := make([]uints.U8, 32)
	for i := range 30 {
		encoded[i] = uints.U8{Val: 0}
	}
	encoded[30] = hi
	encoded[31] = lo

	digest, err := common.SHA256(api, encoded, salt)
	if err != nil {
		return err
	}
	common.CompareBytes(api, digest, commitment)
	return nil
}

// bindContext pins the replay parameters into the proof. Nonce 0 is never
// issued.
func bindContext(api frontend.API, poolID, nonce frontend.Variable) {
	api.ToBinary(poolID, countBits)
	api.ToBinary(nonce, countBits)
	api.AssertIsDifferent(nonce, 0)
}

func assertThreshold(api frontend.API, score, minScore frontend.Variable) {
	api.ToBinary(minScore, scoreBits)
	api.AssertIsLessOrEqual(minScore, score)
}

// assertDTI asserts debt * 10000 <= maxBps * income with income != 0
func assertDTI(api frontend.API, debt, income, maxBps frontend.Variable) {
	api.ToBinary(debt, countBits)
	api.ToBinary(income, countBits)
	api.ToBinary(maxBps, bpsBits)
	api.AssertIsDifferent(income, 0)

	api.AssertIsLessOrEqual(api.Mul(debt, bpsScale), api.Mul(maxBps, income))
}

// assertPayments asserts onTime <= total, minPayments <= total and
// minRateBps * total <= onTime * 10000. With no payments only a zero rate
// holds.
func assertPayments(api frontend.API, onTime, total, minRateBps, minPayments frontend.Variable) {
	api.ToBinary(onTime, countBits)
	api.ToBinary(total, countBits)
	api.ToBinary(minRateBps, bpsBits)
	api.ToBinary(minPayments, countBits)

	api.AssertIsLessOrEqual(onTime, total)
	api.AssertIsLessOrEqual(minPayments, total)
	api.AssertIsLessOrEqual(api.Mul(minRateBps, total), api.Mul(onTime, bpsScale))
	api.AssertIsEqual(api.Mul(api.IsZero(total), minRateBps), 0)
}
