package models

import "math/big"

const (
	DefaultMinCreditScore      = 650
	DefaultBaseCollateralBps   = 15000
	DefaultCreditCollateralBps = 12000
)

// LendingPool describes the parameters a lender publishes for
// credit-verified borrowing
type LendingPool struct {
	PoolID              uint64 `json:"poolId" yaml:"pool_id"`
	Name                string `json:"name" yaml:"name"`
	MinCreditScore      int    `json:"minCreditScore" yaml:"min_credit_score"`
	BaseCollateralBps   uint32 `json:"baseCollateralBps" yaml:"base_collateral_bps"`
	CreditCollateralBps uint32 `json:"creditCollateralBps" yaml:"credit_collateral_bps"`
}

// CollateralRatioBps returns the ratio applied to a borrower
func (p LendingPool) CollateralRatioBps(creditVerified bool) uint32 {
	if creditVerified {
		return p.CreditCollateralBps
	}
	return p.BaseCollateralBps
}

// RequiredCollateral is amount * ratio / 10000, computed without overflow
func (p LendingPool) RequiredCollateral(amount uint64, creditVerified bool) uint64 {
	v := new(big.Int).SetUint64(amount)
	v.Mul(v, new(big.Int).SetUint64(uint64(p.CollateralRatioBps(creditVerified))))
	v.Quo(v, big.NewInt(10000))
	return v.Uint64()
}

// CollateralSavingsBps is the ratio difference between standard and
// credit-verified borrowing
func (p LendingPool) CollateralSavingsBps() uint32 {
	if p.CreditCollateralBps >= p.BaseCollateralBps {
		return 0
	}
	return p.BaseCollateralBps - p.CreditCollateralBps
}

// Validate checks the ratio invariants of a pool
func (p LendingPool) Validate() error {
	if p.BaseCollateralBps < 10000 || p.CreditCollateralBps < 10000 {
		return ErrInvalidCollateralRatio
	}
	if p.CreditCollateralBps > p.BaseCollateralBps {
		return ErrInvalidCollateralRatio
	}
	if p.MinCreditScore < MinScore || p.MinCreditScore > MaxScore {
		return ErrInvalidPoolScore
	}
	return nil
}
