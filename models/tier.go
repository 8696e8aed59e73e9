package models

// Tier is the coarse credit band derived from a final score
type Tier string

const (
	TierUnknown   Tier = "Unknown"
	TierPoor      Tier = "Poor"
	TierFair      Tier = "Fair"
	TierGood      Tier = "Good"
	TierVeryGood  Tier = "Very Good"
	TierExcellent Tier = "Excellent"
)

var tierOrder = []Tier{TierExcellent, TierVeryGood, TierGood, TierFair, TierPoor}

// MinScore is the lowest final score that falls in the tier
func (t Tier) MinScore() int {
	switch t {
	case TierPoor:
		return 300
	case TierFair:
		return 550
	case TierGood:
		return 670
	case TierVeryGood:
		return 740
	case TierExcellent:
		return 800
	}
	return 0
}

// QualifiesForReducedCollateral reports whether lenders may apply the
// credit-verified collateral ratio
func (t Tier) QualifiesForReducedCollateral() bool {
	return t == TierGood || t == TierVeryGood || t == TierExcellent
}

// Code is the single byte encoding of t, 0 for unknown
func (t Tier) Code() uint8 {
	switch t {
	case TierPoor:
		return 1
	case TierFair:
		return 2
	case TierGood:
		return 3
	case TierVeryGood:
		return 4
	case TierExcellent:
		return 5
	}
	return 0
}

// TierFromCode decodes a tier byte
func TierFromCode(c uint8) Tier {
	switch c {
	case 1:
		return TierPoor
	case 2:
		return TierFair
	case 3:
		return TierGood
	case 4:
		return TierVeryGood
	case 5:
		return TierExcellent
	}
	return TierUnknown
}

// TierForScore maps a final score to its tier
func TierForScore(score int) Tier {
	for _, t := range tierOrder {
		if score >= t.MinScore() {
			return t
		}
	}
	return TierPoor
}
