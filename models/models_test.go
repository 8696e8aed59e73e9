package models_test

import (
	"testing"
	"time"

	"github.com/mynextid/private-score/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForScore(t *testing.T) {
	cases := map[int]models.Tier{
		300: models.TierPoor,
		549: models.TierPoor,
		550: models.TierFair,
		669: models.TierFair,
		670: models.TierGood,
		739: models.TierGood,
		740: models.TierVeryGood,
		771: models.TierVeryGood,
		799: models.TierVeryGood,
		800: models.TierExcellent,
		850: models.TierExcellent,
	}
	for score, want := range cases {
		assert.Equal(t, want, models.TierForScore(score), "score %d", score)
	}
}

func TestTierCodes(t *testing.T) {
	for _, tier := range []models.Tier{models.TierPoor, models.TierFair, models.TierGood, models.TierVeryGood, models.TierExcellent} {
		require.Equal(t, tier, models.TierFromCode(tier.Code()))
	}
	require.Equal(t, models.TierUnknown, models.TierFromCode(0))
	require.Equal(t, models.TierUnknown, models.TierFromCode(9))

	require.False(t, models.TierFair.QualifiesForReducedCollateral())
	require.True(t, models.TierGood.QualifiesForReducedCollateral())
}

func TestLendingPool(t *testing.T) {
	p := models.LendingPool{
		PoolID:              1,
		MinCreditScore:      models.DefaultMinCreditScore,
		BaseCollateralBps:   models.DefaultBaseCollateralBps,
		CreditCollateralBps: models.DefaultCreditCollateralBps,
	}
	require.NoError(t, p.Validate())
	require.Equal(t, uint64(15000), p.RequiredCollateral(10000, false))
	require.Equal(t, uint64(12000), p.RequiredCollateral(10000, true))
	require.Equal(t, uint32(3000), p.CollateralSavingsBps())

	// no overflow near the top of the range
	require.Equal(t, uint64(12000)<<49, p.RequiredCollateral(uint64(10000)<<49, true))

	bad := p
	bad.CreditCollateralBps = 16000
	require.ErrorIs(t, bad.Validate(), models.ErrInvalidCollateralRatio)

	bad = p
	bad.BaseCollateralBps = 9000
	require.ErrorIs(t, bad.Validate(), models.ErrInvalidCollateralRatio)

	bad = p
	bad.MinCreditScore = 900
	require.ErrorIs(t, bad.Validate(), models.ErrInvalidPoolScore)
}

func TestCommitmentRecordExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := models.CommitmentRecord{Hash: "h", Salt: "s", Nonce: 3, ExpiresAt: now.Add(models.CommitmentValidity)}

	require.Equal(t, 30, r.ExpiresIn(now))
	require.Equal(t, 1, r.ExpiresIn(r.ExpiresAt.Add(-time.Minute)))
	require.Equal(t, 0, r.ExpiresIn(r.ExpiresAt))
	require.Equal(t, -1, r.ExpiresIn(r.ExpiresAt.Add(time.Minute)))

	d := r.Data(now)
	require.Equal(t, models.CommitmentData{Hash: "h", Salt: "s", Nonce: 3, ExpiresIn: 30}, d)

	pub := r.Public(now)
	require.Equal(t, "h", pub.Hash)
	require.Equal(t, 30, pub.ExpiresIn)
}

func TestParseCircuit(t *testing.T) {
	for _, c := range models.Circuits {
		got, err := models.ParseCircuit(string(c))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	require.Equal(t, time.Hour, models.CircuitDTIRatio.Validity())
	require.Equal(t, 24*time.Hour, models.CircuitCreditworthy.Validity())
	require.True(t, models.CircuitCreditworthy.Composite())
}
