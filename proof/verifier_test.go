package proof_test

import (
	"context"
	"testing"
	"time"

	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
	"github.com/stretchr/testify/require"
)

func thresholdProof(t *testing.T, c committed, nonce uint64) models.GeneratedProof {
	t.Helper()
	g, _, _, _ := newGenerator(t)
	p, err := g.ProveScoreThreshold(context.Background(), proof.ScoreThresholdRequest{
		Score: c.score, Salt: c.salt, Commitment: c.hash, MinScore: 700, PoolID: 4, Nonce: nonce,
	})
	require.NoError(t, err)
	return p
}

func record(c committed, nonce uint64) models.CommitmentRecord {
	return models.CommitmentRecord{
		Address:      "wallet",
		Score:        c.score,
		Salt:         c.salt,
		Hash:         c.hash,
		Nonce:        nonce,
		RegisteredAt: start,
		UpdatedAt:    start,
		ExpiresAt:    start.Add(models.CommitmentValidity),
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	c := commit(t, 760)
	p := thresholdProof(t, c, 1)

	b, err := proof.SerializeArtifact(p.Proof)
	require.NoError(t, err)
	require.Contains(t, string(b), `"pi_a"`)
	require.NotContains(t, string(b), `"checks"`)

	a, err := proof.DeserializeArtifact(b)
	require.NoError(t, err)
	require.Equal(t, p.Proof, a)

	_, err = proof.DeserializeArtifact([]byte("{"))
	require.ErrorIs(t, err, proof.ErrInvalidArtifact)
}

func TestEncodeForVerifier(t *testing.T) {
	c := commit(t, 760)
	p := thresholdProof(t, c, 3)

	proofBytes, publicBytes, err := proof.EncodeForVerifier(p)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(proofBytes), 64)
	require.Equal(t, p.PublicInputs, proof.DecodePublicInputs(publicBytes))
	require.Len(t, proof.ProofHash(proofBytes), 64)
	require.Nil(t, proof.DecodePublicInputs(nil))
}

func TestNonceAndPool(t *testing.T) {
	c := commit(t, 760)
	p := thresholdProof(t, c, 7)

	n, err := proof.Nonce(p)
	require.NoError(t, err)
	require.Equal(t, uint64(7), n)

	pool, err := proof.PoolID(p)
	require.NoError(t, err)
	require.Equal(t, uint64(4), pool)

	p.PublicInputs = p.PublicInputs[:2]
	_, err = proof.Nonce(p)
	require.ErrorIs(t, err, proof.ErrInvalidArtifact)
}

func TestVerifyStructureRejectsTampering(t *testing.T) {
	v := proof.NewVerifier(proof.NewSimulatedBackend())
	c := commit(t, 760)
	base := thresholdProof(t, c, 1)

	cases := map[string]func(p *models.GeneratedProof){
		"short element": func(p *models.GeneratedProof) { p.Proof.PiB = "abcd" },
		"non hex":       func(p *models.GeneratedProof) { p.Proof.PiC = "zz" + p.Proof.PiC[2:] },
		"missing":       func(p *models.GeneratedProof) { p.Proof.PiA = "" },
		"protocol":      func(p *models.GeneratedProof) { p.Proof.Protocol = "plonk" },
		"checks":        func(p *models.GeneratedProof) { p.Proof.Checks = []string{models.CheckDTIRatio} },
		"input count":   func(p *models.GeneratedProof) { p.PublicInputs = p.PublicInputs[:4] },
		"commitment":    func(p *models.GeneratedProof) { p.Commitment = "00" },
		"decimal":       func(p *models.GeneratedProof) { p.PublicInputs[1] = "7e2" },
		"window":        func(p *models.GeneratedProof) { p.ExpiresAt = p.Timestamp },
	}

	require.NoError(t, v.VerifyStructure(base, models.CircuitScoreThreshold))
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			p.Proof.Checks = nil
			p.PublicInputs = append([]string(nil), base.PublicInputs...)
			mutate(&p)
			require.ErrorIs(t, v.VerifyStructure(p, models.CircuitScoreThreshold), proof.ErrInvalidArtifact)
		})
	}

	_, err := models.ParseCircuit("prove_age")
	require.ErrorIs(t, err, models.ErrUnknownCircuit)
}

func TestCompositeEnvelope(t *testing.T) {
	g, _, _, _ := newGenerator(t)
	c := commit(t, 760)
	p, err := g.ProveCreditworthy(context.Background(), creditworthy(c))
	require.NoError(t, err)

	v := proof.NewVerifier(g.Backend())
	require.NoError(t, v.VerifyStructure(p, models.CircuitCreditworthy))

	p.Proof.Checks = []string{models.CheckDTIRatio, models.CheckScoreThreshold, models.CheckPaymentHistory}
	require.ErrorIs(t, v.VerifyStructure(p, models.CircuitCreditworthy), proof.ErrInvalidArtifact)
}

func TestCheckSubmission(t *testing.T) {
	v := proof.NewVerifier(proof.NewSimulatedBackend())
	c := commit(t, 760)
	p := thresholdProof(t, c, 2)
	now := start.Add(10 * time.Minute)

	require.NoError(t, v.CheckSubmission(p, record(c, 2), now))

	require.ErrorIs(t, v.CheckSubmission(p, record(c, 3), now), proof.ErrNonceMismatch)
	require.ErrorIs(t, v.CheckSubmission(p, record(commit(t, 760), 2), now), proof.ErrCommitmentMismatch)
	require.ErrorIs(t, v.CheckSubmission(p, record(c, 2), start.Add(2*time.Hour)), proof.ErrExpiredArtifact)

	stale := record(c, 2)
	stale.ExpiresAt = start.Add(5 * time.Minute)
	require.ErrorIs(t, v.CheckSubmission(p, stale, now), proof.ErrExpiredArtifact)
}

func TestVerifyBytes(t *testing.T) {
	v := proof.NewVerifier(proof.NewSimulatedBackend())
	c := commit(t, 760)
	p := thresholdProof(t, c, 2)

	proofBytes, publicBytes, err := proof.EncodeForVerifier(p)
	require.NoError(t, err)

	got, err := v.VerifyBytes(proofBytes, publicBytes, models.CircuitScoreThreshold)
	require.NoError(t, err)
	require.Equal(t, p.Proof, got.Proof)
	require.Equal(t, p.PublicInputs, got.PublicInputs)
	require.Equal(t, c.hash, got.Commitment)
	require.True(t, p.Timestamp.Equal(got.Timestamp))
	require.True(t, p.ExpiresAt.Equal(got.ExpiresAt))
	require.NoError(t, v.VerifyStructure(got, models.CircuitScoreThreshold))

	_, err = v.VerifyBytes(proofBytes, publicBytes, models.CircuitDTIRatio)
	require.ErrorIs(t, err, proof.ErrCircuitMismatch)
	_, err = v.VerifyBytes(proofBytes[:32], publicBytes, models.CircuitScoreThreshold)
	require.ErrorIs(t, err, proof.ErrInvalidArtifact)
	_, err = v.VerifyBytes(proofBytes, publicBytes[:16], models.CircuitScoreThreshold)
	require.ErrorIs(t, err, proof.ErrInvalidArtifact)
	_, err = v.VerifyBytes(append([]byte("x"), proofBytes...), publicBytes, models.CircuitScoreThreshold)
	require.ErrorIs(t, err, proof.ErrInvalidArtifact)
	_, err = v.VerifyBytes(proofBytes, append(publicBytes, []byte(",9")...), models.CircuitScoreThreshold)
	require.ErrorIs(t, err, proof.ErrInvalidArtifact)

	g, _, _, _ := newGenerator(t)
	dti, err := g.ProveDTIRatio(context.Background(), proof.DTIRatioRequest{
		Score: c.score, Salt: c.salt, Commitment: c.hash,
		TotalDebt: 3000, Income: 10000, MaxDTIBps: 4300, PoolID: 2, Nonce: 5,
	})
	require.NoError(t, err)
	proofBytes, publicBytes, err = proof.EncodeForVerifier(dti)
	require.NoError(t, err)
	got, err = v.VerifyBytes(proofBytes, publicBytes, models.CircuitDTIRatio)
	require.NoError(t, err)
	require.True(t, got.ExpiresAt.IsZero())
}
