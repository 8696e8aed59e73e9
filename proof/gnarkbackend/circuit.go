package gnarkbackend

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// Circuit with loaded constraint system and proving and verifying keys
type Circuit struct {
	CS           constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
}

// Prove generates a Groth16 proof for a full assignment
func (c Circuit) Prove(assignment frontend.Circuit) (groth16.Proof, error) {
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	proof, err := groth16.Prove(c.CS, c.ProvingKey, witness)
	if err != nil {
		return nil, fmt.Errorf("proof creation failed: %w", err)
	}
	return proof, nil
}

// Verify verifies a proof against the public part of assignment
func (c Circuit) Verify(assignment frontend.Circuit, proof groth16.Proof) error {
	pw, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}

	if err := groth16.Verify(proof, c.VerifyingKey, pw); err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}
	return nil
}

func encodeProof(proof groth16.Proof) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("proof to buffer failed: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeProof(raw []byte) (groth16.Proof, error) {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to parse the proof: %w", err)
	}
	return proof, nil
}
