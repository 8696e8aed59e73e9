package common

import (
	"crypto/rand"
	"fmt"

	"github.com/consensys/gnark/std/math/uints"
)

// BytesToU8Array converts bytes to circuit byte variables
func BytesToU8Array(s []byte) []uints.U8 {
	result := make([]uints.U8, len(s))
	for i, b := range s {
		result[i] = uints.NewU8(b)
	}
	return result
}

// FixedU8Array converts bytes to circuit byte variables and checks the length
func FixedU8Array(s []byte, size int) ([]uints.U8, error) {
	if len(s) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(s))
	}
	return BytesToU8Array(s), nil
}

// GenerateRandomBytes returns cryptographically secure random bytes
func GenerateRandomBytes(size int) ([]byte, error) {
	randomBytes := make([]byte, size)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}
	return randomBytes, nil
}
