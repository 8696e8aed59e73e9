package common

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/sha2"
	"github.com/consensys/gnark/std/math/uints"
)

// SHA256 computes the digest of payload in-circuit
func SHA256(api frontend.API, payload ...[]uints.U8) ([]uints.U8, error) {
	hash, err := sha2.New(api)
	if err != nil {
		return nil, err
	}

	for _, p := range payload {
		hash.Write(p)
	}
	return hash.Sum(), nil
}
