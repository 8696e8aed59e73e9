// Package commitment implements the hiding and binding score commitment
//
//	hash = SHA-256( BE32(score) || salt )
//
// where BE32 is the 32 byte big-endian encoding of the score and salt is 32
// random bytes. The same layout is recomputed inside the proof circuits.
package commitment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

const (
	SaltSize  = 32
	ScoreSize = 32
	HashSize  = sha256.Size
)

var (
	ErrScoreOutOfRange = errors.New("score out of range")
	ErrInvalidSalt     = errors.New("invalid salt")
)

// NewSalt draws a fresh salt from the system CSPRNG
func NewSalt() ([]byte, error) {
	salt, err := common.GenerateRandomBytes(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// EncodeScore returns the 32 byte big-endian encoding of score
func EncodeScore(score int) [ScoreSize]byte {
	var out [ScoreSize]byte
	binary.BigEndian.PutUint64(out[ScoreSize-8:], uint64(score))
	return out
}

// Digest computes the raw commitment bytes
func Digest(score int, salt []byte) ([HashSize]byte, error) {
	if score < models.MinScore || score > models.MaxScore {
		return [HashSize]byte{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrScoreOutOfRange, score, models.MinScore, models.MaxScore)
	}
	if len(salt) != SaltSize {
		return [HashSize]byte{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSalt, SaltSize, len(salt))
	}

	enc := EncodeScore(score)
	h := sha256.New()
	h.Write(enc[:])
	h.Write(salt)

	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Commit returns the lowercase hex commitment to score under salt
func Commit(score int, salt []byte) (string, error) {
	d, err := Digest(score, salt)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(d[:]), nil
}

// CommitHex is Commit with a hex encoded salt
func CommitHex(score int, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSalt, err)
	}
	return Commit(score, salt)
}

// Verify reports whether hash commits to score under saltHex. Malformed
// inputs verify as false.
func Verify(score int, saltHex, hash string) bool {
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) != HashSize {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	got, err := Digest(score, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got[:], want) == 1
}

// New draws a salt and commits to score with it. It returns the hash and
// the hex salt.
func New(score int) (hash, saltHex string, err error) {
	if score < models.MinScore || score > models.MaxScore {
		return "", "", fmt.Errorf("%w: %d not in [%d, %d]", ErrScoreOutOfRange, score, models.MinScore, models.MaxScore)
	}
	salt, err := NewSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = Commit(score, salt)
	if err != nil {
		return "", "", err
	}
	return hash, hex.EncodeToString(salt), nil
}
