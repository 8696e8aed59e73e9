package models

import (
	"math"
	"time"
)

// CommitmentValidity is how long a registered commitment stays usable
const CommitmentValidity = 30 * 24 * time.Hour

// CommitmentData is the client-side view of a commitment
type CommitmentData struct {
	Hash      string `json:"hash"`
	Salt      string `json:"salt"`
	Nonce     uint64 `json:"nonce"`
	ExpiresIn int    `json:"expiresIn"` // whole days
}

// CommitmentRecord is the persisted commitment of a wallet. Score and Salt
// are secret and must never leave the process except into a Store.
type CommitmentRecord struct {
	Address         string    `json:"address"`
	Score           int       `json:"score"`
	Salt            string    `json:"salt"`
	Hash            string    `json:"hash"`
	Nonce           uint64    `json:"nonce"`
	Tier            Tier      `json:"tier"`
	RegisteredAt    time.Time `json:"registeredAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
	ProofsGenerated uint32    `json:"proofsGenerated"`
}

// ExpiresIn is the number of whole days until expiry, rounded up, and
// negative once the record has expired
func (r CommitmentRecord) ExpiresIn(now time.Time) int {
	d := r.ExpiresAt.Sub(now)
	if d <= 0 {
		return int(math.Floor(d.Hours() / 24))
	}
	return int(math.Ceil(d.Hours() / 24))
}

// Data returns the client view of the record
func (r CommitmentRecord) Data(now time.Time) CommitmentData {
	return CommitmentData{
		Hash:      r.Hash,
		Salt:      r.Salt,
		Nonce:     r.Nonce,
		ExpiresIn: r.ExpiresIn(now),
	}
}

// PublicCommitment is the part of a record that can be shared
type PublicCommitment struct {
	Address   string    `json:"address"`
	Hash      string    `json:"hash"`
	Nonce     uint64    `json:"nonce"`
	Tier      Tier      `json:"tier"`
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r CommitmentRecord) Public(now time.Time) PublicCommitment {
	return PublicCommitment{
		Address:   r.Address,
		Hash:      r.Hash,
		Nonce:     r.Nonce,
		Tier:      r.Tier,
		ExpiresIn: r.ExpiresIn(now),
		ExpiresAt: r.ExpiresAt,
	}
}
