// Package memory is an in-process lifecycle.Store
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/models"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]models.CommitmentRecord
}

var (
	_ lifecycle.Store  = (*Store)(nil)
	_ lifecycle.Pruner = (*Store)(nil)
)

func New() *Store {
	return &Store{records: make(map[string]models.CommitmentRecord)}
}

func (s *Store) Put(_ context.Context, record models.CommitmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Address] = record
	return nil
}

func (s *Store) Get(_ context.Context, address string) (models.CommitmentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[address]
	return r, ok, nil
}

func (s *Store) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, address)
	return nil
}

func (s *Store) Prune(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for addr, r := range s.records {
		if lifecycle.IsExpired(r, now) {
			delete(s.records, addr)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
