// Package badger stores commitment records in an embedded BadgerDB. Each
// record is written with a TTL matching its expiry so Badger drops it on
// compaction.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/models"
)

const keyPrefix = "commitment:"

type Store struct {
	db     *badgerdb.DB
	logger common.Logger
}

var (
	_ lifecycle.Store  = (*Store)(nil)
	_ lifecycle.Pruner = (*Store)(nil)
)

// Open opens or creates a database in dir. An empty dir opens an in-memory
// database.
func Open(dir string, logger common.Logger) (*Store, error) {
	logger = common.OrNop(logger)

	var opts badgerdb.Options
	if dir == "" {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		opts = badgerdb.DefaultOptions(dir)
	}
	opts = opts.WithLogger(badgerLogger{logger}).
		WithNumMemtables(2).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	logger.Info("badger store opened", "dir", dir)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(address string) []byte {
	return []byte(keyPrefix + address)
}

func (s *Store) Put(_ context.Context, record models.CommitmentRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry(key(record.Address), value)
		if ttl := time.Until(record.ExpiresAt); ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (s *Store) Get(_ context.Context, address string) (models.CommitmentRecord, bool, error) {
	var record models.CommitmentRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(address))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return models.CommitmentRecord{}, false, nil
	}
	if err != nil {
		return models.CommitmentRecord{}, false, fmt.Errorf("badger get failed: %w", err)
	}
	return record, true, nil
}

func (s *Store) Delete(_ context.Context, address string) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key(address))
	})
}

// Prune deletes records that are expired at now but whose TTL has not
// elapsed yet
func (s *Store) Prune(ctx context.Context, now time.Time) (int, error) {
	var expired [][]byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var r models.CommitmentRecord
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &r) }); err != nil {
				s.logger.Warn("skipping undecodable record", "key", string(item.Key()), "error", err)
				continue
			}
			if lifecycle.IsExpired(r, now) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range expired {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(expired), nil
}

type badgerLogger struct {
	logger common.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf("[badger] "+format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf("[badger] "+format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf("[badger] "+format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf("[badger] "+format, args...))
}
