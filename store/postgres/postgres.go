// Package postgres stores commitment records in PostgreSQL through a pgx
// pool. The schema is applied with goose from embedded migrations.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/lifecycle"
	"github.com/mynextid/private-score/models"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded migration files
func Migrations() fs.FS { return migrations }

type DB struct {
	Pool   *pgxpool.Pool
	logger common.Logger
}

var (
	_ lifecycle.Store  = (*DB)(nil)
	_ lifecycle.Pruner = (*DB)(nil)
)

// Connect opens a pool and checks the connection
func Connect(ctx context.Context, url string, logger common.Logger) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool, logger: common.OrNop(logger)}, nil
}

func (db *DB) Close() { db.Pool.Close() }

// Migrate applies the embedded migrations
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{db.logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (db *DB) Put(ctx context.Context, r models.CommitmentRecord) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO commitments (address, score, salt, hash, nonce, tier, registered_at, updated_at, expires_at, proofs_generated)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (address) DO UPDATE SET
            score = EXCLUDED.score,
            salt = EXCLUDED.salt,
            hash = EXCLUDED.hash,
            nonce = EXCLUDED.nonce,
            tier = EXCLUDED.tier,
            registered_at = EXCLUDED.registered_at,
            updated_at = EXCLUDED.updated_at,
            expires_at = EXCLUDED.expires_at,
            proofs_generated = EXCLUDED.proofs_generated
    `, r.Address, r.Score, r.Salt, r.Hash, int64(r.Nonce), string(r.Tier), r.RegisteredAt, r.UpdatedAt, r.ExpiresAt, int64(r.ProofsGenerated))
	return err
}

func (db *DB) Get(ctx context.Context, address string) (models.CommitmentRecord, bool, error) {
	var (
		r      models.CommitmentRecord
		nonce  int64
		tier   string
		proofs int64
	)
	err := db.Pool.QueryRow(ctx, `
        SELECT address, score, salt, hash, nonce, tier, registered_at, updated_at, expires_at, proofs_generated
        FROM commitments
        WHERE address = $1
    `, address).Scan(&r.Address, &r.Score, &r.Salt, &r.Hash, &nonce, &tier, &r.RegisteredAt, &r.UpdatedAt, &r.ExpiresAt, &proofs)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CommitmentRecord{}, false, nil
	}
	if err != nil {
		return models.CommitmentRecord{}, false, err
	}
	r.Nonce = uint64(nonce)
	r.Tier = models.Tier(tier)
	r.ProofsGenerated = uint32(proofs)
	r.RegisteredAt = r.RegisteredAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	r.ExpiresAt = r.ExpiresAt.UTC()
	return r, true, nil
}

func (db *DB) Delete(ctx context.Context, address string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM commitments WHERE address = $1`, address)
	return err
}

// Prune deletes every record whose expiry is at or before now
func (db *DB) Prune(ctx context.Context, now time.Time) (int, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM commitments WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

type gooseLogger struct {
	logger common.Logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
