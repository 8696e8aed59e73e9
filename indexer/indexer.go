// Package indexer fetches a wallet's enhanced transaction history and
// classifies it into activity events
package indexer

import (
	"context"
	"time"

	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

// Options narrows a history request. Zero values mean no constraint.
type Options struct {
	Limit  int
	Before string // signature to page backwards from
	Until  string // signature to stop at
	Type   string // transaction type filter
}

// Indexer supplies the classified activity of a wallet
type Indexer interface {
	FetchActivity(ctx context.Context, address string, opts Options) ([]models.ActivityEvent, error)
}

// safe degrades errors of the wrapped indexer to an empty history
type safe struct {
	ix     Indexer
	logger common.Logger
}

// Safe wraps ix so that failures are logged and yield no events
func Safe(ix Indexer, logger common.Logger) Indexer {
	return safe{ix: ix, logger: common.OrNop(logger)}
}

func (s safe) FetchActivity(ctx context.Context, address string, opts Options) ([]models.ActivityEvent, error) {
	start := time.Now()
	events, err := s.ix.FetchActivity(ctx, address, opts)
	if err != nil {
		s.logger.Warn("activity fetch failed, scoring an empty history", "address", address, "error", err)
		return []models.ActivityEvent{}, nil
	}
	s.logger.Debug("activity fetched", "address", address, "events", len(events), "duration", time.Since(start))
	return events, nil
}

// Static serves a fixed event list, for tests and offline scoring
type Static []models.ActivityEvent

func (s Static) FetchActivity(_ context.Context, _ string, opts Options) ([]models.ActivityEvent, error) {
	out := []models.ActivityEvent(s)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return append([]models.ActivityEvent(nil), out...), nil
}
