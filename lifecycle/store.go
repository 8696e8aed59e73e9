package lifecycle

import (
	"context"
	"time"

	"github.com/mynextid/private-score/models"
)

// Store persists one commitment record per wallet address. Writes are
// last-writer-wins. Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, record models.CommitmentRecord) error
	// Get returns found=false with a nil error when no record exists
	Get(ctx context.Context, address string) (record models.CommitmentRecord, found bool, err error)
	Delete(ctx context.Context, address string) error
}

// Pruner is implemented by stores that can drop expired records in bulk
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
}
