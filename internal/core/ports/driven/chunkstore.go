package driven

import (
	"context"

	"github.com/myai-labs/retrieval/internal/core/domain"
)

// ChunkStore provides durable, owner-isolated chunk persistence.
// Records are append-only: there is no per-chunk update or delete,
// only whole-collection removal.
//
// Owner isolation is the store's hardest invariant: no operation on
// owner A may observe or affect owner B's data. Implementations must
// filter on the record's Owner metadata even when the backing storage
// already partitions by owner.
type ChunkStore interface {
	// Add persists one chunk as an atomic record in the owner's
	// collection, creating the collection on first write. It never
	// overwrites an existing record.
	Add(ctx context.Context, ownerID string, chunk domain.DocumentChunk) error

	// List returns up to limit chunks belonging strictly to ownerID,
	// starting at offset in stable record order. A missing collection
	// yields an empty slice, not an error. Unreadable records are
	// skipped, so the returned slice may be shorter than the window.
	List(ctx context.Context, ownerID string, offset, limit int) ([]domain.DocumentChunk, error)

	// Count returns the number of records in the owner's collection.
	// A missing collection counts as zero.
	Count(ctx context.Context, ownerID string) (int, error)

	// DeleteCollection removes every record and the backing storage for
	// the owner. Idempotent: deleting a collection that never existed
	// is not an error.
	DeleteCollection(ctx context.Context, ownerID string) error

	// Close releases resources.
	Close() error
}
