package driving

import (
	"context"

	"github.com/myai-labs/retrieval/internal/core/domain"
)

// RetrievalService is the facade over chunking, embedding, storage and
// similarity search. One call corresponds to one inbound request in the
// calling layer; the engine holds no cross-call state.
type RetrievalService interface {
	// Ingest splits text into chunks, embeds each, and persists each
	// into the owner's collection. It returns the number of chunks
	// stored. Per-chunk failures drop only that chunk; if every chunk
	// of a non-empty input fails, Ingest returns domain.ErrExhausted.
	Ingest(ctx context.Context, ownerID, text, source string, metadata map[string]string) (int, error)

	// Query embeds the query text once and ranks the owner's chunks by
	// cosine similarity. Degraded upstream embedding shows up as fewer
	// or zero hits, never as an error; only malformed input fails.
	Query(ctx context.Context, ownerID, query string, topK int) ([]domain.SearchResult, error)

	// Purge removes the owner's entire collection. Idempotent.
	Purge(ctx context.Context, ownerID string) error

	// Stats reports the owner's collection size and embedding setup.
	Stats(ctx context.Context, ownerID string) (*domain.CollectionStats, error)
}
