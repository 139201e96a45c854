package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/myai-labs/retrieval/internal/chunker"
	"github.com/myai-labs/retrieval/internal/core/domain"
	"github.com/myai-labs/retrieval/internal/core/ports/driven"
	"github.com/myai-labs/retrieval/internal/core/ports/driving"
	"github.com/myai-labs/retrieval/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService composes the chunker, embedding service, chunk store
// and similarity engine into the ingest/query/purge facade. It holds no
// per-request state: concurrent calls for different owners never
// contend, and same-owner concurrency follows the store's append-only,
// read-committed-per-record contract.
type RetrievalService struct {
	chunker  *chunker.Chunker
	embedder driven.EmbeddingService
	store    driven.ChunkStore
	engine   *SimilarityEngine
	params   domain.Params
}

// NewRetrievalService creates the retrieval facade. The embedder is
// expected to be the resilient decorator; a raw backend works too, but
// its failures then drop chunks instead of degrading them.
func NewRetrievalService(embedder driven.EmbeddingService, store driven.ChunkStore, params domain.Params) *RetrievalService {
	params = params.Normalize()
	return &RetrievalService{
		chunker: chunker.New(
			chunker.WithChunkSize(params.ChunkSize),
			chunker.WithOverlap(params.ChunkOverlap),
		),
		embedder: embedder,
		store:    store,
		engine:   NewSimilarityEngine(store, params),
		params:   params,
	}
}

// Ingest splits text, embeds every chunk, and persists each one into
// the owner's collection. Returns the number of chunks stored.
//
// A chunk that fails to embed or persist is dropped and counted, never
// fatal on its own; only a clean sweep of failures surfaces, as
// domain.ErrExhausted.
func (s *RetrievalService) Ingest(ctx context.Context, ownerID, text, source string, metadata map[string]string) (int, error) {
	if strings.TrimSpace(ownerID) == "" {
		return 0, fmt.Errorf("ingest: owner id: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("ingest: empty document text: %w", domain.ErrInvalidInput)
	}

	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("ingest: no chunks from document text: %w", domain.ErrInvalidInput)
	}

	logger.Info("ingesting %d chunks for %s (source %q)", len(pieces), ownerID, source)

	batchID := uuid.New().String()
	now := time.Now().UTC()
	stored := 0

	for i, piece := range pieces {
		embedding, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			logger.Warn("chunk %d/%d: embedding failed, dropping: %v", i+1, len(pieces), err)
			continue
		}

		chunk := domain.DocumentChunk{
			ID:        domain.NewChunkID(),
			Content:   piece,
			Embedding: embedding,
			Metadata: domain.ChunkMetadata{
				Owner:       ownerID,
				Source:      source,
				ChunkIndex:  i,
				TotalChunks: len(pieces),
				BatchID:     batchID,
				IngestedAt:  now,
				Extra:       metadata,
			},
		}

		if err := s.store.Add(ctx, ownerID, chunk); err != nil {
			logger.Warn("chunk %d/%d: persist failed, dropping: %v", i+1, len(pieces), err)
			continue
		}
		stored++
	}

	if stored == 0 {
		return 0, fmt.Errorf("ingest for %s: %w", ownerID, domain.ErrExhausted)
	}
	if dropped := len(pieces) - stored; dropped > 0 {
		logger.Warn("ingest for %s dropped %d of %d chunks", ownerID, dropped, len(pieces))
	}
	return stored, nil
}

// Query embeds the query text once and ranks the owner's collection.
// Provider outages degrade relevance (fallback vectors), not
// availability: only malformed input produces an error.
func (s *RetrievalService) Query(ctx context.Context, ownerID, query string, topK int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("query: owner id: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query: empty query text: %w", domain.ErrInvalidInput)
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		// Only reachable with a raw, undecorated backend.
		logger.Warn("query embedding failed for %s: %v", ownerID, err)
		return []domain.SearchResult{}, nil
	}

	return s.engine.Search(ctx, ownerID, embedding, topK)
}

// Purge removes the owner's entire collection. Purging a collection
// that never existed is a no-op.
func (s *RetrievalService) Purge(ctx context.Context, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("purge: owner id: %w", domain.ErrInvalidInput)
	}
	logger.Info("purging collection for %s", ownerID)
	return s.store.DeleteCollection(ctx, ownerID)
}

// Stats reports the owner's collection size and the embedding setup
// in effect.
func (s *RetrievalService) Stats(ctx context.Context, ownerID string) (*domain.CollectionStats, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("stats: owner id: %w", domain.ErrInvalidInput)
	}

	count, err := s.store.Count(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("stats for %s: %w", ownerID, err)
	}

	return &domain.CollectionStats{
		Owner:      ownerID,
		ChunkCount: count,
		Dimensions: s.embedder.Dimensions(),
		Model:      s.embedder.ModelName(),
	}, nil
}
