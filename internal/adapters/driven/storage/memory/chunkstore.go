// Package memory provides an in-memory ChunkStore for tests and
// ephemeral collections.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/myai-labs/retrieval/internal/core/domain"
	"github.com/myai-labs/retrieval/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu          sync.RWMutex
	collections map[string][]domain.DocumentChunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		collections: make(map[string][]domain.DocumentChunk),
	}
}

// Add appends one chunk to the owner's collection.
func (s *ChunkStore) Add(_ context.Context, ownerID string, chunk domain.DocumentChunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("add chunk: %w: empty id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.collections[ownerID] {
		if existing.ID == chunk.ID {
			return fmt.Errorf("add chunk: duplicate id %s", chunk.ID)
		}
	}
	s.collections[ownerID] = append(s.collections[ownerID], chunk)
	return nil
}

// List returns up to limit chunks for ownerID starting at offset,
// in record-id order.
func (s *ChunkStore) List(_ context.Context, ownerID string, offset, limit int) ([]domain.DocumentChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.DocumentChunk, len(s.collections[ownerID]))
	copy(all, s.collections[ownerID])
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	var out []domain.DocumentChunk
	for _, chunk := range all {
		if chunk.Metadata.Owner != ownerID {
			continue
		}
		out = append(out, chunk)
	}

	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

// Count returns the number of chunks in the owner's collection.
func (s *ChunkStore) Count(_ context.Context, ownerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[ownerID]), nil
}

// DeleteCollection removes the owner's collection. Idempotent.
func (s *ChunkStore) DeleteCollection(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, ownerID)
	return nil
}

// Close releases resources.
func (s *ChunkStore) Close() error {
	return nil
}
