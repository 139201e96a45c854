package domain

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ChunkMetadata carries ownership and provenance for a stored chunk.
// Owner is the tenant boundary: no operation may return a chunk whose
// Owner differs from the collection being read.
type ChunkMetadata struct {
	// Owner is the tenant (user) the chunk belongs to.
	Owner string `json:"owner"`

	// Source is the caller-supplied name of the uploaded document.
	Source string `json:"source,omitempty"`

	// ChunkIndex is the ordinal position within the original document.
	ChunkIndex int `json:"chunk_index"`

	// TotalChunks is how many chunks the document produced.
	TotalChunks int `json:"total_chunks"`

	// BatchID groups all chunks written by one ingest call.
	BatchID string `json:"batch_id,omitempty"`

	// IngestedAt is when the chunk was persisted.
	IngestedAt time.Time `json:"ingested_at"`

	// Extra contains arbitrary caller-supplied key-value pairs.
	Extra map[string]string `json:"extra,omitempty"`
}

// DocumentChunk is the unit of storage and retrieval.
// Chunks are immutable once written; there is no update path,
// only whole-collection purge.
type DocumentChunk struct {
	// ID is unique within the owner's collection.
	ID string `json:"id"`

	// Content is the chunk text. Never empty for a stored chunk.
	Content string `json:"content"`

	// Embedding is the fixed-dimension vector for the content.
	// Every chunk in a collection has the same dimension.
	Embedding []float32 `json:"embedding"`

	// Metadata carries ownership and provenance.
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchResult is a single similarity hit. Results are ephemeral:
// computed per query and never persisted.
type SearchResult struct {
	// Content is the matched chunk's text.
	Content string `json:"content"`

	// Metadata is the matched chunk's metadata.
	Metadata ChunkMetadata `json:"metadata"`

	// Score is the cosine similarity against the query embedding.
	Score float64 `json:"score"`
}

// CollectionStats summarises one owner's collection.
type CollectionStats struct {
	// Owner is the tenant the stats describe.
	Owner string `json:"owner"`

	// ChunkCount is the number of stored chunks. Zero means EMPTY.
	ChunkCount int `json:"chunk_count"`

	// Dimensions is the embedding dimension in use.
	Dimensions int `json:"dimensions"`

	// Model is the embedding model name.
	Model string `json:"model"`
}

// chunkSeq disambiguates chunk IDs minted within the same nanosecond.
var chunkSeq atomic.Uint64

// NewChunkID mints a chunk ID from the current time plus a process-wide
// sequence number, so concurrent ingests never collide.
func NewChunkID() string {
	return fmt.Sprintf("%d-%06d", time.Now().UnixNano(), chunkSeq.Add(1)%1000000)
}
