package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myai-labs/retrieval/internal/adapters/driven/embedding"
	"github.com/myai-labs/retrieval/internal/adapters/driven/storage/memory"
	"github.com/myai-labs/retrieval/internal/core/domain"
	"github.com/myai-labs/retrieval/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService with fixed vectors.
type mockEmbedder struct {
	dims     int
	embedErr error
	// vectors maps input text to a fixed embedding; unmapped texts get
	// the deterministic fallback so geometry stays reproducible.
	vectors map[string][]float32
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	return embedding.FallbackVector(text, m.dims), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-model" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.embedErr }
func (m *mockEmbedder) Close() error                 { return nil }

// failingStore implements driven.ChunkStore and rejects every write.
type failingStore struct {
	driven.ChunkStore
}

func (f *failingStore) Add(_ context.Context, _ string, _ domain.DocumentChunk) error {
	return errors.New("disk full")
}

func newTestService(store driven.ChunkStore) *RetrievalService {
	params := domain.DefaultParams()
	params.ChunkSize = 100
	params.ChunkOverlap = 20
	return NewRetrievalService(&mockEmbedder{dims: 64}, store, params)
}

// --- Ingest ---

func TestIngest_SingleChunk(t *testing.T) {
	store := memory.NewChunkStore()
	svc := newTestService(store)

	count, err := svc.Ingest(context.Background(), "u1", strings.Repeat("A", 50), "doc1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	n, err := store.Count(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIngest_MetadataTagging(t *testing.T) {
	store := memory.NewChunkStore()
	svc := newTestService(store)

	text := strings.Repeat("Numbered sentences go here. ", 20) // several chunks
	count, err := svc.Ingest(context.Background(), "u1", text, "report.txt",
		map[string]string{"lang": "en"})
	require.NoError(t, err)
	require.Greater(t, count, 1)

	chunks, err := store.List(context.Background(), "u1", 0, 100)
	require.NoError(t, err)
	require.Len(t, chunks, count)

	batchID := chunks[0].Metadata.BatchID
	require.NotEmpty(t, batchID)
	indexes := map[int]bool{}
	for _, chunk := range chunks {
		md := chunk.Metadata
		assert.Equal(t, "u1", md.Owner)
		assert.Equal(t, "report.txt", md.Source)
		assert.Equal(t, count, md.TotalChunks)
		assert.Equal(t, batchID, md.BatchID, "one ingest shares one batch id")
		assert.Equal(t, "en", md.Extra["lang"])
		assert.False(t, md.IngestedAt.IsZero())
		assert.Len(t, chunk.Embedding, 64)
		indexes[md.ChunkIndex] = true
	}
	assert.Len(t, indexes, count, "chunk indexes must be distinct")
}

func TestIngest_ValidationErrors(t *testing.T) {
	svc := newTestService(memory.NewChunkStore())

	tests := []struct {
		name  string
		owner string
		text  string
	}{
		{"empty owner", "", "some text"},
		{"whitespace owner", "   ", "some text"},
		{"empty text", "u1", ""},
		{"whitespace text", "u1", " \n\t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Ingest(context.Background(), tt.owner, tt.text, "doc", nil)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestIngest_AllChunksFailing(t *testing.T) {
	svc := newTestService(&failingStore{ChunkStore: memory.NewChunkStore()})

	count, err := svc.Ingest(context.Background(), "u1", "some document text", "doc", nil)
	assert.Zero(t, count)
	assert.ErrorIs(t, err, domain.ErrExhausted)
}

func TestIngest_Additive(t *testing.T) {
	store := memory.NewChunkStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "u1", "first document", "a", nil)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "u1", "second document", "b", nil)
	require.NoError(t, err)

	n, err := store.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "ingest must never replace earlier chunks")
}

// --- Query ---

func TestQuery_TenantIsolation(t *testing.T) {
	store := memory.NewChunkStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "alice", "alice's private document", "a.txt", nil)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "bob", "bob's private document", "b.txt", nil)
	require.NoError(t, err)

	results, err := svc.Query(ctx, "bob", "bob's private document", 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, "bob", r.Metadata.Owner, "result leaked across tenants")
	}
}

func TestQuery_ExactMatchRanksFirst(t *testing.T) {
	store := memory.NewChunkStore()
	emb := &mockEmbedder{dims: 4, vectors: map[string][]float32{
		"red apples":  {1, 0, 0, 0},
		"green pears": {0, 1, 0, 0},
		"find apples": {0.9, 0.1, 0, 0},
	}}
	params := domain.DefaultParams()
	svc := NewRetrievalService(emb, store, params)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "u1", "red apples", "fruit", nil)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "u1", "green pears", "fruit", nil)
	require.NoError(t, err)

	results, err := svc.Query(ctx, "u1", "find apples", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "red apples", results[0].Content)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestQuery_UnrelatedTextNoResults(t *testing.T) {
	store := memory.NewChunkStore()
	// Embedder answers only with deterministic fallback vectors, the
	// worst case for relevance.
	svc := NewRetrievalService(&mockEmbedder{dims: 512}, store, domain.DefaultParams())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "u1", "a very specific engineering document about turbines", "doc", nil)
	require.NoError(t, err)

	results, err := svc.Query(ctx, "u1", "completely unrelated text", 5)
	require.NoError(t, err)
	assert.Empty(t, results, "unrelated fallback vectors must stay under the threshold")
}

func TestQuery_ValidationErrors(t *testing.T) {
	svc := newTestService(memory.NewChunkStore())

	_, err := svc.Query(context.Background(), "", "text", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Query(context.Background(), "u1", "  ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_EmbedderFailureDegrades(t *testing.T) {
	store := memory.NewChunkStore()
	svc := NewRetrievalService(&mockEmbedder{dims: 8, embedErr: errors.New("down")},
		store, domain.DefaultParams())

	// A raw failing backend: query still answers, just with nothing.
	results, err := svc.Query(context.Background(), "u1", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// --- Purge ---

func TestPurge_ThenQueryEmpty(t *testing.T) {
	store := memory.NewChunkStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "u1", "document to be purged", "doc", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Purge(ctx, "u1"))

	results, err := svc.Query(ctx, "u1", "A", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPurge_Idempotent(t *testing.T) {
	svc := newTestService(memory.NewChunkStore())
	ctx := context.Background()

	require.NoError(t, svc.Purge(ctx, "u1"))
	require.NoError(t, svc.Purge(ctx, "u1"), "second purge must be a no-op")
}

func TestPurge_DoesNotTouchOtherOwners(t *testing.T) {
	store := memory.NewChunkStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "alice", "alice keeps this", "a", nil)
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "bob", "bob loses this", "b", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Purge(ctx, "bob"))

	n, err := store.Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// --- Degraded mode ---

func TestDegradedMode_Liveness(t *testing.T) {
	// The backend always fails; wrapped in the resilient decorator the
	// whole pipeline must still work end to end.
	backend := &mockEmbedder{dims: 256, embedErr: errors.New("provider outage")}
	resilient := embedding.NewResilient(backend, embedding.ResilientConfig{})

	store := memory.NewChunkStore()
	svc := NewRetrievalService(resilient, store, domain.DefaultParams())
	ctx := context.Background()

	count, err := svc.Ingest(ctx, "u1", "document ingested during an outage", "doc", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Same text embeds to the same fallback vector, so it must match.
	results, err := svc.Query(ctx, "u1", "document ingested during an outage", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.Greater(t, resilient.FallbackCount(), uint64(0))
}

// --- Stats ---

func TestStats(t *testing.T) {
	store := memory.NewChunkStore()
	svc := newTestService(store)
	ctx := context.Background()

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &domain.CollectionStats{
		Owner:      "u1",
		ChunkCount: 0,
		Dimensions: 64,
		Model:      "mock-model",
	}, stats)

	_, err = svc.Ingest(ctx, "u1", "short document", "doc", nil)
	require.NoError(t, err)

	stats, err = svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ChunkCount)
}
