package embedding

import (
	"context"

	"github.com/myai-labs/retrieval/internal/core/ports/driven"
)

// Ensure Local implements the interface.
var _ driven.EmbeddingService = (*Local)(nil)

// DefaultLocalDimensions is the vector size used when none is configured.
const DefaultLocalDimensions = 512

// Local is a fully offline embedding backend producing deterministic
// vectors. It needs no provider, never fails, and is the default when
// no embedding backend is configured. Matching is exact-text only:
// identical inputs map to identical vectors, unrelated inputs to
// near-orthogonal ones.
type Local struct {
	dims int
}

// NewLocal creates a local deterministic embedding backend.
func NewLocal(dims int) *Local {
	if dims <= 0 {
		dims = DefaultLocalDimensions
	}
	return &Local{dims: dims}
}

func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	return FallbackVector(text, l.dims), nil
}

func (l *Local) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = FallbackVector(text, l.dims)
	}
	return out, nil
}

func (l *Local) Dimensions() int { return l.dims }

func (l *Local) ModelName() string { return "local-deterministic" }

func (l *Local) Ping(_ context.Context) error { return nil }

func (l *Local) Close() error { return nil }
