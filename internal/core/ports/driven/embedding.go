package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - The resilient decorator, which wraps either of the above and
//     substitutes a deterministic fallback vector on any failure
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// Implementations decide whether one item's failure fails the batch;
	// the resilient decorator guarantees it does not.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// Every vector this service produces has exactly this length.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the backend is reachable with a lightweight request.
	// Used by diagnostics to distinguish healthy from degraded operation.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
