// Package embedding provides the resilient embedding decorator and the
// deterministic fallback vector generator.
//
// Backends (openai, ollama) live in subpackages and are never handed to
// core services directly: they are wrapped in Resilient, which bounds
// input size, enforces a per-call timeout, rate-limits upstream calls,
// and substitutes a deterministic pseudo-vector whenever the backend
// fails. Provider outages therefore degrade result quality instead of
// availability.
package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/myai-labs/retrieval/internal/core/ports/driven"
	"github.com/myai-labs/retrieval/internal/logger"
)

// Ensure Resilient implements the interface.
var _ driven.EmbeddingService = (*Resilient)(nil)

// errBadVector flags a backend response whose dimension does not match
// the advertised one. Treated like any other backend failure.
var errBadVector = errors.New("backend returned wrong-size vector")

// Default resilience settings.
const (
	// DefaultMaxInputChars bounds the text sent to the backend,
	// capping cost and latency for oversized chunks.
	DefaultMaxInputChars = 8000

	// DefaultCallTimeout is the per-call deadline for the backend.
	DefaultCallTimeout = 10 * time.Second

	// DefaultRequestsPerSecond is the sustained upstream rate limit.
	DefaultRequestsPerSecond = 10.0

	// DefaultBurstSize is the rate limiter burst.
	DefaultBurstSize = 20
)

// ResilientConfig tunes the decorator. Zero values take defaults.
type ResilientConfig struct {
	// MaxInputChars truncates backend input to this many characters.
	MaxInputChars int

	// CallTimeout is the per-call deadline raced against the backend.
	CallTimeout time.Duration

	// RequestsPerSecond is the sustained upstream rate limit.
	RequestsPerSecond float64

	// BurstSize is the rate limiter burst size.
	BurstSize int
}

// Resilient decorates an embedding backend with truncation, a timeout,
// rate limiting, and a deterministic fallback. Embed and EmbedBatch
// never return an error: any backend failure yields a fallback vector.
type Resilient struct {
	backend       driven.EmbeddingService
	limiter       *rate.Limiter
	maxInputChars int
	callTimeout   time.Duration
	fallbacks     atomic.Uint64
}

// NewResilient wraps backend with the resilience decorator.
func NewResilient(backend driven.EmbeddingService, cfg ResilientConfig) *Resilient {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}

	return &Resilient{
		backend:       backend,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		maxInputChars: cfg.MaxInputChars,
		callTimeout:   cfg.CallTimeout,
	}
}

// Embed returns the backend's embedding for text, or a deterministic
// fallback vector if the backend errors or exceeds the call timeout.
// The returned error is always nil.
func (r *Resilient) Embed(ctx context.Context, text string) ([]float32, error) {
	text = truncate(text, r.maxInputChars)

	if err := r.limiter.Wait(ctx); err != nil {
		return r.fallback(text, err), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	vec, err := r.backend.Embed(callCtx, text)
	if err != nil {
		return r.fallback(text, err), nil
	}
	if len(vec) != r.backend.Dimensions() {
		return r.fallback(text, errBadVector), nil
	}
	return vec, nil
}

// EmbedBatch embeds each text independently. One item's failure never
// aborts the batch; failed items get fallback vectors.
func (r *Resilient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, _ := r.Embed(ctx, text)
		vecs[i] = vec
	}
	return vecs, nil
}

// fallback generates the degraded vector and records the event.
func (r *Resilient) fallback(text string, cause error) []float32 {
	r.fallbacks.Add(1)
	logger.Degraded("embedding", "backend %s unavailable (%v), using fallback vector for %d chars",
		r.backend.ModelName(), cause, len(text))
	return FallbackVector(text, r.backend.Dimensions())
}

// FallbackCount reports how many embeddings were served by the
// deterministic fallback since construction.
func (r *Resilient) FallbackCount() uint64 {
	return r.fallbacks.Load()
}

// Dimensions returns the backend's embedding vector size.
func (r *Resilient) Dimensions() int {
	return r.backend.Dimensions()
}

// ModelName returns the backend's model name.
func (r *Resilient) ModelName() string {
	return r.backend.ModelName()
}

// Ping reports the backend's health. Unlike Embed, Ping propagates the
// error so diagnostics can distinguish healthy from degraded operation.
func (r *Resilient) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.backend.Ping(callCtx)
}

// Close releases the backend's resources.
func (r *Resilient) Close() error {
	return r.backend.Close()
}

// truncate bounds s to max characters without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
