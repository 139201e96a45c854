package services

import (
	"context"
	"math"
	"sort"

	"github.com/myai-labs/retrieval/internal/core/domain"
	"github.com/myai-labs/retrieval/internal/core/ports/driven"
	"github.com/myai-labs/retrieval/internal/logger"
)

// SimilarityEngine ranks an owner's chunks against a query embedding
// using an exhaustive batched cosine scan. There is no index: peak
// memory is bounded by the batch size, and total cost by the scan cap.
type SimilarityEngine struct {
	store  driven.ChunkStore
	params domain.Params
}

// NewSimilarityEngine creates a similarity engine over store.
func NewSimilarityEngine(store driven.ChunkStore, params domain.Params) *SimilarityEngine {
	return &SimilarityEngine{
		store:  store,
		params: params.Normalize(),
	}
}

// Search returns up to topK results scoring at least MinScore, ordered
// by descending similarity. An empty collection yields an empty result.
// Unreadable records and dimension mismatches are skipped, never fatal:
// one bad record must not take down the whole search.
func (e *SimilarityEngine) Search(ctx context.Context, ownerID string, query []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = e.params.TopK
	}

	total, err := e.store.Count(ctx, ownerID)
	if err != nil {
		logger.Warn("counting collection %s failed: %v", ownerID, err)
		return []domain.SearchResult{}, nil
	}
	if total == 0 {
		logger.Debug("collection %s is empty", ownerID)
		return []domain.SearchResult{}, nil
	}

	scanLimit := total
	if scanLimit > e.params.MaxScan {
		scanLimit = e.params.MaxScan
		logger.Degraded("search", "collection %s has %d records, scanning only %d",
			ownerID, total, scanLimit)
	}

	var results []domain.SearchResult
	skipped := 0

	for offset := 0; offset < scanLimit; offset += e.params.BatchSize {
		limit := e.params.BatchSize
		if offset+limit > scanLimit {
			limit = scanLimit - offset
		}

		batch, err := e.store.List(ctx, ownerID, offset, limit)
		if err != nil {
			logger.Warn("listing %s at offset %d failed: %v", ownerID, offset, err)
			skipped += limit
			continue
		}

		for _, chunk := range batch {
			if len(chunk.Embedding) != len(query) {
				logger.Warn("chunk %s: %v (stored %d, query %d)",
					chunk.ID, domain.ErrDimensionMismatch, len(chunk.Embedding), len(query))
				skipped++
				continue
			}

			score := cosineSimilarity(query, chunk.Embedding)
			if score < e.params.MinScore {
				continue
			}

			results = append(results, domain.SearchResult{
				Content:  chunk.Content,
				Metadata: chunk.Metadata,
				Score:    score,
			})
		}
	}

	if skipped > 0 {
		logger.Debug("search for %s skipped %d records", ownerID, skipped)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return results, nil
}

// cosineSimilarity computes dot(a,b) / (|a|*|b|). Zero-magnitude
// vectors score zero rather than dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
