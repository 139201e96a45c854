package embedding

import (
	"hash/fnv"
	"math"
)

// LCG constants (Knuth MMIX).
const (
	lcgMul = 6364136223846793005
	lcgInc = 1442695040888963407
)

// FallbackVector produces a deterministic, L2-normalized pseudo-embedding
// for text. It is a pure function of (text, dims): the same inputs always
// yield the same vector, and no ambient state is consulted.
//
// The construction hashes the text to a seed, advances a linear
// congruential generator once per dimension, and maps each state to a
// point on the unit circle via sine. Vectors for different texts are
// effectively independent, so their cosine similarity concentrates near
// zero and rarely clears the relevance threshold against unrelated
// queries.
func FallbackVector(text string, dims int) []float32 {
	if dims <= 0 {
		return nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, dims)
	var norm float64
	for i := range vec {
		state = state*lcgMul + lcgInc
		// Top bits of the LCG state are the most random ones.
		phase := float64(state>>33) * (2 * math.Pi / float64(1<<31))
		v := math.Sin(phase)
		vec[i] = float32(v)
		norm += v * v
	}

	if norm == 0 {
		// Cannot happen with a sine construction, but a zero vector
		// would poison cosine similarity, so guard anyway.
		vec[0] = 1
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
