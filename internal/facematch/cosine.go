package facematch

import (
	"context"
	"math"
)

// CosineSimilarity computes the cosine similarity of two vectors, clamped
// to [-1, 1]. Mismatched or zero vectors yield -1, the worst score.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim
}

// VectorLookup resolves a representation to its embedding vector. The
// second return value is false when no vector is available.
type VectorLookup func(r Representation) ([]float32, bool)

// EmbeddingComparator scores representations by the cosine similarity of
// their embedding vectors, mapped from [-1,1] to [0,1]. It is the
// substitution example for the placeholder size-ratio comparator: wire a
// real feature extractor's vectors through the lookup and nothing else in
// the pipeline changes.
type EmbeddingComparator struct {
	lookup VectorLookup
}

// NewEmbeddingComparator creates a comparator backed by the given vector
// lookup.
func NewEmbeddingComparator(lookup VectorLookup) *EmbeddingComparator {
	return &EmbeddingComparator{lookup: lookup}
}

// Compare implements Comparator. A representation without a vector scores 0.
func (c *EmbeddingComparator) Compare(_ context.Context, a, b Representation) float64 {
	if c.lookup == nil {
		return 0
	}
	va, ok := c.lookup(a)
	if !ok {
		return 0
	}
	vb, ok := c.lookup(b)
	if !ok {
		return 0
	}
	return clamp01((CosineSimilarity(va, vb) + 1) / 2)
}
