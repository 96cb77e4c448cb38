package facematch

import (
	"context"
)

// DefaultThreshold is the acceptance threshold used when none is configured.
const DefaultThreshold = 0.5

// RegistryEntry pairs a registered identity with its stored face
// representation. Registry order is registration order and must be stable:
// the selector's tie-break depends on it.
type RegistryEntry struct {
	StudentID string
	Face      Representation
}

// Match is the outcome of a registry scan. An empty StudentID means no
// registered identity cleared the acceptance threshold; Confidence still
// carries the best score observed, which is useful for diagnostics.
type Match struct {
	StudentID  string
	Confidence float64
}

// Matched reports whether an identity cleared the threshold.
func (m Match) Matched() bool {
	return m.StudentID != ""
}

// Selector finds the best-scoring registered identity for a candidate.
type Selector struct {
	comparator Comparator
	threshold  float64
}

// NewSelector creates a selector with the given comparator and acceptance
// threshold. A non-positive threshold falls back to DefaultThreshold.
func NewSelector(comparator Comparator, threshold float64) *Selector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Selector{comparator: comparator, threshold: threshold}
}

// Threshold returns the configured acceptance threshold.
func (s *Selector) Threshold() float64 {
	return s.threshold
}

// Select scans the whole registry in order, scoring every entry against the
// candidate, and returns the best match if it clears the threshold. A later
// entry replaces the current best only on a strictly greater score, so
// tied scores keep the earliest-registered identity. The scan never
// terminates early: correctness (the true best, not the first acceptable)
// wins over latency, and comparisons are assumed cheap.
func (s *Selector) Select(ctx context.Context, candidate Representation, registry []RegistryEntry) Match {
	var (
		bestScore float64
		bestID    string
	)

	for _, entry := range registry {
		score := s.comparator.Compare(ctx, candidate, entry.Face)
		if score > bestScore {
			bestScore = score
			bestID = entry.StudentID
		}
	}

	if bestScore >= s.threshold && bestID != "" {
		return Match{StudentID: bestID, Confidence: bestScore}
	}
	return Match{Confidence: bestScore}
}
