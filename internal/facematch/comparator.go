// Package facematch scores candidate face captures against registered
// faces and selects the best match above an acceptance threshold.
package facematch

import (
	"context"
)

// Representation is an opaque reference to face data used for comparison:
// either a path stored in the file store, or raw bytes for a capture that
// has not been persisted yet.
type Representation struct {
	Path string
	Data []byte
}

// Sizer reports the byte size of a stored representation.
type Sizer interface {
	Size(rel string) (int64, error)
}

// Comparator scores the similarity of two face representations on a [0,1]
// scale. Implementations must be total: a representation that cannot be
// read scores 0 instead of failing, so a broken file is "not a match"
// rather than a pipeline error.
type Comparator interface {
	Compare(ctx context.Context, a, b Representation) float64
}

// SizeRatioComparator is the placeholder comparator used when no real
// feature extractor is configured. It derives a deterministic proxy score
// from the two representations' byte sizes:
//
//	score = 0.2 + 0.6 * min(a, b) / max(a, b)
//
// The acceptance decisions it produces are not real biometric matching and
// must not be trusted as such. A deployment doing actual recognition
// substitutes an embedding-distance Comparator behind the same interface.
type SizeRatioComparator struct {
	files Sizer
}

// NewSizeRatioComparator creates the placeholder comparator backed by the
// given store.
func NewSizeRatioComparator(files Sizer) *SizeRatioComparator {
	return &SizeRatioComparator{files: files}
}

// Compare implements Comparator.
func (c *SizeRatioComparator) Compare(_ context.Context, a, b Representation) float64 {
	sizeA, ok := c.size(a)
	if !ok {
		return 0
	}
	sizeB, ok := c.size(b)
	if !ok {
		return 0
	}

	minSize, maxSize := sizeA, sizeB
	if minSize > maxSize {
		minSize, maxSize = maxSize, minSize
	}
	if maxSize == 0 {
		return 0
	}

	score := 0.2 + 0.6*float64(minSize)/float64(maxSize)
	return clamp01(score)
}

func (c *SizeRatioComparator) size(r Representation) (int64, bool) {
	if r.Data != nil {
		return int64(len(r.Data)), true
	}
	if r.Path == "" || c.files == nil {
		return 0, false
	}
	n, err := c.files.Size(r.Path)
	if err != nil {
		return 0, false
	}
	return n, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
