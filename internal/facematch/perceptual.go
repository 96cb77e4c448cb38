package facematch

import (
	"context"

	"github.com/mkrejcir/face-attendance/internal/fingerprint"
)

// Reader loads stored representation bytes.
type Reader interface {
	Read(rel string) ([]byte, error)
}

// PerceptualComparator scores faces by perceptual-hash distance. Unlike
// the size-ratio placeholder it looks at image content, so re-encoded or
// resized copies of the same face score high. It is still not biometric
// matching: different faces in similar framing can collide.
type PerceptualComparator struct {
	files Reader
}

// NewPerceptualComparator creates a comparator backed by the given store.
func NewPerceptualComparator(files Reader) *PerceptualComparator {
	return &PerceptualComparator{files: files}
}

// Compare implements Comparator. The score maps the pHash Hamming
// distance onto [0,1]: identical hashes score 1, unreadable or
// undecodable representations score 0.
func (c *PerceptualComparator) Compare(_ context.Context, a, b Representation) float64 {
	hashA, ok := c.hash(a)
	if !ok {
		return 0
	}
	hashB, ok := c.hash(b)
	if !ok {
		return 0
	}

	distance := fingerprint.HammingDistance(hashA, hashB)
	return clamp01(1 - float64(distance)/64)
}

func (c *PerceptualComparator) hash(r Representation) (uint64, bool) {
	data := r.Data
	if data == nil {
		if r.Path == "" || c.files == nil {
			return 0, false
		}
		var err error
		data, err = c.files.Read(r.Path)
		if err != nil {
			return 0, false
		}
	}

	result, err := fingerprint.ComputeHashes(data)
	if err != nil {
		return 0, false
	}
	return result.PHashBits, true
}
