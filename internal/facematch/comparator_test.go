package facematch

import (
	"context"
	"errors"
	"math"
	"testing"
)

// fakeSizer maps stored paths to byte sizes for comparator tests.
type fakeSizer struct {
	sizes map[string]int64
}

func (f *fakeSizer) Size(rel string) (int64, error) {
	n, ok := f.sizes[rel]
	if !ok {
		return 0, errors.New("not found")
	}
	return n, nil
}

func TestSizeRatioComparator_Formula(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int64
		expected float64
	}{
		{"equal sizes score 0.8", 1000, 1000, 0.8},
		{"half ratio", 500, 1000, 0.5},
		{"tiny against large", 1, 1000, 0.2 + 0.6/1000},
		{"order independent", 1000, 500, 0.5},
	}

	sizer := &fakeSizer{sizes: map[string]int64{}}
	cmp := NewSizeRatioComparator(sizer)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sizer.sizes["a"] = tt.a
			sizer.sizes["b"] = tt.b
			got := cmp.Compare(context.Background(), Representation{Path: "a"}, Representation{Path: "b"})
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Compare(%d, %d) = %f, want %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSizeRatioComparator_InMemoryData(t *testing.T) {
	cmp := NewSizeRatioComparator(&fakeSizer{sizes: map[string]int64{"stored": 100}})

	candidate := Representation{Data: make([]byte, 100)}
	got := cmp.Compare(context.Background(), candidate, Representation{Path: "stored"})
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("expected 0.8 for equal sizes, got %f", got)
	}
}

func TestSizeRatioComparator_UnreadableScoresZero(t *testing.T) {
	cmp := NewSizeRatioComparator(&fakeSizer{sizes: map[string]int64{"ok": 100}})

	got := cmp.Compare(context.Background(), Representation{Path: "missing"}, Representation{Path: "ok"})
	if got != 0 {
		t.Errorf("unreadable representation must score 0, got %f", got)
	}
}

func TestSizeRatioComparator_EmptyBlobsScoreZero(t *testing.T) {
	cmp := NewSizeRatioComparator(nil)

	got := cmp.Compare(context.Background(), Representation{Data: []byte{}}, Representation{Data: []byte{}})
	if got != 0 {
		t.Errorf("two empty blobs must score 0, got %f", got)
	}
}

func TestSizeRatioComparator_ScoreBounds(t *testing.T) {
	sizer := &fakeSizer{sizes: map[string]int64{}}
	cmp := NewSizeRatioComparator(sizer)

	for _, pair := range [][2]int64{{1, 1}, {1, 1 << 40}, {37, 91}, {1000, 999}} {
		sizer.sizes["a"], sizer.sizes["b"] = pair[0], pair[1]
		got := cmp.Compare(context.Background(), Representation{Path: "a"}, Representation{Path: "b"})
		if got < 0 || got > 1 {
			t.Errorf("score out of [0,1] for sizes %v: %f", pair, got)
		}
	}
}

func TestEmbeddingComparator(t *testing.T) {
	vectors := map[string][]float32{
		"a": {1, 0, 0},
		"b": {1, 0, 0},
		"c": {-1, 0, 0},
	}
	cmp := NewEmbeddingComparator(func(r Representation) ([]float32, bool) {
		v, ok := vectors[r.Path]
		return v, ok
	})

	ctx := context.Background()
	if got := cmp.Compare(ctx, Representation{Path: "a"}, Representation{Path: "b"}); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors: expected 1, got %f", got)
	}
	if got := cmp.Compare(ctx, Representation{Path: "a"}, Representation{Path: "c"}); math.Abs(got) > 1e-9 {
		t.Errorf("opposite vectors: expected 0, got %f", got)
	}
	if got := cmp.Compare(ctx, Representation{Path: "a"}, Representation{Path: "unknown"}); got != 0 {
		t.Errorf("missing vector must score 0, got %f", got)
	}
}

func TestCosineSimilarity_Invalid(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 2}, []float32{1}); got != -1 {
		t.Errorf("mismatched lengths: expected -1, got %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != -1 {
		t.Errorf("zero vector: expected -1, got %f", got)
	}
}
