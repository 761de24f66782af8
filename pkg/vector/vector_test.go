package vector_test

import (
	"math"
	"testing"

	"github.com/dormouselabs/dormouse/pkg/vector"
	"github.com/m-mizutani/gt"
)

func almostEqual(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCosine(t *testing.T) {
	almostEqual(t, vector.Cosine([]float32{1, 0}, []float32{1, 0}), 1)
	almostEqual(t, vector.Cosine([]float32{1, 0}, []float32{0, 1}), 0)
	almostEqual(t, vector.Cosine([]float32{1, 0}, []float32{-1, 0}), -1)

	// Scale invariance.
	almostEqual(t, vector.Cosine([]float32{2, 2}, []float32{5, 5}), 1)
}

func TestCosineDegenerate(t *testing.T) {
	// Zero vectors and length mismatches yield maximal distance, not NaN.
	gt.Equal(t, vector.Cosine([]float32{0, 0}, []float32{1, 0}), 0.0)
	gt.Equal(t, vector.CosineDistance([]float32{1, 0}, []float32{1, 0, 0}), 1.0)
}

func TestNormalize(t *testing.T) {
	n := vector.Normalize([]float32{3, 4})
	almostEqual(t, vector.Norm(n), 1)
	almostEqual(t, float64(n[0]), 0.6)
	almostEqual(t, float64(n[1]), 0.8)

	// Zero vector stays zero.
	z := vector.Normalize([]float32{0, 0})
	gt.Equal(t, z, []float32{0, 0})
}

func TestMean(t *testing.T) {
	m := vector.Mean([][]float32{{1, 0}, {0, 1}})
	almostEqual(t, float64(m[0]), 0.5)
	almostEqual(t, float64(m[1]), 0.5)

	gt.A(t, vector.Mean(nil)).Length(0)
}

func TestClampScore(t *testing.T) {
	gt.Equal(t, vector.ClampScore(0.5), 0.5)
	gt.Equal(t, vector.ClampScore(-0.1), 0.0)
	gt.Equal(t, vector.ClampScore(1.2), 1.0)
}
