// Package vector provides the small amount of float32 vector math shared by
// the similarity wall, the splash engine, and the clustering engine.
package vector

import "math"

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v. A zero vector is returned
// unchanged.
func Normalize(v []float32) []float32 {
	n := Norm(v)
	out := make([]float32, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// Cosine returns the cosine similarity of a and b, in [-1, 1]. Mismatched
// lengths or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

// CosineDistance returns 1 minus the cosine similarity of a and b.
func CosineDistance(a, b []float32) float64 {
	return 1 - Cosine(a, b)
}

// Mean returns the element-wise mean of the given vectors. All vectors must
// share the same dimension; an empty input returns nil.
func Mean(vs [][]float32) []float32 {
	if len(vs) == 0 {
		return nil
	}
	out := make([]float64, len(vs[0]))
	for _, v := range vs {
		for i, x := range v {
			out[i] += float64(x)
		}
	}
	mean := make([]float32, len(out))
	for i, x := range out {
		mean[i] = float32(x / float64(len(vs)))
	}
	return mean
}

// ClampScore clamps a similarity score to [0, 1].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
