// Package similarity holds the pure scoring primitives used by retrieval and
// query normalization. Nothing here does I/O or keeps state.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b over their shared prefix,
// clamped into [0,1]. Empty or zero-norm inputs yield 0. Non-finite
// components are treated as 0.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range n {
		x := finite(float64(a[i]))
		y := finite(float64(b[i]))
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return Clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Clamp01 clamps v into [0,1]; NaN and infinities map to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
