package services

import "math"

// CosineSimilarity returns the cosine of the angle between a and b mapped
// from [-1,1] into [0,1] by (cos+1)/2. Vectors of different length or with
// zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push |cos| slightly past 1.
	cos = math.Max(-1, math.Min(1, cos))
	return (cos + 1) / 2
}
