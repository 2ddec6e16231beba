package vectordb

import "math"

// CosineSimilarity returns dot(a,b) / (|a|*|b|).
// ok is false when the similarity is undefined: empty or mismatched vectors,
// a zero norm, or non-finite components. The score is then -Inf, never NaN.
func CosineSimilarity(a, b []float32) (score float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return math.Inf(-1), false
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return math.Inf(-1), false
	}

	score = dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return math.Inf(-1), false
	}
	return score, true
}
