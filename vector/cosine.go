package vector

import (
	"math"

	"github.com/poiesic/coursesearch/core"
)

// Cosine computes the cosine similarity between two vectors of equal length.
// Returns core.ErrDimensionMismatch when the lengths differ and 0 when either
// vector has zero norm.
func Cosine(a, b []float32) (float64, error) {
	if err := core.CheckDimension(len(a), len(b)); err != nil {
		return 0, err
	}

	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}

	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0, nil
	}

	// Rounding can push |sim| a hair past 1
	sim := dot / den
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// Distance returns the cosine distance 1 - Cosine(a, b), in [0, 2].
func Distance(a, b []float32) (float64, error) {
	sim, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

// Relevance returns 1 - Distance(a, b), which equals the cosine similarity.
func Relevance(a, b []float32) (float64, error) {
	d, err := Distance(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - d, nil
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a copy of v scaled to unit length.
// A zero vector is returned as a zero vector of the same length.
func Normalize(v []float32) []float32 {
	result := make([]float32, len(v))

	magnitude := Norm(v)
	if magnitude == 0 {
		return result
	}

	inv := 1.0 / magnitude
	for i, val := range v {
		result[i] = float32(float64(val) * inv)
	}
	return result
}
