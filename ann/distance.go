package ann

import (
	"math"

	"github.com/annstore/vecdb/meta"
)

// normalize L2-normalizes v in place and returns it. Cosine distance is
// implemented as inner-product on normalized vectors in both backends
// (§4.5, SPEC_FULL.md Open Question #2): normalization is the backend's
// responsibility, done identically here for both so that distances stay
// numerically comparable across a hybrid-policy backend switch.
func normalize(v []float32) []float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	norm := math.Sqrt(sumSq)
	if norm < 1e-12 {
		return v
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// distance returns the backend-native, smaller-is-better distance between
// a and b for the given metric (§4.5, §4.7 "Distances returned to clients
// are backend-native"). Callers pass already-normalized vectors for the
// cosine metric.
func distance(a, b []float32, metric meta.DistanceMetric) float32 {
	switch metric {
	case meta.MetricCosine:
		return 1 - dot(a, b)
	case meta.MetricDotProduct:
		return -dot(a, b)
	default: // euclidean: squared L2, per §4.7 "L2-squared >= 0"
		return squaredL2(a, b)
	}
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func squaredL2(a, b []float32) float32 {
	var s float32
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
