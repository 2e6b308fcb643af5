// Package engine implements the B-Call scoring and clustering kernel:
// pairwise voting distances, pivot-anchored two-way partitioning,
// participation filtering, NA-aware standardization and (d1, d2) scoring.
// Everything here is a pure in-memory computation; loading, persistence and
// presentation live in sibling adapters.
package engine

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"bcall/domain/bcall"
)

// ErrNoOverlap means two legislators share no column where both voted, so
// their distance is unknown. Callers must treat the pair as incomparable
// rather than as distance zero.
var ErrNoOverlap = errors.New("no overlapping observed votes")

// Distance computes the voting distance between two equal-length vote
// vectors under pairwise deletion: only columns where BOTH vectors are
// non-missing contribute. With normalize set, Manhattan becomes the mean
// absolute difference and Euclidean the root-mean-square difference over the
// overlap, keeping pairs with different overlap sizes comparable.
// Returns the distance and the overlap size.
func Distance(a, b []float64, metric bcall.Metric, normalize bool) (float64, int, error) {
	if len(a) != len(b) {
		return 0, 0, errors.New("vote vectors have different lengths")
	}

	// Compact the overlap so the norm runs over dense slices.
	oa := make([]float64, 0, len(a))
	ob := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		oa = append(oa, a[i])
		ob = append(ob, b[i])
	}
	n := len(oa)
	if n == 0 {
		return 0, 0, ErrNoOverlap
	}

	var d float64
	switch metric {
	case bcall.MetricManhattan:
		d = floats.Distance(oa, ob, 1)
		if normalize {
			d /= float64(n)
		}
	case bcall.MetricEuclidean:
		d = floats.Distance(oa, ob, 2)
		if normalize {
			d /= math.Sqrt(float64(n))
		}
	default:
		return 0, 0, errors.New("unknown distance metric: " + string(metric))
	}
	return d, n, nil
}
