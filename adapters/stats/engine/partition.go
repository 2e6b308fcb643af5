package engine

import (
	"errors"
	"fmt"
	"sort"

	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// BiPartitioner derives the two-way bloc labeling from a roll-call matrix,
// anchored on a pivot legislator. The pivot plus the half of the chamber
// closest to it (by voting distance) form the "right" bloc; everyone else is
// "left". The rule is fully deterministic: ties at the boundary break by
// legislator identifier, and legislators with no comparable votes always
// land in the far bloc.
type BiPartitioner struct {
	metric    bcall.Metric
	normalize bool
}

// NewBiPartitioner creates a partitioner for the given distance metric.
func NewBiPartitioner(metric bcall.Metric, normalize bool) *BiPartitioner {
	return &BiPartitioner{metric: metric, normalize: normalize}
}

type rankedLegislator struct {
	id       core.LegislatorID
	distance float64
	known    bool
}

// Partition computes the cluster assignment for every row of the matrix.
func (p *BiPartitioner) Partition(m *rollcall.Matrix, pivot core.LegislatorID) (rollcall.ClusterAssignment, error) {
	if !m.HasLegislator(pivot) {
		return nil, core.NewClusteringError(fmt.Sprintf("pivot %q not in matrix", pivot))
	}
	if m.NumLegislators() < 2 {
		return nil, core.NewClusteringError("need at least two legislators to form two blocs")
	}

	pivotRow, _ := m.Row(pivot)

	ranked := make([]rankedLegislator, 0, m.NumLegislators()-1)
	knownCount := 0
	for _, id := range m.Legislators() {
		if id == pivot {
			continue
		}
		row, _ := m.Row(id)
		d, _, err := Distance(row, pivotRow, p.metric, p.normalize)
		if err != nil {
			if errors.Is(err, ErrNoOverlap) {
				ranked = append(ranked, rankedLegislator{id: id})
				continue
			}
			return nil, err
		}
		ranked = append(ranked, rankedLegislator{id: id, distance: d, known: true})
		knownCount++
	}

	if knownCount == 0 {
		return nil, core.NewClusteringError("insufficient comparable votes to anchor partition on pivot")
	}

	// Ascending by distance, unknown distances after every known one,
	// identifier as the final tie-break so repeated runs agree.
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.known != b.known {
			return a.known
		}
		if a.known && a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.id < b.id
	})

	// The pivot's half takes the floor of the remaining chamber, so a
	// two-legislator matrix splits into two singletons.
	rightCount := (len(ranked)) / 2
	if rightCount > knownCount {
		rightCount = knownCount
	}

	labels := make(map[core.LegislatorID]rollcall.BlocLabel, m.NumLegislators())
	labels[pivot] = rollcall.BlocRight
	for i, r := range ranked {
		if i < rightCount {
			labels[r.id] = rollcall.BlocRight
		} else {
			labels[r.id] = rollcall.BlocLeft
		}
	}

	assignment, err := rollcall.NewClusterAssignment(m, labels)
	if err != nil {
		return nil, core.NewClusteringError(err.Error())
	}
	return assignment, nil
}
