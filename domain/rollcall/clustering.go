package rollcall

import (
	"fmt"

	"bcall/domain/core"
)

// BlocLabel is one of the exactly two voting-bloc labels.
type BlocLabel string

const (
	// BlocRight is the pivot's bloc by convention; it anchors the positive
	// score orientation downstream.
	BlocRight BlocLabel = "right"
	// BlocLeft is the bloc farther from the pivot.
	BlocLeft BlocLabel = "left"
)

// Opposite returns the other bloc label.
func (b BlocLabel) Opposite() BlocLabel {
	if b == BlocRight {
		return BlocLeft
	}
	return BlocRight
}

// ClusterAssignment maps every legislator of a matrix to one of the two blocs.
// INVARIANT: covers every matrix row exactly once, label cardinality exactly 2.
type ClusterAssignment map[core.LegislatorID]BlocLabel

// NewClusterAssignment validates a bloc labeling against the matrix it was
// derived from. A labeling with 0 or 1 distinct labels, an unknown label, or
// incomplete coverage fails fast.
func NewClusterAssignment(m *Matrix, labels map[core.LegislatorID]BlocLabel) (ClusterAssignment, error) {
	if len(labels) != m.NumLegislators() {
		return nil, core.NewClusterAssignmentError(
			fmt.Sprintf("labeling covers %d legislators, matrix has %d", len(labels), m.NumLegislators()))
	}

	distinct := make(map[BlocLabel]struct{}, 2)
	for _, id := range m.Legislators() {
		label, ok := labels[id]
		if !ok {
			return nil, core.NewClusterAssignmentError(fmt.Sprintf("legislator %q has no bloc label", id))
		}
		if label != BlocLeft && label != BlocRight {
			return nil, core.NewClusterAssignmentError(fmt.Sprintf("unknown bloc label %q", label))
		}
		distinct[label] = struct{}{}
	}
	if len(distinct) != 2 {
		return nil, core.NewClusterAssignmentError(fmt.Sprintf("label set has cardinality %d, want 2", len(distinct)))
	}

	out := make(ClusterAssignment, len(labels))
	for id, label := range labels {
		out[id] = label
	}
	return out, nil
}

// BlocSizes returns the member count per bloc.
func (c ClusterAssignment) BlocSizes() map[BlocLabel]int {
	sizes := make(map[BlocLabel]int, 2)
	for _, label := range c {
		sizes[label]++
	}
	return sizes
}

// Members returns the legislators assigned to a bloc, in unspecified order.
func (c ClusterAssignment) Members(bloc BlocLabel) []core.LegislatorID {
	var out []core.LegislatorID
	for id, label := range c {
		if label == bloc {
			out = append(out, id)
		}
	}
	return out
}
