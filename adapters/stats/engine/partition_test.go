package engine

import (
	"reflect"
	"testing"

	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/domain/rollcall"
)

func TestPartition_ScenarioA(t *testing.T) {
	m := scenarioA(t)
	p := NewBiPartitioner(bcall.MetricManhattan, false)

	assignment, err := p.Partition(m, "P")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assignment["P"] != rollcall.BlocRight {
		t.Errorf("pivot must land in its own bloc, got %q", assignment["P"])
	}
	if assignment["R"] != rollcall.BlocRight {
		t.Errorf("R votes identically to pivot, expected right, got %q", assignment["R"])
	}
	if assignment["Q"] != rollcall.BlocLeft {
		t.Errorf("Q votes opposite to pivot, expected left, got %q", assignment["Q"])
	}
}

func TestPartition_Deterministic(t *testing.T) {
	m := mustMatrix(t, []string{"A", "B", "C", "D", "E"}, 3, [][]float64{
		{1, 1, 1},
		{1, 1, -1},
		{-1, -1, -1},
		{-1, 1, -1},
		{1, -1, 1},
	})
	p := NewBiPartitioner(bcall.MetricEuclidean, true)

	first, err := p.Partition(m, "A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := p.Partition(m, "A")
		if err != nil {
			t.Fatalf("unexpected error on repeat: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("partition not deterministic: %v vs %v", first, again)
		}
	}
}

func TestPartition_CoverageAndCardinality(t *testing.T) {
	m := mustMatrix(t, []string{"A", "B", "C", "D"}, 2, [][]float64{
		{1, 1},
		{1, -1},
		{-1, -1},
		{-1, 1},
	})
	assignment, err := NewBiPartitioner(bcall.MetricManhattan, false).Partition(m, "C")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assignment) != m.NumLegislators() {
		t.Errorf("assignment covers %d legislators, want %d", len(assignment), m.NumLegislators())
	}
	sizes := assignment.BlocSizes()
	if len(sizes) != 2 {
		t.Errorf("expected exactly 2 blocs, got %d", len(sizes))
	}
	for bloc, size := range sizes {
		if size == 0 {
			t.Errorf("bloc %q is empty", bloc)
		}
	}
}

func TestPartition_TwoLegislators(t *testing.T) {
	m := mustMatrix(t, []string{"P", "X"}, 2, [][]float64{
		{1, 1},
		{1, 1},
	})
	assignment, err := NewBiPartitioner(bcall.MetricManhattan, false).Partition(m, "P")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A 2-point partition is trivially two singletons, even for identical voters.
	if assignment["P"] != rollcall.BlocRight || assignment["X"] != rollcall.BlocLeft {
		t.Errorf("expected {P:right, X:left}, got %v", assignment)
	}
}

func TestPartition_PivotNotInMatrix(t *testing.T) {
	m := scenarioA(t)
	_, err := NewBiPartitioner(bcall.MetricManhattan, false).Partition(m, "ghost")
	if !core.IsClusteringError(err) {
		t.Fatalf("expected clustering error, got %v", err)
	}
}

func TestPartition_NoComparableVotes(t *testing.T) {
	// Pivot voted only on column a; everyone else only on column b.
	m := mustMatrix(t, []string{"P", "X", "Y"}, 2, [][]float64{
		{1, na()},
		{na(), 1},
		{na(), -1},
	})
	_, err := NewBiPartitioner(bcall.MetricManhattan, false).Partition(m, "P")
	if !core.IsClusteringError(err) {
		t.Fatalf("expected clustering error for total non-overlap, got %v", err)
	}
}

func TestPartition_UnknownDistanceLandsLeft(t *testing.T) {
	// X overlaps the pivot, Y does not; Y must land in the far bloc even
	// though the near half has room.
	m := mustMatrix(t, []string{"P", "X", "Y"}, 3, [][]float64{
		{1, 1, na()},
		{1, 1, na()},
		{na(), na(), 1},
	})
	assignment, err := NewBiPartitioner(bcall.MetricManhattan, false).Partition(m, "P")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignment["Y"] != rollcall.BlocLeft {
		t.Errorf("legislator with unknown distance should land left, got %q", assignment["Y"])
	}
}

func TestPartition_BoundaryTieBreaksByIdentifier(t *testing.T) {
	// B and C are equidistant from the pivot and sit exactly at the median
	// boundary; only one fits in the near half, and the lexicographically
	// smaller identifier wins.
	m := mustMatrix(t, []string{"P", "A", "C", "B", "Z"}, 2, [][]float64{
		{1, 1},
		{1, 1},
		{1, -1},
		{1, -1},
		{-1, -1},
	})
	assignment, err := NewBiPartitioner(bcall.MetricManhattan, false).Partition(m, "P")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignment["A"] != rollcall.BlocRight {
		t.Errorf("expected A (identical voter) in right bloc, got %q", assignment["A"])
	}
	if assignment["B"] != rollcall.BlocRight {
		t.Errorf("expected B (tie, smaller id) in right bloc, got %q", assignment["B"])
	}
	if assignment["C"] != rollcall.BlocLeft {
		t.Errorf("expected C (tie, larger id) in left bloc, got %q", assignment["C"])
	}
	if assignment["Z"] != rollcall.BlocLeft {
		t.Errorf("expected Z in left bloc, got %q", assignment["Z"])
	}
}
