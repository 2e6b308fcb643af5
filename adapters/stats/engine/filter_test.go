package engine

import (
	"errors"
	"testing"

	"bcall/domain/core"
)

func TestFilter_DropsLowParticipation(t *testing.T) {
	// Legislator "absent" cast 1 of 10 votes; threshold 0.3 excludes them.
	rows := [][]float64{
		{1, 1, -1, 1, -1, 1, 1, -1, 1, 1},
		{1, na(), na(), na(), na(), na(), na(), na(), na(), na()},
	}
	m := mustMatrix(t, []string{"present", "absent"}, 10, rows)

	f, err := NewParticipationFilter(0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filtered, err := f.Filter(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filtered.HasLegislator("absent") {
		t.Error("legislator below threshold should be excluded")
	}
	if !filtered.HasLegislator("present") {
		t.Error("legislator above threshold should be retained")
	}
	if filtered.NumVotes() != m.NumVotes() {
		t.Errorf("columns must be untouched: got %d, want %d", filtered.NumVotes(), m.NumVotes())
	}
	// The input matrix is unchanged.
	if m.NumLegislators() != 2 {
		t.Errorf("input matrix mutated: %d rows", m.NumLegislators())
	}
}

func TestFilter_Monotonicity(t *testing.T) {
	rows := [][]float64{
		{1, 1, 1, 1},
		{1, 1, na(), na()},
		{1, na(), na(), na()},
	}
	m := mustMatrix(t, []string{"full", "half", "quarter"}, 4, rows)

	prev := m.NumLegislators() + 1
	for _, threshold := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		f, err := NewParticipationFilter(threshold)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		filtered, err := f.Filter(m)
		retained := 0
		if err == nil {
			retained = filtered.NumLegislators()
		} else if !errors.Is(err, core.ErrInsufficientData) {
			t.Fatalf("unexpected error at threshold %v: %v", threshold, err)
		}
		if retained > prev {
			t.Errorf("raising threshold to %v increased retained count %d -> %d", threshold, prev, retained)
		}
		prev = retained
	}
}

func TestFilter_AllDropped(t *testing.T) {
	rows := [][]float64{
		{1, na(), na(), na()},
		{na(), -1, na(), na()},
	}
	m := mustMatrix(t, []string{"a", "b"}, 4, rows)

	f, err := NewParticipationFilter(0.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Filter(m); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestFilter_InvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{-0.1, 1.1} {
		if _, err := NewParticipationFilter(threshold); err == nil {
			t.Errorf("expected error for threshold %v", threshold)
		}
	}
}
