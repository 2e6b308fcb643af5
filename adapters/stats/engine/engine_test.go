package engine

import (
	"math"
	"testing"

	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// mustMatrix builds a matrix from string identifiers and raw rows, failing
// the test on invalid fixtures.
func mustMatrix(t *testing.T, legislators []string, votes int, rows [][]float64) *rollcall.Matrix {
	t.Helper()
	ids := make([]core.LegislatorID, len(legislators))
	for i, l := range legislators {
		ids[i] = core.LegislatorID(l)
	}
	voteIDs := make([]core.VoteID, votes)
	for j := range voteIDs {
		voteIDs[j] = core.VoteID(string(rune('a' + j)))
	}
	m, err := rollcall.NewMatrix(ids, voteIDs, rows)
	if err != nil {
		t.Fatalf("fixture matrix invalid: %v", err)
	}
	return m
}

// scenarioA is the canonical 3x4 fully observed matrix: P votes identically
// to R and opposite to Q on every vote, and every voter is perfectly
// consistent.
func scenarioA(t *testing.T) *rollcall.Matrix {
	t.Helper()
	return mustMatrix(t, []string{"P", "Q", "R"}, 4, [][]float64{
		{1, 1, 1, 1},
		{-1, -1, -1, -1},
		{1, 1, 1, 1},
	})
}

func na() float64 { return math.NaN() }
