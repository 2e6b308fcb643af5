package engine

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// ScoreEngine computes the per-legislator B-Call scores from a (filtered)
// roll-call matrix. Standardization is global: one scalar (mu, sigma) pair
// over every non-missing cell, not per-column.
type ScoreEngine struct{}

// NewScoreEngine creates a score engine.
func NewScoreEngine() *ScoreEngine {
	return &ScoreEngine{}
}

// Score produces oriented (d1, d2) per retained legislator.
// Steps, in order: global z-standardization of non-missing cells; per-row
// mean (d1 raw) and population standard deviation (d2 raw, NaN below two
// usable cells); sign flip so d1(pivot) >= 0. d2 is a dispersion and is
// never flipped.
func (e *ScoreEngine) Score(m *rollcall.Matrix, clustering rollcall.ClusterAssignment, pivot core.LegislatorID) (map[core.LegislatorID]bcall.Score, error) {
	if !m.HasLegislator(pivot) {
		return nil, core.NewPivotUnscorableError(pivot)
	}
	if _, ok := clustering[pivot]; !ok {
		return nil, core.NewClusteringError(fmt.Sprintf("pivot %q has no bloc label", pivot))
	}
	for _, id := range m.Legislators() {
		if _, ok := clustering[id]; !ok {
			return nil, core.NewClusteringError(fmt.Sprintf("legislator %q has no bloc label", id))
		}
	}

	// Global standardization pass.
	var all []float64
	for _, id := range m.Legislators() {
		row, _ := m.Row(id)
		for _, v := range row {
			if !rollcall.IsMissing(v) {
				all = append(all, v)
			}
		}
	}
	mu, err := stats.Mean(all)
	if err != nil {
		return nil, core.NewInsufficientDataError("no observed cells to standardize")
	}
	sigma, err := stats.StandardDeviationPopulation(all)
	if err != nil {
		return nil, core.NewInsufficientDataError("no observed cells to standardize")
	}
	if sigma == 0 {
		return nil, core.ErrDegenerateInput
	}

	// Raw per-legislator aggregates over each row's own z-values.
	raw := make(map[core.LegislatorID]bcall.Score, m.NumLegislators())
	for _, id := range m.Legislators() {
		row, _ := m.Row(id)
		var zs []float64
		for _, v := range row {
			if rollcall.IsMissing(v) {
				continue
			}
			zs = append(zs, (v-mu)/sigma)
		}
		d1, err := stats.Mean(zs)
		if err != nil {
			return nil, core.NewPivotUnscorableError(id)
		}
		d2 := math.NaN()
		if len(zs) >= 2 {
			d2, _ = stats.StandardDeviationPopulation(zs)
		}
		raw[id] = bcall.Score{D1: d1, D2: d2}
	}

	pivotScore := raw[pivot]
	if math.IsNaN(pivotScore.D1) {
		return nil, core.NewPivotUnscorableError(pivot)
	}

	// Orientation: the pivot's bloc anchors the positive direction.
	sign := 1.0
	if pivotScore.D1 < 0 {
		sign = -1.0
	}

	scores := make(map[core.LegislatorID]bcall.Score, len(raw))
	for id, s := range raw {
		scores[id] = bcall.Score{D1: sign * s.D1, D2: s.D2}
	}
	return scores, nil
}
