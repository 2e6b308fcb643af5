package engine

import (
	"fmt"

	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// ParticipationFilter drops legislators whose non-missing vote fraction is
// below a threshold. Columns are untouched; the input matrix is never
// mutated.
type ParticipationFilter struct {
	threshold float64
}

// NewParticipationFilter creates a filter for a threshold in [0,1].
func NewParticipationFilter(threshold float64) (*ParticipationFilter, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("participation threshold %v outside [0,1]", threshold)
	}
	return &ParticipationFilter{threshold: threshold}, nil
}

// Filter returns a new matrix retaining only rows with
// participation >= threshold. Fails when nothing survives.
func (f *ParticipationFilter) Filter(m *rollcall.Matrix) (*rollcall.Matrix, error) {
	keep := make(map[core.LegislatorID]bool, m.NumLegislators())
	for _, id := range m.Legislators() {
		p, _ := m.Participation(id)
		if p >= f.threshold {
			keep[id] = true
		}
	}
	if len(keep) == 0 {
		return nil, core.NewInsufficientDataError(
			fmt.Sprintf("no legislator reaches participation threshold %.2f", f.threshold))
	}
	return m.FilterRows(keep)
}
