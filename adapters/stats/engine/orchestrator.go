package engine

import (
	"context"
	"log"
	"time"

	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// AnalysisOrchestrator sequences partition -> filter -> score over one
// roll-call matrix and assembles the result table. Each run is a pure
// function of its inputs; the orchestrator keeps no state between runs, so
// concurrent runs need no coordination.
type AnalysisOrchestrator struct{}

// NewAnalysisOrchestrator creates an orchestrator.
func NewAnalysisOrchestrator() *AnalysisOrchestrator {
	return &AnalysisOrchestrator{}
}

// Run executes one analysis. Any stage failure aborts the run and surfaces
// the originating error; partial results are never returned.
func (o *AnalysisOrchestrator) Run(ctx context.Context, m *rollcall.Matrix, cfg bcall.AnalysisConfig) (*bcall.BCallResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	partitioner := NewBiPartitioner(cfg.Metric, cfg.Normalize)

	pivot := cfg.Pivot
	autoSelected := false
	if pivot == "" {
		selected, err := o.selectPivot(m, partitioner)
		if err != nil {
			return nil, err
		}
		pivot = selected
		autoSelected = true
		log.Printf("[Orchestrator] auto-selected pivot %q", pivot)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assignment, err := partitioner.Partition(m, pivot)
	if err != nil {
		return nil, err
	}

	filter, err := NewParticipationFilter(cfg.Threshold)
	if err != nil {
		return nil, err
	}
	filtered, err := filter.Filter(m)
	if err != nil {
		return nil, err
	}
	if !filtered.HasLegislator(pivot) {
		return nil, core.NewInsufficientDataError(
			"pivot " + pivot.String() + " removed by participation filter")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores, err := NewScoreEngine().Score(filtered, assignment, pivot)
	if err != nil {
		return nil, err
	}

	retained := filtered.Legislators()
	retainedBlocs := make(rollcall.ClusterAssignment, len(retained))
	for _, id := range retained {
		retainedBlocs[id] = assignment[id]
	}

	meta := bcall.RunMetadata{
		RunID:             core.NewRunID(),
		Metric:            cfg.Metric,
		Pivot:             pivot,
		AutoPivot:         autoSelected,
		Threshold:         cfg.Threshold,
		Normalize:         cfg.Normalize,
		TotalLegislators:  m.NumLegislators(),
		RetainedCount:     len(retained),
		DroppedCount:      m.NumLegislators() - len(retained),
		VoteCount:         m.NumVotes(),
		BlocSizes:         retainedBlocs.BlocSizes(),
		MatrixFingerprint: m.Fingerprint(),
		RuntimeMs:         time.Since(start).Milliseconds(),
		CreatedAt:         core.Now(),
	}

	result, err := bcall.NewResult(retained, scores, retainedBlocs, meta)
	if err != nil {
		return nil, err
	}
	log.Printf("[Orchestrator] run %s: %d/%d legislators scored, blocs %v",
		meta.RunID, meta.RetainedCount, meta.TotalLegislators, meta.BlocSizes)
	return result, nil
}

// selectPivot picks a pivot deterministically when the caller supplies none.
// Partitioning needs a pivot but pivot selection needs bloc membership, so
// the bootstrap runs twice: a provisional partition anchored on the first
// matrix row discovers bloc membership, then the final pivot is the
// highest-participation member of the provisional "right" bloc, ties broken
// by identifier.
func (o *AnalysisOrchestrator) selectPivot(m *rollcall.Matrix, partitioner *BiPartitioner) (core.LegislatorID, error) {
	provisional := m.Legislators()[0]
	assignment, err := partitioner.Partition(m, provisional)
	if err != nil {
		return "", err
	}

	var best core.LegislatorID
	bestParticipation := -1.0
	for _, id := range m.Legislators() {
		if assignment[id] != rollcall.BlocRight {
			continue
		}
		p, _ := m.Participation(id)
		if p > bestParticipation || (p == bestParticipation && id < best) {
			best = id
			bestParticipation = p
		}
	}
	if best == "" {
		return "", core.NewClusteringError("provisional partition produced an empty right bloc")
	}
	return best, nil
}
