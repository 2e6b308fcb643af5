package app

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"bcall/adapters/stats/engine"
	"bcall/domain/bcall"
	"bcall/domain/rollcall"
	"bcall/internal"
	"bcall/internal/errors"
)

// SweepRequest defines a participation-threshold sweep over one matrix.
type SweepRequest struct {
	Thresholds []float64
	Config     bcall.AnalysisConfig // Threshold field ignored, taken per point
	// MaxConcurrent bounds parallel runs; 0 means serial.
	MaxConcurrent int64
	// OnPoint, when set, is called after each threshold finishes. Called from
	// worker goroutines; keep it cheap and thread-safe.
	OnPoint func(completed, total int)
}

// SweepPoint is one threshold's outcome. Err is set when that threshold
// failed (typically everyone filtered out); the sweep itself still succeeds.
type SweepPoint struct {
	Threshold     float64            `json:"threshold"`
	RetainedCount int                `json:"retained_count,omitempty"`
	BlocSizes     map[string]int     `json:"bloc_sizes,omitempty"`
	Result        *bcall.BCallResult `json:"-"`
	Err           error              `json:"-"`
	ErrMessage    string             `json:"error,omitempty"`
}

// SensitivityService sweeps the participation threshold to show how stable
// the bloc structure is under filtering.
type SensitivityService struct {
	orchestrator *engine.AnalysisOrchestrator
	logger       *internal.Logger
}

// NewSensitivityService creates a sensitivity service
func NewSensitivityService(logger *internal.Logger) *SensitivityService {
	return &SensitivityService{
		orchestrator: engine.NewAnalysisOrchestrator(),
		logger:       logger,
	}
}

// Sweep runs the analysis once per threshold, bounded by MaxConcurrent.
// Points come back ordered by threshold ascending. Per-point failures are
// recorded in the point, not returned; the sweep fails only on bad input or
// context cancellation.
func (s *SensitivityService) Sweep(ctx context.Context, m *rollcall.Matrix, req SweepRequest) ([]SweepPoint, error) {
	if len(req.Thresholds) == 0 {
		return nil, errors.InvalidInput("sweep needs at least one threshold")
	}
	for _, th := range req.Thresholds {
		if !(th >= 0 && th <= 1) { // also rejects NaN
			return nil, errors.InvalidInput("sweep thresholds must be in [0, 1]")
		}
	}

	limit := req.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)

	points := make([]SweepPoint, len(req.Thresholds))
	var wg sync.WaitGroup
	var completed int
	var mu sync.Mutex

	for i, th := range req.Thresholds {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, th float64) {
			defer wg.Done()
			defer sem.Release(1)

			cfg := req.Config
			cfg.Threshold = th
			points[i] = s.runPoint(ctx, m, cfg)

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			if req.OnPoint != nil {
				req.OnPoint(done, len(req.Thresholds))
			}
		}(i, th)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Threshold < points[j].Threshold })
	s.logger.Info("Sweep finished: %d thresholds, %d failed", len(points), countFailed(points))
	return points, nil
}

func (s *SensitivityService) runPoint(ctx context.Context, m *rollcall.Matrix, cfg bcall.AnalysisConfig) SweepPoint {
	point := SweepPoint{Threshold: cfg.Threshold}
	result, err := s.orchestrator.Run(ctx, m, cfg)
	if err != nil {
		point.Err = err
		point.ErrMessage = err.Error()
		s.logger.Warn("Threshold %.2f failed: %v", cfg.Threshold, err)
		return point
	}
	point.Result = result
	point.RetainedCount = result.Meta.RetainedCount
	point.BlocSizes = map[string]int{}
	for label, n := range result.Meta.BlocSizes {
		point.BlocSizes[string(label)] = n
	}
	return point
}

func countFailed(points []SweepPoint) int {
	n := 0
	for _, p := range points {
		if p.Err != nil {
			n++
		}
	}
	return n
}
