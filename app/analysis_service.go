// Package app wires loading, analysis, persistence and export into
// caller-facing services.
package app

import (
	"context"
	"time"

	"bcall/adapters/stats/engine"
	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/domain/rollcall"
	"bcall/internal"
	"bcall/internal/errors"
	"bcall/ports"
)

// AnalysisRequest defines one end-to-end analysis: where the roll calls come
// from, how to score them, and where the result should go.
type AnalysisRequest struct {
	Load   ports.LoadRequest
	Config bcall.AnalysisConfig
	// ExportPath optionally writes the score table to a file.
	ExportPath string
	// Persist stores the run when a repository is configured.
	Persist bool
}

// AnalysisService handles complete analysis runs
type AnalysisService struct {
	reader       ports.MatrixReaderPort
	orchestrator *engine.AnalysisOrchestrator
	repository   ports.ResultRepositoryPort // nil when persistence is disabled
	writer       ports.ResultWriterPort
	logger       *internal.Logger
}

// NewAnalysisService creates an analysis service. repository may be nil.
func NewAnalysisService(reader ports.MatrixReaderPort, repository ports.ResultRepositoryPort,
	writer ports.ResultWriterPort, logger *internal.Logger) *AnalysisService {
	return &AnalysisService{
		reader:       reader,
		orchestrator: engine.NewAnalysisOrchestrator(),
		repository:   repository,
		writer:       writer,
		logger:       logger,
	}
}

// Run loads the matrix, scores it and dispatches the result.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*bcall.BCallResult, error) {
	start := time.Now()

	m, parties, err := s.reader.LoadMatrix(ctx, req.Load)
	if err != nil {
		return nil, errors.LoadError("failed to load roll-call matrix", err)
	}
	s.logger.Info("Loaded matrix: %d legislators, %d votes from %s",
		m.NumLegislators(), m.NumVotes(), req.Load.Path)

	result, err := s.Analyze(ctx, m, parties, req.Config)
	if err != nil {
		return nil, err
	}

	if req.Persist && s.repository != nil {
		if err := s.repository.SaveResult(ctx, result); err != nil {
			return nil, errors.Wrap(err, "failed to persist run")
		}
		s.logger.Info("Persisted run %s", result.Meta.RunID)
	}

	if req.ExportPath != "" && s.writer != nil {
		if err := s.writer.Write(result, req.ExportPath); err != nil {
			return nil, errors.ExportError("failed to export scores", err)
		}
		s.logger.Info("Exported scores to %s", req.ExportPath)
	}

	s.logger.Debug("Full run took %dms", time.Since(start).Milliseconds())
	return result, nil
}

// Analyze scores an already-loaded matrix.
func (s *AnalysisService) Analyze(ctx context.Context, m *rollcall.Matrix,
	parties rollcall.PartyIndex, cfg bcall.AnalysisConfig) (*bcall.BCallResult, error) {

	result, err := s.orchestrator.Run(ctx, m, cfg)
	if err != nil {
		return nil, errors.AnalysisError("analysis run failed", err)
	}
	if len(parties) > 0 {
		result = result.WithParties(parties)
	}
	return result, nil
}

// GetRun fetches a persisted run.
func (s *AnalysisService) GetRun(ctx context.Context, runID string) (*bcall.BCallResult, error) {
	if s.repository == nil {
		return nil, errors.ConfigInvalid("no result repository configured")
	}
	id, err := core.ParseRunID(runID)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return s.repository.GetResult(ctx, id)
}

// ListRuns lists persisted run metadata.
func (s *AnalysisService) ListRuns(ctx context.Context, filters ports.RunFilters) ([]bcall.RunMetadata, error) {
	if s.repository == nil {
		return nil, errors.ConfigInvalid("no result repository configured")
	}
	return s.repository.ListRuns(ctx, filters)
}
