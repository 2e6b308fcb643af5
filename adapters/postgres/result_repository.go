// Package postgres persists the tabular result of B-Call runs.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/domain/rollcall"
	"bcall/ports"
)

// ResultRepositoryImpl implements ports.ResultRepositoryPort for PostgreSQL.
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

var _ ports.ResultRepositoryPort = (*ResultRepositoryImpl)(nil)

// NewResultRepository creates a new PostgreSQL result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepositoryImpl {
	return &ResultRepositoryImpl{db: db}
}

// Migrate creates the result tables when they do not exist yet.
func (r *ResultRepositoryImpl) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bcall_runs (
			id TEXT PRIMARY KEY,
			metric TEXT NOT NULL,
			pivot TEXT NOT NULL,
			auto_pivot BOOLEAN NOT NULL,
			threshold DOUBLE PRECISION NOT NULL,
			normalize BOOLEAN NOT NULL,
			total_legislators INT NOT NULL,
			retained_count INT NOT NULL,
			dropped_count INT NOT NULL,
			vote_count INT NOT NULL,
			bloc_right INT NOT NULL,
			bloc_left INT NOT NULL,
			matrix_fingerprint TEXT NOT NULL,
			runtime_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS bcall_scores (
			run_id TEXT NOT NULL REFERENCES bcall_runs(id) ON DELETE CASCADE,
			position INT NOT NULL,
			legislator TEXT NOT NULL,
			party TEXT,
			bloc TEXT NOT NULL,
			d1 DOUBLE PRECISION NOT NULL,
			d2 DOUBLE PRECISION,
			PRIMARY KEY (run_id, legislator)
		);
		CREATE INDEX IF NOT EXISTS idx_bcall_scores_run ON bcall_scores(run_id);
	`)
	return err
}

// SaveResult stores one run with its full score table, atomically.
func (r *ResultRepositoryImpl) SaveResult(ctx context.Context, result *bcall.BCallResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	m := result.Meta
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bcall_runs (
			id, metric, pivot, auto_pivot, threshold, normalize,
			total_legislators, retained_count, dropped_count, vote_count,
			bloc_right, bloc_left, matrix_fingerprint, runtime_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.RunID.String(), string(m.Metric), m.Pivot.String(), m.AutoPivot, m.Threshold, m.Normalize,
		m.TotalLegislators, m.RetainedCount, m.DroppedCount, m.VoteCount,
		m.BlocSizes[rollcall.BlocRight], m.BlocSizes[rollcall.BlocLeft],
		m.MatrixFingerprint.String(), m.RuntimeMs, m.CreatedAt.Time())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", m.RunID, err)
	}

	for i, id := range result.Retained {
		s := result.Scores[id]
		var d2 sql.NullFloat64
		if s.HasDispersion() {
			d2 = sql.NullFloat64{Float64: s.D2, Valid: true}
		}
		var party sql.NullString
		if p, ok := result.Parties[id]; ok {
			party = sql.NullString{String: p, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bcall_scores (run_id, position, legislator, party, bloc, d1, d2)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.RunID.String(), i, id.String(), party, string(result.Blocs[id]), s.D1, d2)
		if err != nil {
			return fmt.Errorf("failed to insert score for %q: %w", id, err)
		}
	}

	return tx.Commit()
}

type runRow struct {
	ID                string    `db:"id"`
	Metric            string    `db:"metric"`
	Pivot             string    `db:"pivot"`
	AutoPivot         bool      `db:"auto_pivot"`
	Threshold         float64   `db:"threshold"`
	Normalize         bool      `db:"normalize"`
	TotalLegislators  int       `db:"total_legislators"`
	RetainedCount     int       `db:"retained_count"`
	DroppedCount      int       `db:"dropped_count"`
	VoteCount         int       `db:"vote_count"`
	BlocRight         int       `db:"bloc_right"`
	BlocLeft          int       `db:"bloc_left"`
	MatrixFingerprint string    `db:"matrix_fingerprint"`
	RuntimeMs         int64     `db:"runtime_ms"`
	CreatedAt         time.Time `db:"created_at"`
}

func (row runRow) metadata() bcall.RunMetadata {
	return bcall.RunMetadata{
		RunID:            core.RunID(row.ID),
		Metric:           bcall.Metric(row.Metric),
		Pivot:            core.LegislatorID(row.Pivot),
		AutoPivot:        row.AutoPivot,
		Threshold:        row.Threshold,
		Normalize:        row.Normalize,
		TotalLegislators: row.TotalLegislators,
		RetainedCount:    row.RetainedCount,
		DroppedCount:     row.DroppedCount,
		VoteCount:        row.VoteCount,
		BlocSizes: map[rollcall.BlocLabel]int{
			rollcall.BlocRight: row.BlocRight,
			rollcall.BlocLeft:  row.BlocLeft,
		},
		MatrixFingerprint: core.Hash(row.MatrixFingerprint),
		RuntimeMs:         row.RuntimeMs,
		CreatedAt:         core.NewTimestamp(row.CreatedAt),
	}
}

type scoreRow struct {
	Position   int             `db:"position"`
	Legislator string          `db:"legislator"`
	Party      sql.NullString  `db:"party"`
	Bloc       string          `db:"bloc"`
	D1         float64         `db:"d1"`
	D2         sql.NullFloat64 `db:"d2"`
}

// GetResult reconstructs a stored run.
func (r *ResultRepositoryImpl) GetResult(ctx context.Context, runID core.RunID) (*bcall.BCallResult, error) {
	var run runRow
	err := r.db.GetContext(ctx, &run, `SELECT * FROM bcall_runs WHERE id = $1`, runID.String())
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("run", runID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var rows []scoreRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT position, legislator, party, bloc, d1, d2
		FROM bcall_scores WHERE run_id = $1 ORDER BY position`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for run %s: %w", runID, err)
	}

	retained := make([]core.LegislatorID, 0, len(rows))
	scores := make(map[core.LegislatorID]bcall.Score, len(rows))
	blocs := make(rollcall.ClusterAssignment, len(rows))
	parties := rollcall.PartyIndex{}
	for _, row := range rows {
		id := core.LegislatorID(row.Legislator)
		retained = append(retained, id)
		d2 := math.NaN()
		if row.D2.Valid {
			d2 = row.D2.Float64
		}
		scores[id] = bcall.Score{D1: row.D1, D2: d2}
		blocs[id] = rollcall.BlocLabel(row.Bloc)
		if row.Party.Valid {
			parties[id] = row.Party.String
		}
	}

	result, err := bcall.NewResult(retained, scores, blocs, run.metadata())
	if err != nil {
		return nil, fmt.Errorf("stored run %s violates result invariants: %w", runID, err)
	}
	if len(parties) > 0 {
		result = result.WithParties(parties)
	}
	return result, nil
}

// ListRuns returns recent run metadata, newest first.
func (r *ResultRepositoryImpl) ListRuns(ctx context.Context, filters ports.RunFilters) ([]bcall.RunMetadata, error) {
	query := `SELECT * FROM bcall_runs`
	args := []interface{}{}
	if filters.Metric != "" {
		query += ` WHERE metric = $1`
		args = append(args, string(filters.Metric))
	}
	query += ` ORDER BY created_at DESC`
	if filters.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filters.Limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]bcall.RunMetadata, len(rows))
	for i, row := range rows {
		out[i] = row.metadata()
	}
	return out, nil
}
