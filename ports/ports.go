// Package ports defines the boundary interfaces between the scoring core and
// its collaborators: data loading, result persistence and result export.
package ports

import (
	"context"

	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// Layout describes how a source file arranges roll-call data.
type Layout string

const (
	// LayoutWide: first column legislator, one column per vote.
	LayoutWide Layout = "wide"
	// LayoutLong: one (legislator, vote, choice) record per row.
	LayoutLong Layout = "long"
)

// LoadRequest defines the parameters for loading one roll-call matrix.
type LoadRequest struct {
	Path   string // .xlsx or .csv
	Layout Layout
	Sheet  string // Excel sheet name, defaults to Sheet1
	// PartyPath optionally points at a (legislator, party) table.
	PartyPath string
}

// MatrixReaderPort loads and normalizes source data into a validated
// roll-call matrix. Vote-code vocabulary mapping and legislator-name
// cleaning happen behind this port; the core never sees raw strings.
type MatrixReaderPort interface {
	LoadMatrix(ctx context.Context, req LoadRequest) (*rollcall.Matrix, rollcall.PartyIndex, error)
}

// RunFilters narrows repository listings.
type RunFilters struct {
	Metric bcall.Metric
	Limit  int
}

// ResultRepositoryPort persists the tabular result of a run.
type ResultRepositoryPort interface {
	SaveResult(ctx context.Context, result *bcall.BCallResult) error
	GetResult(ctx context.Context, runID core.RunID) (*bcall.BCallResult, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]bcall.RunMetadata, error)
}

// ResultWriterPort exports a result table to a file.
type ResultWriterPort interface {
	Write(result *bcall.BCallResult, path string) error
}
