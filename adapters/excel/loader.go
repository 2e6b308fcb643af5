package excel

import (
	"context"
	"fmt"
	"log"

	"bcall/domain/core"
	"bcall/domain/rollcall"
	"bcall/ports"
)

// MatrixLoader implements ports.MatrixReaderPort over Excel/CSV sources.
type MatrixLoader struct{}

// NewMatrixLoader creates a loader.
func NewMatrixLoader() *MatrixLoader {
	return &MatrixLoader{}
}

// LoadMatrix reads, normalizes and reshapes one source file into a validated
// roll-call matrix, plus whatever party metadata the source carried.
func (l *MatrixLoader) LoadMatrix(ctx context.Context, req ports.LoadRequest) (*rollcall.Matrix, rollcall.PartyIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	table, err := NewDataReader(req.Path, req.Sheet).ReadTable()
	if err != nil {
		return nil, nil, err
	}

	var m *rollcall.Matrix
	parties := rollcall.PartyIndex{}

	switch req.Layout {
	case ports.LayoutLong:
		m, err = l.buildLong(table, parties)
	case ports.LayoutWide, "":
		m, err = l.buildWide(table, parties)
	default:
		return nil, nil, fmt.Errorf("unknown layout %q", req.Layout)
	}
	if err != nil {
		return nil, nil, err
	}

	if req.PartyPath != "" {
		if err := l.mergePartyFile(req.PartyPath, parties); err != nil {
			return nil, nil, err
		}
	}

	log.Printf("[MatrixLoader] loaded %d legislators x %d votes from %s",
		m.NumLegislators(), m.NumVotes(), req.Path)
	return m, parties, nil
}

// buildWide interprets the table as legislator rows versus vote columns.
func (l *MatrixLoader) buildWide(table *RawTable, parties rollcall.PartyIndex) (*rollcall.Matrix, error) {
	if len(table.Headers) < 2 {
		return nil, fmt.Errorf("wide layout needs a legislator column plus at least one vote column")
	}

	builder := rollcall.NewBuilder()
	votes := make([]core.VoteID, len(table.Headers)-1)
	for j, h := range table.Headers[1:] {
		if h == "" {
			return nil, fmt.Errorf("vote column %d has an empty header", j+1)
		}
		votes[j] = core.VoteID(h)
	}

	for i, row := range table.Rows {
		id, party := CleanLegislatorName(row[0])
		if id == "" {
			return nil, fmt.Errorf("row %d has an empty legislator name", i+2)
		}
		if party != "" {
			parties[id] = party
		}
		for j, vote := range votes {
			builder.Add(rollcall.LongRecord{
				Legislator: id,
				Vote:       vote,
				Cell:       NormalizeVoteCode(row[j+1]),
			})
		}
	}
	return builder.Build()
}

// buildLong interprets the table as one (legislator, vote, choice) record
// per row, using the first three columns.
func (l *MatrixLoader) buildLong(table *RawTable, parties rollcall.PartyIndex) (*rollcall.Matrix, error) {
	if len(table.Headers) < 3 {
		return nil, fmt.Errorf("long layout needs legislator, vote and choice columns")
	}

	builder := rollcall.NewBuilder()
	for i, row := range table.Rows {
		id, party := CleanLegislatorName(row[0])
		if id == "" {
			return nil, fmt.Errorf("row %d has an empty legislator name", i+2)
		}
		if party != "" {
			parties[id] = party
		}
		if row[1] == "" {
			return nil, fmt.Errorf("row %d has an empty vote identifier", i+2)
		}
		builder.Add(rollcall.LongRecord{
			Legislator: id,
			Vote:       core.VoteID(row[1]),
			Cell:       NormalizeVoteCode(row[2]),
		})
	}
	return builder.Build()
}

// mergePartyFile folds a (legislator, party) table into the index. Entries
// already discovered inline win: the vote source is closer to the data.
func (l *MatrixLoader) mergePartyFile(path string, parties rollcall.PartyIndex) error {
	table, err := NewDataReader(path, "").ReadTable()
	if err != nil {
		return fmt.Errorf("party metadata: %w", err)
	}
	if len(table.Headers) < 2 {
		return fmt.Errorf("party metadata needs legislator and party columns")
	}
	for _, row := range table.Rows {
		id, _ := CleanLegislatorName(row[0])
		if id == "" || row[1] == "" {
			continue
		}
		if _, exists := parties[id]; !exists {
			parties[id] = row[1]
		}
	}
	return nil
}
