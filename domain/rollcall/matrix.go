package rollcall

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"bcall/domain/core"
)

// Cell values for an observed vote. A missing cell (absence, unrecorded vote)
// is represented as NaN so the dense float64 matrix stays NA-aware.
const (
	Yea     float64 = 1
	Nay     float64 = -1
	Abstain float64 = 0
)

// Missing returns the sentinel cell value for an unobserved vote.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a cell value is the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Matrix is the legislator × vote roll-call matrix.
// INVARIANTS (checked at construction, immutable afterward):
// - legislator and vote identifiers are unique and non-empty
// - at least one row and one column
// - every row has at least one non-missing cell
// - every cell is Yea, Nay, Abstain or missing
type Matrix struct {
	legislators []core.LegislatorID
	votes       []core.VoteID
	data        [][]float64
	rowIndex    map[core.LegislatorID]int
}

// NewMatrix creates a validated roll-call matrix. The data slice is
// row-major: data[i][j] is legislator i's cell on vote j.
func NewMatrix(legislators []core.LegislatorID, votes []core.VoteID, data [][]float64) (*Matrix, error) {
	if len(legislators) == 0 {
		return nil, core.NewMatrixError("no legislators")
	}
	if len(votes) == 0 {
		return nil, core.NewMatrixError("no votes")
	}
	if len(data) != len(legislators) {
		return nil, core.NewMatrixError(fmt.Sprintf("row count %d does not match legislator count %d", len(data), len(legislators)))
	}

	rowIndex := make(map[core.LegislatorID]int, len(legislators))
	for i, id := range legislators {
		if strings.TrimSpace(id.String()) == "" {
			return nil, core.NewMatrixError(fmt.Sprintf("empty legislator identifier at row %d", i))
		}
		if _, dup := rowIndex[id]; dup {
			return nil, core.NewMatrixError(fmt.Sprintf("duplicate legislator %q", id))
		}
		rowIndex[id] = i
	}

	seenVotes := make(map[core.VoteID]struct{}, len(votes))
	for j, id := range votes {
		if strings.TrimSpace(id.String()) == "" {
			return nil, core.NewMatrixError(fmt.Sprintf("empty vote identifier at column %d", j))
		}
		if _, dup := seenVotes[id]; dup {
			return nil, core.NewMatrixError(fmt.Sprintf("duplicate vote %q", id))
		}
		seenVotes[id] = struct{}{}
	}

	for i, row := range data {
		if len(row) != len(votes) {
			return nil, core.NewMatrixError(fmt.Sprintf("row %q has %d cells, expected %d", legislators[i], len(row), len(votes)))
		}
		observed := 0
		for j, v := range row {
			if IsMissing(v) {
				continue
			}
			if v != Yea && v != Nay && v != Abstain {
				return nil, core.NewMatrixError(fmt.Sprintf("cell (%q, %q) has invalid value %v", legislators[i], votes[j], v))
			}
			observed++
		}
		if observed == 0 {
			return nil, core.NewMatrixError(fmt.Sprintf("legislator %q has no observed votes", legislators[i]))
		}
	}

	return &Matrix{
		legislators: append([]core.LegislatorID(nil), legislators...),
		votes:       append([]core.VoteID(nil), votes...),
		data:        data,
		rowIndex:    rowIndex,
	}, nil
}

// NumLegislators returns the row count.
func (m *Matrix) NumLegislators() int { return len(m.legislators) }

// NumVotes returns the column count.
func (m *Matrix) NumVotes() int { return len(m.votes) }

// Legislators returns the ordered legislator identifiers.
func (m *Matrix) Legislators() []core.LegislatorID {
	return append([]core.LegislatorID(nil), m.legislators...)
}

// Votes returns the ordered vote identifiers.
func (m *Matrix) Votes() []core.VoteID {
	return append([]core.VoteID(nil), m.votes...)
}

// HasLegislator reports whether the legislator is a row of the matrix.
func (m *Matrix) HasLegislator(id core.LegislatorID) bool {
	_, ok := m.rowIndex[id]
	return ok
}

// Row returns the vote vector for a legislator. The returned slice is the
// matrix's own storage and must not be modified by callers.
func (m *Matrix) Row(id core.LegislatorID) ([]float64, bool) {
	i, ok := m.rowIndex[id]
	if !ok {
		return nil, false
	}
	return m.data[i], true
}

// Cell returns a single cell value.
func (m *Matrix) Cell(id core.LegislatorID, col int) (float64, bool) {
	i, ok := m.rowIndex[id]
	if !ok || col < 0 || col >= len(m.votes) {
		return 0, false
	}
	return m.data[i][col], true
}

// Participation returns the non-missing vote fraction for a legislator.
func (m *Matrix) Participation(id core.LegislatorID) (float64, bool) {
	row, ok := m.Row(id)
	if !ok {
		return 0, false
	}
	observed := 0
	for _, v := range row {
		if !IsMissing(v) {
			observed++
		}
	}
	return float64(observed) / float64(len(row)), true
}

// FilterRows produces a new, smaller matrix retaining only the rows whose
// identifier appears in keep. Row order and all columns are preserved; the
// receiver is never mutated.
func (m *Matrix) FilterRows(keep map[core.LegislatorID]bool) (*Matrix, error) {
	var legislators []core.LegislatorID
	var data [][]float64
	for i, id := range m.legislators {
		if keep[id] {
			legislators = append(legislators, id)
			data = append(data, m.data[i])
		}
	}
	if len(legislators) == 0 {
		return nil, core.NewInsufficientDataError("no legislators retained")
	}
	return NewMatrix(legislators, m.votes, data)
}

// Fingerprint computes a deterministic hash of the matrix contents, used to
// tie a result back to the exact input it was computed from.
func (m *Matrix) Fingerprint() core.Hash {
	var b strings.Builder
	ids := make([]string, len(m.legislators))
	for i, id := range m.legislators {
		ids[i] = id.String()
	}
	sort.Strings(ids)
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('|')
		row := m.data[m.rowIndex[core.LegislatorID(id)]]
		for _, v := range row {
			if IsMissing(v) {
				b.WriteString("NA,")
			} else {
				fmt.Fprintf(&b, "%g,", v)
			}
		}
		b.WriteByte('\n')
	}
	return core.NewHash([]byte(b.String()))
}
