package rollcall

import (
	"bcall/domain/core"
)

// LongRecord is one (legislator, vote, cell) observation from a long-format
// source. Cell is a validated value (Yea/Nay/Abstain) or missing.
type LongRecord struct {
	Legislator core.LegislatorID
	Vote       core.VoteID
	Cell       float64
}

// Builder accumulates observations and produces a validated Matrix.
// Row and column order follow first appearance in the input, so a builder fed
// the same records yields the same matrix. Duplicate (legislator, vote) pairs
// keep the last observation.
type Builder struct {
	legislators []core.LegislatorID
	votes       []core.VoteID
	rowIndex    map[core.LegislatorID]int
	colIndex    map[core.VoteID]int
	cells       map[core.LegislatorID]map[core.VoteID]float64
}

// NewBuilder creates an empty matrix builder.
func NewBuilder() *Builder {
	return &Builder{
		rowIndex: make(map[core.LegislatorID]int),
		colIndex: make(map[core.VoteID]int),
		cells:    make(map[core.LegislatorID]map[core.VoteID]float64),
	}
}

// Add records one observation.
func (b *Builder) Add(rec LongRecord) {
	if _, ok := b.rowIndex[rec.Legislator]; !ok {
		b.rowIndex[rec.Legislator] = len(b.legislators)
		b.legislators = append(b.legislators, rec.Legislator)
		b.cells[rec.Legislator] = make(map[core.VoteID]float64)
	}
	if _, ok := b.colIndex[rec.Vote]; !ok {
		b.colIndex[rec.Vote] = len(b.votes)
		b.votes = append(b.votes, rec.Vote)
	}
	b.cells[rec.Legislator][rec.Vote] = rec.Cell
}

// Build assembles the matrix. Pairs never observed are missing cells.
// Legislators whose every recorded cell is missing are dropped here rather
// than rejected: upstream sources routinely list members who never appear in
// a session, and an all-missing row carries no information.
func (b *Builder) Build() (*Matrix, error) {
	var legislators []core.LegislatorID
	var data [][]float64
	for _, id := range b.legislators {
		row := make([]float64, len(b.votes))
		observed := 0
		for j, vote := range b.votes {
			cell, ok := b.cells[id][vote]
			if !ok || IsMissing(cell) {
				row[j] = Missing()
				continue
			}
			row[j] = cell
			observed++
		}
		if observed == 0 {
			continue
		}
		legislators = append(legislators, id)
		data = append(data, row)
	}
	if len(legislators) == 0 {
		return nil, core.NewMatrixError("no legislators with observed votes")
	}
	return NewMatrix(legislators, b.votes, data)
}

// PartyIndex maps legislators to party names. Purely descriptive metadata:
// scoring and partitioning never consult it.
type PartyIndex map[core.LegislatorID]string
