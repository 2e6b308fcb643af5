// Package testkit generates synthetic legislatures with a known bloc
// structure, for tests and demos.
package testkit

import (
	"fmt"
	"math/rand"

	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// LegislatureConfig configures the synthetic roll-call generator
type LegislatureConfig struct {
	RightCount int `json:"right_count"`
	LeftCount  int `json:"left_count"`
	VoteCount  int `json:"vote_count"`
	// Loyalty is the probability a member votes with their bloc line.
	Loyalty float64 `json:"loyalty"`
	// AbstainRate and MissingRate apply after the bloc line is drawn.
	AbstainRate float64 `json:"abstain_rate"`
	MissingRate float64 `json:"missing_rate"`
	Seed        int64   `json:"seed"`
}

// DefaultLegislatureConfig returns a medium chamber with two clear blocs
func DefaultLegislatureConfig() LegislatureConfig {
	return LegislatureConfig{
		RightCount:  60,
		LeftCount:   40,
		VoteCount:   200,
		Loyalty:     0.85,
		AbstainRate: 0.05,
		MissingRate: 0.10,
		Seed:        42,
	}
}

// LegislatureGenerator generates synthetic roll-call matrices
type LegislatureGenerator struct {
	config LegislatureConfig
	rng    *rand.Rand
}

// NewLegislatureGenerator creates a new generator
func NewLegislatureGenerator(config LegislatureConfig) *LegislatureGenerator {
	return &LegislatureGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces a matrix plus the planted bloc of every member.
// Right-bloc members vote the yea line, left-bloc members the nay line,
// each flipped with probability 1-Loyalty.
func (g *LegislatureGenerator) Generate() (*rollcall.Matrix, map[core.LegislatorID]rollcall.BlocLabel, error) {
	total := g.config.RightCount + g.config.LeftCount
	if total < 2 || g.config.VoteCount < 1 {
		return nil, nil, fmt.Errorf("legislature too small: %d members, %d votes", total, g.config.VoteCount)
	}

	legislators := make([]core.LegislatorID, 0, total)
	planted := make(map[core.LegislatorID]rollcall.BlocLabel, total)
	for i := 0; i < g.config.RightCount; i++ {
		id := core.LegislatorID(fmt.Sprintf("R%03d", i+1))
		legislators = append(legislators, id)
		planted[id] = rollcall.BlocRight
	}
	for i := 0; i < g.config.LeftCount; i++ {
		id := core.LegislatorID(fmt.Sprintf("L%03d", i+1))
		legislators = append(legislators, id)
		planted[id] = rollcall.BlocLeft
	}

	votes := make([]core.VoteID, g.config.VoteCount)
	for j := range votes {
		votes[j] = core.VoteID(fmt.Sprintf("V%04d", j+1))
	}

	data := make([][]float64, total)
	for i, id := range legislators {
		row := make([]float64, g.config.VoteCount)
		line := rollcall.Yea
		if planted[id] == rollcall.BlocLeft {
			line = rollcall.Nay
		}
		observed := 0
		for j := range row {
			row[j] = g.drawCell(line)
			if !rollcall.IsMissing(row[j]) {
				observed++
			}
		}
		// Matrix construction rejects fully-missing rows; pin one cell.
		if observed == 0 {
			row[0] = line
		}
		data[i] = row
	}

	m, err := rollcall.NewMatrix(legislators, votes, data)
	if err != nil {
		return nil, nil, err
	}
	return m, planted, nil
}

func (g *LegislatureGenerator) drawCell(line float64) float64 {
	r := g.rng.Float64()
	if r < g.config.MissingRate {
		return rollcall.Missing()
	}
	if r < g.config.MissingRate+g.config.AbstainRate {
		return rollcall.Abstain
	}
	if g.rng.Float64() < g.config.Loyalty {
		return line
	}
	return -line
}
