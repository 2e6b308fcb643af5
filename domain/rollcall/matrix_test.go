package rollcall

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcall/domain/core"
)

func ids(ss ...string) []core.LegislatorID {
	out := make([]core.LegislatorID, len(ss))
	for i, s := range ss {
		out[i] = core.LegislatorID(s)
	}
	return out
}

func voteIDs(ss ...string) []core.VoteID {
	out := make([]core.VoteID, len(ss))
	for i, s := range ss {
		out[i] = core.VoteID(s)
	}
	return out
}

func TestNewMatrix_Valid(t *testing.T) {
	m, err := NewMatrix(ids("a", "b"), voteIDs("v1", "v2", "v3"), [][]float64{
		{Yea, Nay, Abstain},
		{Nay, math.NaN(), Yea},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumLegislators())
	assert.Equal(t, 3, m.NumVotes())
	assert.True(t, m.HasLegislator("a"))
	assert.False(t, m.HasLegislator("z"))

	p, ok := m.Participation("b")
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, p, 1e-12)
}

func TestNewMatrix_Invalid(t *testing.T) {
	cases := map[string]struct {
		legislators []core.LegislatorID
		votes       []core.VoteID
		data        [][]float64
	}{
		"no legislators": {nil, voteIDs("v"), nil},
		"no votes":       {ids("a"), nil, [][]float64{{}}},
		"duplicate legislator": {ids("a", "a"), voteIDs("v"), [][]float64{
			{Yea}, {Nay},
		}},
		"duplicate vote": {ids("a"), voteIDs("v", "v"), [][]float64{
			{Yea, Nay},
		}},
		"ragged row": {ids("a"), voteIDs("v", "w"), [][]float64{
			{Yea},
		}},
		"invalid cell value": {ids("a"), voteIDs("v"), [][]float64{
			{0.5},
		}},
		"all-missing row": {ids("a"), voteIDs("v", "w"), [][]float64{
			{math.NaN(), math.NaN()},
		}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewMatrix(tc.legislators, tc.votes, tc.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidMatrix)
		})
	}
}

func TestMatrix_FilterRows(t *testing.T) {
	m, err := NewMatrix(ids("a", "b", "c"), voteIDs("v1", "v2"), [][]float64{
		{Yea, Nay},
		{Nay, Yea},
		{Yea, Yea},
	})
	require.NoError(t, err)

	filtered, err := m.FilterRows(map[core.LegislatorID]bool{"a": true, "c": true})
	require.NoError(t, err)

	assert.Equal(t, ids("a", "c"), filtered.Legislators())
	assert.Equal(t, 2, filtered.NumVotes())
	// Original untouched.
	assert.Equal(t, 3, m.NumLegislators())

	_, err = m.FilterRows(map[core.LegislatorID]bool{})
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestMatrix_FingerprintDeterministic(t *testing.T) {
	build := func() *Matrix {
		m, err := NewMatrix(ids("a", "b"), voteIDs("v1", "v2"), [][]float64{
			{Yea, math.NaN()},
			{Nay, Abstain},
		})
		require.NoError(t, err)
		return m
	}
	assert.Equal(t, build().Fingerprint(), build().Fingerprint())

	other, err := NewMatrix(ids("a", "b"), voteIDs("v1", "v2"), [][]float64{
		{Yea, Yea},
		{Nay, Abstain},
	})
	require.NoError(t, err)
	assert.NotEqual(t, build().Fingerprint(), other.Fingerprint())
}

func TestBuilder_LongReshape(t *testing.T) {
	b := NewBuilder()
	b.Add(LongRecord{Legislator: "a", Vote: "v1", Cell: Yea})
	b.Add(LongRecord{Legislator: "b", Vote: "v1", Cell: Nay})
	b.Add(LongRecord{Legislator: "a", Vote: "v2", Cell: Abstain})
	// Duplicate observation keeps the last value.
	b.Add(LongRecord{Legislator: "b", Vote: "v1", Cell: Yea})

	m, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumLegislators())
	assert.Equal(t, 2, m.NumVotes())

	cell, ok := m.Cell("b", 0)
	require.True(t, ok)
	assert.Equal(t, Yea, cell)

	// b never voted on v2: missing.
	cell, ok = m.Cell("b", 1)
	require.True(t, ok)
	assert.True(t, IsMissing(cell))
}

func TestBuilder_DropsAllMissingRows(t *testing.T) {
	b := NewBuilder()
	b.Add(LongRecord{Legislator: "a", Vote: "v1", Cell: Yea})
	b.Add(LongRecord{Legislator: "ghost", Vote: "v1", Cell: Missing()})

	m, err := b.Build()
	require.NoError(t, err)
	assert.False(t, m.HasLegislator("ghost"))
	assert.True(t, m.HasLegislator("a"))
}
