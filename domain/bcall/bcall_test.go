package bcall

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcall/domain/core"
	"bcall/domain/rollcall"
)

func TestParseMetric(t *testing.T) {
	for input, want := range map[string]Metric{
		"manhattan": MetricManhattan,
		"L1":        MetricManhattan,
		"Euclidean": MetricEuclidean,
		" l2 ":      MetricEuclidean,
	} {
		got, err := ParseMetric(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseMetric("cosine")
	assert.Error(t, err)
}

func TestAnalysisConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	assert.NoError(t, valid.Validate())

	cases := map[string]AnalysisConfig{
		"bad metric":         {Metric: "cosine", Pivot: "p"},
		"threshold too big":  {Metric: MetricManhattan, Pivot: "p", Threshold: 2},
		"threshold negative": {Metric: MetricManhattan, Pivot: "p", Threshold: -0.2},
		"no pivot no auto":   {Metric: MetricManhattan},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}

func fixtureResult(t *testing.T) *BCallResult {
	t.Helper()
	retained := []core.LegislatorID{"p", "q", "r"}
	scores := map[core.LegislatorID]Score{
		"p": {D1: 0.7, D2: 0.1},
		"q": {D1: -1.4, D2: 0.2},
		"r": {D1: 0.7, D2: math.NaN()},
	}
	blocs := rollcall.ClusterAssignment{
		"p": rollcall.BlocRight, "q": rollcall.BlocLeft, "r": rollcall.BlocRight,
	}
	meta := RunMetadata{
		RunID: core.NewRunID(), Metric: MetricManhattan, Pivot: "p",
		TotalLegislators: 3, RetainedCount: 3, BlocSizes: blocs.BlocSizes(),
		CreatedAt: core.Now(),
	}
	result, err := NewResult(retained, scores, blocs, meta)
	require.NoError(t, err)
	return result
}

func TestNewResult_Invariants(t *testing.T) {
	result := fixtureResult(t)

	s, ok := result.Score("p")
	require.True(t, ok)
	assert.GreaterOrEqual(t, s.D1, 0.0)

	r, _ := result.Score("r")
	assert.False(t, r.HasDispersion())
}

func TestNewResult_RejectsNegativePivot(t *testing.T) {
	scores := map[core.LegislatorID]Score{
		"p": {D1: -0.5, D2: 0},
		"q": {D1: 0.5, D2: 0},
	}
	blocs := rollcall.ClusterAssignment{"p": rollcall.BlocRight, "q": rollcall.BlocLeft}
	meta := RunMetadata{Pivot: "p"}
	_, err := NewResult([]core.LegislatorID{"p", "q"}, scores, blocs, meta)
	assert.Error(t, err)
}

func TestNewResult_RejectsMissingScore(t *testing.T) {
	scores := map[core.LegislatorID]Score{"p": {D1: 0.5, D2: 0}}
	blocs := rollcall.ClusterAssignment{"p": rollcall.BlocRight, "q": rollcall.BlocLeft}
	meta := RunMetadata{Pivot: "p"}
	_, err := NewResult([]core.LegislatorID{"p", "q"}, scores, blocs, meta)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	result := fixtureResult(t)
	summary := Summarize(result)

	require.Len(t, summary.Blocs, 2)
	assert.Equal(t, rollcall.BlocRight, summary.Blocs[0].Bloc)
	assert.Equal(t, 2, summary.Blocs[0].Size)
	assert.InDelta(t, 0.7, summary.Blocs[0].MeanD1, 1e-12)
	assert.Equal(t, 1, summary.Blocs[1].Size)
	assert.InDelta(t, -1.4, summary.Blocs[1].MeanD1, 1e-12)
	assert.InDelta(t, 2.1, summary.D1Spread, 1e-12)

	// Most extreme first: q has |d1| = 1.4.
	require.NotEmpty(t, summary.Extremes)
	assert.Equal(t, core.LegislatorID("q"), summary.Extremes[0])

	// r's undefined d2 is excluded, not propagated: right bloc mean d2 is p's.
	assert.InDelta(t, 0.1, summary.Blocs[0].MeanD2, 1e-12)
}

func TestResult_WithParties(t *testing.T) {
	result := fixtureResult(t)
	withParties := result.WithParties(rollcall.PartyIndex{"p": "Alpha"})

	assert.Empty(t, result.Parties)
	assert.Equal(t, "Alpha", withParties.Parties["p"])
}

func TestScore_JSONUndefinedDispersionIsNull(t *testing.T) {
	data, err := json.Marshal(Score{D1: 0.7, D2: math.NaN()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d1":0.7,"d2":null}`, string(data))

	data, err = json.Marshal(Score{D1: -1.4, D2: 0.25})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d1":-1.4,"d2":0.25}`, string(data))

	// A whole result with an undefined dispersion must encode cleanly.
	_, err = json.Marshal(fixtureResult(t))
	require.NoError(t, err)
}

func TestScore_JSONRoundTrip(t *testing.T) {
	var undefined Score
	require.NoError(t, json.Unmarshal([]byte(`{"d1":0.7,"d2":null}`), &undefined))
	assert.Equal(t, 0.7, undefined.D1)
	assert.False(t, undefined.HasDispersion())

	var defined Score
	require.NoError(t, json.Unmarshal([]byte(`{"d1":-1.4,"d2":0.25}`), &defined))
	assert.Equal(t, Score{D1: -1.4, D2: 0.25}, defined)
}
