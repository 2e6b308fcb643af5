package bcall

import (
	"encoding/json"
	"fmt"
	"math"

	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// Score holds both per-legislator scores.
// D1 is the standardized mean vote (ideological position, sign-oriented so
// the pivot is non-negative). D2 is the standardized vote dispersion
// (cohesion/volatility); it is never negative, and NaN when the legislator
// has fewer than two usable cells.
type Score struct {
	D1 float64 `json:"d1"`
	D2 float64 `json:"d2"`
}

// HasDispersion reports whether D2 is defined.
func (s Score) HasDispersion() bool { return !math.IsNaN(s.D2) }

// scoreJSON is the wire shape of Score: undefined dispersion travels as
// null, since JSON has no NaN.
type scoreJSON struct {
	D1 float64  `json:"d1"`
	D2 *float64 `json:"d2"`
}

func (s Score) MarshalJSON() ([]byte, error) {
	out := scoreJSON{D1: s.D1}
	if s.HasDispersion() {
		d2 := s.D2
		out.D2 = &d2
	}
	return json.Marshal(out)
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var in scoreJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.D1 = in.D1
	s.D2 = math.NaN()
	if in.D2 != nil {
		s.D2 = *in.D2
	}
	return nil
}

// RunMetadata describes how a result was produced.
type RunMetadata struct {
	RunID     core.RunID        `json:"run_id"`
	Metric    Metric            `json:"metric"`
	Pivot     core.LegislatorID `json:"pivot"`
	AutoPivot bool              `json:"auto_pivot"`
	Threshold float64           `json:"threshold"`
	Normalize bool              `json:"normalize"`

	TotalLegislators int                        `json:"total_legislators"`
	RetainedCount    int                        `json:"retained_count"`
	DroppedCount     int                        `json:"dropped_count"`
	VoteCount        int                        `json:"vote_count"`
	BlocSizes        map[rollcall.BlocLabel]int `json:"bloc_sizes"`

	MatrixFingerprint core.Hash      `json:"matrix_fingerprint"`
	RuntimeMs         int64          `json:"runtime_ms"`
	CreatedAt         core.Timestamp `json:"created_at"`
}

// BCallResult is the immutable output of one analysis run: the per-legislator
// score table plus the bloc labeling and run metadata. It is returned by
// value from the orchestrator and passed explicitly to consumers; no
// component holds a back-reference to "the last run".
type BCallResult struct {
	// Retained lists scored legislators in matrix row order.
	Retained []core.LegislatorID         `json:"retained"`
	Scores   map[core.LegislatorID]Score `json:"scores"`
	Blocs    rollcall.ClusterAssignment  `json:"blocs"`
	Parties  rollcall.PartyIndex         `json:"parties,omitempty"`
	Meta     RunMetadata                 `json:"meta"`
}

// NewResult validates the assembled score table.
func NewResult(retained []core.LegislatorID, scores map[core.LegislatorID]Score,
	blocs rollcall.ClusterAssignment, meta RunMetadata) (*BCallResult, error) {

	if len(retained) == 0 {
		return nil, core.NewInsufficientDataError("result has no retained legislators")
	}
	for _, id := range retained {
		s, ok := scores[id]
		if !ok {
			return nil, fmt.Errorf("retained legislator %q has no score", id)
		}
		if math.IsNaN(s.D1) {
			return nil, fmt.Errorf("retained legislator %q has undefined d1", id)
		}
		if !math.IsNaN(s.D2) && s.D2 < 0 {
			return nil, fmt.Errorf("legislator %q has negative dispersion %v", id, s.D2)
		}
		if _, ok := blocs[id]; !ok {
			return nil, fmt.Errorf("retained legislator %q has no bloc", id)
		}
	}
	if pivotScore, ok := scores[meta.Pivot]; !ok {
		return nil, core.NewPivotUnscorableError(meta.Pivot)
	} else if pivotScore.D1 < 0 {
		return nil, fmt.Errorf("orientation invariant violated: d1(pivot)=%v", pivotScore.D1)
	}

	return &BCallResult{
		Retained: append([]core.LegislatorID(nil), retained...),
		Scores:   scores,
		Blocs:    blocs,
		Meta:     meta,
	}, nil
}

// Score returns the score for a legislator.
func (r *BCallResult) Score(id core.LegislatorID) (Score, bool) {
	s, ok := r.Scores[id]
	return s, ok
}

// WithParties returns a copy of the result carrying party metadata.
func (r *BCallResult) WithParties(parties rollcall.PartyIndex) *BCallResult {
	out := *r
	out.Parties = parties
	return &out
}
