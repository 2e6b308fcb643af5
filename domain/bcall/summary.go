package bcall

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"bcall/domain/core"
	"bcall/domain/rollcall"
)

// BlocSummary aggregates one bloc's score distribution.
type BlocSummary struct {
	Bloc     rollcall.BlocLabel `json:"bloc"`
	Size     int                `json:"size"`
	MeanD1   float64            `json:"mean_d1"`
	MedianD1 float64            `json:"median_d1"`
	MeanD2   float64            `json:"mean_d2"` // legislators with undefined d2 excluded
}

// ResultSummary condenses a run for reports and listings.
type ResultSummary struct {
	Blocs    []BlocSummary `json:"blocs"`
	D1Spread float64       `json:"d1_spread"` // mean d1 gap between blocs
	// Extremes lists retained legislators ranked by |d1|, most extreme first.
	Extremes []core.LegislatorID `json:"extremes"`
}

// Summarize computes bloc-level aggregates over a result. Undefined d2 values
// are tolerated per the single-sample rule and simply excluded from means.
func Summarize(r *BCallResult) ResultSummary {
	perBloc := make(map[rollcall.BlocLabel][]float64)
	perBlocD2 := make(map[rollcall.BlocLabel][]float64)
	for _, id := range r.Retained {
		s := r.Scores[id]
		bloc := r.Blocs[id]
		perBloc[bloc] = append(perBloc[bloc], s.D1)
		if s.HasDispersion() {
			perBlocD2[bloc] = append(perBlocD2[bloc], s.D2)
		}
	}

	var blocs []BlocSummary
	for _, label := range []rollcall.BlocLabel{rollcall.BlocRight, rollcall.BlocLeft} {
		d1s := perBloc[label]
		if len(d1s) == 0 {
			continue
		}
		mean, _ := stats.Mean(d1s)
		median, _ := stats.Median(d1s)
		meanD2 := math.NaN()
		if d2s := perBlocD2[label]; len(d2s) > 0 {
			meanD2, _ = stats.Mean(d2s)
		}
		blocs = append(blocs, BlocSummary{
			Bloc:     label,
			Size:     len(d1s),
			MeanD1:   mean,
			MedianD1: median,
			MeanD2:   meanD2,
		})
	}

	spread := 0.0
	if len(blocs) == 2 {
		spread = math.Abs(blocs[0].MeanD1 - blocs[1].MeanD1)
	}

	extremes := append([]core.LegislatorID(nil), r.Retained...)
	sort.Slice(extremes, func(i, j int) bool {
		di := math.Abs(r.Scores[extremes[i]].D1)
		dj := math.Abs(r.Scores[extremes[j]].D1)
		if di == dj {
			return extremes[i] < extremes[j]
		}
		return di > dj
	})

	return ResultSummary{Blocs: blocs, D1Spread: spread, Extremes: extremes}
}
