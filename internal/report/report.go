// Package report renders a finished run as a markdown document, with an
// HTML rendering for the web UI.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gonum.org/v1/gonum/stat"

	"bcall/domain/bcall"
)

// maxExtremes caps the ranked-legislator table in the report.
const maxExtremes = 10

// Markdown builds the full run report.
func Markdown(result *bcall.BCallResult) string {
	summary := bcall.Summarize(result)
	meta := result.Meta

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Roll-Call Analysis %s\n\n", meta.RunID))

	b.WriteString("## Run Parameters\n\n")
	b.WriteString(fmt.Sprintf("- Metric: %s", meta.Metric))
	if meta.Normalize {
		b.WriteString(" (normalized)")
	}
	b.WriteString("\n")
	pivotLine := fmt.Sprintf("- Pivot: %s", meta.Pivot)
	if meta.AutoPivot {
		pivotLine += " (auto-selected)"
	}
	b.WriteString(pivotLine + "\n")
	b.WriteString(fmt.Sprintf("- Participation threshold: %.2f\n", meta.Threshold))
	b.WriteString(fmt.Sprintf("- Matrix: %d legislators x %d votes (fingerprint %.12s)\n",
		meta.TotalLegislators, meta.VoteCount, meta.MatrixFingerprint))
	b.WriteString(fmt.Sprintf("- Retained: %d, dropped: %d\n", meta.RetainedCount, meta.DroppedCount))
	b.WriteString(fmt.Sprintf("- Runtime: %dms\n\n", meta.RuntimeMs))

	b.WriteString("## Blocs\n\n")
	b.WriteString("| Bloc | Size | Mean d1 | Median d1 | Mean d2 |\n")
	b.WriteString("|------|-----:|--------:|----------:|--------:|\n")
	for _, bloc := range summary.Blocs {
		b.WriteString(fmt.Sprintf("| %s | %d | %.3f | %.3f | %s |\n",
			bloc.Bloc, bloc.Size, bloc.MeanD1, bloc.MedianD1, formatMaybe(bloc.MeanD2)))
	}
	b.WriteString(fmt.Sprintf("\nBloc separation (mean d1 gap): %.3f\n\n", summary.D1Spread))

	b.WriteString("## Ideological Score Distribution\n\n")
	q := d1Quantiles(result)
	b.WriteString(fmt.Sprintf("- Min: %.3f\n- P25: %.3f\n- Median: %.3f\n- P75: %.3f\n- Max: %.3f\n\n",
		q[0], q[1], q[2], q[3], q[4]))

	b.WriteString("## Most Extreme Legislators\n\n")
	b.WriteString("| Legislator | Party | Bloc | d1 | d2 |\n")
	b.WriteString("|------------|-------|------|---:|---:|\n")
	extremes := summary.Extremes
	if len(extremes) > maxExtremes {
		extremes = extremes[:maxExtremes]
	}
	for _, id := range extremes {
		s := result.Scores[id]
		party := result.Parties[id]
		if party == "" {
			party = "-"
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %.3f | %s |\n",
			id, party, result.Blocs[id], s.D1, formatMaybe(s.D2)))
	}

	return b.String()
}

// HTML renders the markdown report as an HTML fragment.
func HTML(result *bcall.BCallResult) []byte {
	md := Markdown(result)
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// d1Quantiles returns min, p25, median, p75, max of the retained d1 scores.
func d1Quantiles(result *bcall.BCallResult) [5]float64 {
	d1s := make([]float64, 0, len(result.Retained))
	for _, id := range result.Retained {
		d1s = append(d1s, result.Scores[id].D1)
	}
	sort.Float64s(d1s)
	if len(d1s) == 0 {
		return [5]float64{}
	}
	return [5]float64{
		d1s[0],
		stat.Quantile(0.25, stat.Empirical, d1s, nil),
		stat.Quantile(0.5, stat.Empirical, d1s, nil),
		stat.Quantile(0.75, stat.Empirical, d1s, nil),
		d1s[len(d1s)-1],
	}
}

func formatMaybe(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}
