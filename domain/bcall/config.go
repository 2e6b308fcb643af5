package bcall

import (
	"fmt"
	"strings"

	"bcall/domain/core"
)

// Metric selects the pairwise voting-distance metric.
type Metric string

const (
	MetricManhattan Metric = "manhattan"
	MetricEuclidean Metric = "euclidean"
)

// ParseMetric parses a metric name, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manhattan", "l1":
		return MetricManhattan, nil
	case "euclidean", "l2":
		return MetricEuclidean, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q (want manhattan or euclidean)", s)
	}
}

// AnalysisConfig collects every knob of one analysis run. It is validated
// once at the orchestrator boundary instead of being threaded through call
// sites piecemeal.
type AnalysisConfig struct {
	// Metric is the pairwise distance metric for partitioning.
	Metric Metric `json:"metric"`
	// Pivot anchors partitioning and score orientation. Empty means
	// auto-selection, which requires AutoPivot.
	Pivot core.LegislatorID `json:"pivot,omitempty"`
	// Threshold is the minimum non-missing vote fraction a legislator needs
	// to be scored, in [0,1].
	Threshold float64 `json:"threshold"`
	// AutoPivot enables deterministic pivot selection when Pivot is empty.
	AutoPivot bool `json:"auto_pivot"`
	// Normalize divides distances by pairwise overlap size so legislator
	// pairs with different overlap sizes stay comparable.
	Normalize bool `json:"normalize"`
}

// DefaultConfig returns the conventional run configuration.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		Metric:    MetricManhattan,
		Threshold: 0.1,
		AutoPivot: true,
		Normalize: true,
	}
}

// Validate checks the configuration invariants.
func (c AnalysisConfig) Validate() error {
	if c.Metric != MetricManhattan && c.Metric != MetricEuclidean {
		return fmt.Errorf("invalid metric %q", c.Metric)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold %v outside [0,1]", c.Threshold)
	}
	if c.Pivot == "" && !c.AutoPivot {
		return fmt.Errorf("no pivot supplied and auto-pivot disabled")
	}
	return nil
}
