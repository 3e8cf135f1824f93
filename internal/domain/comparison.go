package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ComparisonExperiment records a paired comparison between two experiments.
// Winner is three-valued: nil = not judged yet, "" = explicit tie, otherwise
// the id of the preferred experiment.
type ComparisonExperiment struct {
	ID            string    `json:"id"`
	CreatedAt     int64     `json:"createdAt"`
	Prompt        string    `json:"prompt"`
	ExperimentIDs [2]string `json:"experimentIds"`
	Winner        *string   `json:"winner,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// NewComparison creates a comparison seeded with the given prompt.
func NewComparison(prompt string, firstID, secondID string) ComparisonExperiment {
	return ComparisonExperiment{
		ID:            fmt.Sprintf("cmp_%s", uuid.NewString()),
		CreatedAt:     time.Now().UnixMilli(),
		Prompt:        prompt,
		ExperimentIDs: [2]string{firstID, secondID},
	}
}

// References reports whether the comparison covers the unordered pair {a, b}.
func (c *ComparisonExperiment) References(a, b string) bool {
	return (c.ExperimentIDs[0] == a && c.ExperimentIDs[1] == b) ||
		(c.ExperimentIDs[0] == b && c.ExperimentIDs[1] == a)
}

// MetricDelta is the derived difference between two values of one metric.
type MetricDelta struct {
	First       float64 `json:"first"`
	Second      float64 `json:"second"`
	PercentDiff float64 `json:"percentDiff"`
	FirstBetter bool    `json:"firstBetter"`
}

// MetricsDelta holds the per-metric comparison of two experiments.
type MetricsDelta struct {
	Latency          MetricDelta `json:"latency"`
	TokensPerSecond  MetricDelta `json:"tokensPerSecond"`
	TimeToFirstToken MetricDelta `json:"timeToFirstToken"`
}

// DeltaMetrics computes percentage differences and direction-aware "which is
// better" for two metric sets. Latency and time-to-first-token are better
// lower; throughput is better higher. The percentage is relative to the
// second value (0 when the second value is 0).
func DeltaMetrics(m1, m2 ExperimentMetrics) MetricsDelta {
	return MetricsDelta{
		Latency:          deltaOf(float64(m1.LatencyMs), float64(m2.LatencyMs), true),
		TokensPerSecond:  deltaOf(m1.TokensPerSecond, m2.TokensPerSecond, false),
		TimeToFirstToken: deltaOf(float64(m1.TimeToFirstToken), float64(m2.TimeToFirstToken), true),
	}
}

func deltaOf(v1, v2 float64, lowerIsBetter bool) MetricDelta {
	var pct float64
	if v2 != 0 {
		pct = (v1 - v2) / v2 * 100
		if pct < 0 {
			pct = -pct
		}
	}
	better := v1 > v2
	if lowerIsBetter {
		better = v1 < v2
	}
	return MetricDelta{First: v1, Second: v2, PercentDiff: pct, FirstBetter: better}
}
