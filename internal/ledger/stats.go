package ledger

import (
	"math"
	"sort"

	"github.com/promptlab/promptlab/internal/domain"
)

// ModelStats summarizes all experiments for one model.
type ModelStats struct {
	ModelID            string  `json:"modelId"`
	TotalRuns          int     `json:"totalRuns"`
	AvgLatency         int     `json:"avgLatency"`
	AvgTokensPerSecond float64 `json:"avgTokensPerSecond"`
	PreferenceRate     int     `json:"preferenceRate"`
}

// Stats recomputes per-model aggregates from the current ledger contents.
// Preference rate counts only experiments with an explicit thumbs annotation;
// a group with none scores 0.
func (l *Ledger) Stats() []ModelStats {
	groups := make(map[string][]domain.Experiment)
	var order []string
	for _, e := range l.Experiments() {
		if _, seen := groups[e.ModelID]; !seen {
			order = append(order, e.ModelID)
		}
		groups[e.ModelID] = append(groups[e.ModelID], e)
	}
	sort.Strings(order)

	out := make([]ModelStats, 0, len(order))
	for _, modelID := range order {
		exps := groups[modelID]

		var latencySum, thumbed, positive int
		var tpsSum float64
		for _, e := range exps {
			latencySum += e.Metrics.LatencyMs
			tpsSum += e.Metrics.TokensPerSecond
			if e.Annotation != nil && e.Annotation.Thumbs != domain.ThumbsNone {
				thumbed++
				if e.Annotation.Thumbs == domain.ThumbsUp {
					positive++
				}
			}
		}

		n := float64(len(exps))
		preference := 0
		if thumbed > 0 {
			preference = int(math.Round(float64(positive) / float64(thumbed) * 100))
		}

		out = append(out, ModelStats{
			ModelID:            modelID,
			TotalRuns:          len(exps),
			AvgLatency:         int(math.Round(float64(latencySum) / n)),
			AvgTokensPerSecond: math.Round(tpsSum/n*10) / 10,
			PreferenceRate:     preference,
		})
	}
	return out
}
