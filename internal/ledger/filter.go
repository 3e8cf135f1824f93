package ledger

import (
	"sort"
	"time"

	"github.com/promptlab/promptlab/internal/domain"
)

// DateWindow restricts experiments to a relative creation-time window.
type DateWindow string

const (
	DateAll   DateWindow = "all"
	DateToday DateWindow = "today"
	DateWeek  DateWindow = "week"
	DateMonth DateWindow = "month"
)

// RatingFilter restricts experiments by annotation presence or polarity.
type RatingFilter string

const (
	RatingAll      RatingFilter = "all"
	RatingRated    RatingFilter = "rated"
	RatingUnrated  RatingFilter = "unrated"
	RatingPositive RatingFilter = "positive"
	RatingNegative RatingFilter = "negative"
)

// SortKey selects the sort dimension for experiment listings.
type SortKey string

const (
	SortCreatedAt       SortKey = "createdAt"
	SortLatency         SortKey = "latencyMs"
	SortTokensPerSecond SortKey = "tokensPerSecond"
	SortTotalTokens     SortKey = "totalTokens"
)

// Filter is a conjunctive predicate over experiments. Zero values mean
// "no restriction". Each evaluation is a fresh recomputation.
type Filter struct {
	ModelID string
	Date    DateWindow
	Rating  RatingFilter
	Tag     string
}

// cutoff returns the minimum creation timestamp for the window, relative
// to now, or 0 for no bound.
func (w DateWindow) cutoff(now time.Time) int64 {
	const day = 24 * time.Hour
	switch w {
	case DateToday:
		return now.Add(-day).UnixMilli()
	case DateWeek:
		return now.Add(-7 * day).UnixMilli()
	case DateMonth:
		return now.Add(-30 * day).UnixMilli()
	default:
		return 0
	}
}

// Match reports whether the experiment passes every filter clause.
func (f Filter) Match(e *domain.Experiment, now time.Time) bool {
	if f.ModelID != "" && f.ModelID != "all" && e.ModelID != f.ModelID {
		return false
	}

	if f.Date != "" && f.Date != DateAll {
		if e.CreatedAt < f.Date.cutoff(now) {
			return false
		}
	}

	switch f.Rating {
	case RatingRated:
		if !e.Annotation.Rated() {
			return false
		}
	case RatingUnrated:
		if e.Annotation.Rated() {
			return false
		}
	case RatingPositive:
		if e.Annotation == nil || e.Annotation.Thumbs != domain.ThumbsUp {
			return false
		}
	case RatingNegative:
		if e.Annotation == nil || e.Annotation.Thumbs != domain.ThumbsDown {
			return false
		}
	}

	if f.Tag != "" && f.Tag != "all" {
		if e.Annotation == nil {
			return false
		}
		found := false
		for _, t := range e.Annotation.Tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Query filters and sorts the ledger's experiments. The sort is stable, so
// ties keep their original (insertion) order.
func (l *Ledger) Query(f Filter, key SortKey, ascending bool) []domain.Experiment {
	now := time.Now()

	all := l.Experiments()
	out := make([]domain.Experiment, 0, len(all))
	for i := range all {
		if f.Match(&all[i], now) {
			out = append(out, all[i])
		}
	}

	if key == "" {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := i, j
		if !ascending {
			// Invert the comparison, not its result, so equal elements keep
			// insertion order.
			a, b = j, i
		}
		switch key {
		case SortLatency:
			return out[a].Metrics.LatencyMs < out[b].Metrics.LatencyMs
		case SortTokensPerSecond:
			return out[a].Metrics.TokensPerSecond < out[b].Metrics.TokensPerSecond
		case SortTotalTokens:
			return out[a].Metrics.TotalTokens < out[b].Metrics.TotalTokens
		default:
			return out[a].CreatedAt < out[b].CreatedAt
		}
	})

	return out
}
