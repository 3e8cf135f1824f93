package ledger

import (
	"context"
	"fmt"

	"github.com/promptlab/promptlab/internal/domain"
)

// Compare returns the comparison covering the unordered pair {firstID,
// secondID}, creating it if none exists. A new comparison is seeded with the
// prompt of the first experiment's user message. The same pair always maps
// to the same comparison id, regardless of argument order.
func (l *Ledger) Compare(ctx context.Context, firstID, secondID string) (domain.ComparisonExperiment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var first *domain.Experiment
	for i := range l.st.Experiments {
		if l.st.Experiments[i].ID == firstID {
			first = &l.st.Experiments[i]
		}
	}
	if first == nil {
		return domain.ComparisonExperiment{}, fmt.Errorf("compare %s: %w", firstID, ErrNotFound)
	}
	found := false
	for i := range l.st.Experiments {
		if l.st.Experiments[i].ID == secondID {
			found = true
			break
		}
	}
	if !found {
		return domain.ComparisonExperiment{}, fmt.Errorf("compare %s: %w", secondID, ErrNotFound)
	}

	for _, c := range l.st.Comparisons {
		if c.References(firstID, secondID) {
			return c, nil
		}
	}

	cmp := domain.NewComparison(first.UserPrompt(), firstID, secondID)
	l.st.Comparisons = append([]domain.ComparisonExperiment{cmp}, l.st.Comparisons...)
	if err := l.persist(ctx); err != nil {
		return domain.ComparisonExperiment{}, err
	}
	return cmp, nil
}

// SetWinner records the preferred experiment of a comparison. An empty
// winnerID records an explicit tie, which stays distinct from "not judged".
func (l *Ledger) SetWinner(ctx context.Context, cmpID, winnerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.st.Comparisons {
		if l.st.Comparisons[i].ID != cmpID {
			continue
		}
		ids := l.st.Comparisons[i].ExperimentIDs
		if winnerID != "" && winnerID != ids[0] && winnerID != ids[1] {
			return ErrInvalidWinner
		}
		w := winnerID
		l.st.Comparisons[i].Winner = &w
		return l.persist(ctx)
	}
	return fmt.Errorf("set winner %s: %w", cmpID, ErrNotFound)
}

// SetComparisonNotes replaces a comparison's notes. Last write wins.
func (l *Ledger) SetComparisonNotes(ctx context.Context, cmpID, notes string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.st.Comparisons {
		if l.st.Comparisons[i].ID == cmpID {
			l.st.Comparisons[i].Notes = notes
			return l.persist(ctx)
		}
	}
	return fmt.Errorf("set notes %s: %w", cmpID, ErrNotFound)
}

// Comparisons returns a copy of all comparison records, newest first.
func (l *Ledger) Comparisons() []domain.ComparisonExperiment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ComparisonExperiment(nil), l.st.Comparisons...)
}
