// Package ledger is the persistent, queryable store of completed experiments,
// their annotations, and paired comparisons.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/promptlab/promptlab/internal/domain"
	"github.com/promptlab/promptlab/internal/store"
)

var (
	// ErrNotFound is returned when an experiment or comparison id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidWinner is returned when a winner id is not part of the pair.
	ErrInvalidWinner = errors.New("winner must be one of the compared experiments or empty for a tie")
)

// maxSelected caps the selection set used to drive comparison.
const maxSelected = 2

// state is the persisted document: experiments, comparisons and the
// selection set travel together under one namespaced key.
type state struct {
	Experiments []domain.Experiment           `json:"experiments"`
	Comparisons []domain.ComparisonExperiment `json:"comparisons"`
	SelectedIDs []string                      `json:"selectedIds"`
}

// Ledger owns all experiment and comparison records. All mutations are
// synchronous and persisted through the injected store before returning.
type Ledger struct {
	mu     sync.Mutex
	st     state
	store  store.Store
	logger *slog.Logger
}

// New loads the ledger from the store, starting empty when nothing has been
// persisted yet.
func New(ctx context.Context, st store.Store, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{store: st, logger: logger}

	found, err := st.Load(ctx, store.KeyExperiments, &l.st)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if found {
		logger.Info("ledger loaded",
			"experiments", len(l.st.Experiments),
			"comparisons", len(l.st.Comparisons))
	}
	return l, nil
}

// persist must be called with l.mu held.
func (l *Ledger) persist(ctx context.Context) error {
	if err := l.store.Save(ctx, store.KeyExperiments, &l.st); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

// Add prepends an experiment so the newest record comes first.
func (l *Ledger) Add(ctx context.Context, exp domain.Experiment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.st.Experiments = append([]domain.Experiment{exp}, l.st.Experiments...)
	return l.persist(ctx)
}

// Delete removes an experiment and purges its id from the selection set.
// Deleting an unknown id is a no-op.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.st.Experiments[:0]
	for _, e := range l.st.Experiments {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	l.st.Experiments = kept

	selected := l.st.SelectedIDs[:0]
	for _, sid := range l.st.SelectedIDs {
		if sid != id {
			selected = append(selected, sid)
		}
	}
	l.st.SelectedIDs = selected

	return l.persist(ctx)
}

// UpdateAnnotation merges a patch into the experiment's annotation.
// Unset patch fields keep their prior value; CreatedAt is refreshed.
func (l *Ledger) UpdateAnnotation(ctx context.Context, id string, patch domain.AnnotationPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.st.Experiments {
		if l.st.Experiments[i].ID == id {
			l.st.Experiments[i].Annotation = patch.Merge(l.st.Experiments[i].Annotation)
			return l.persist(ctx)
		}
	}
	return fmt.Errorf("update annotation %s: %w", id, ErrNotFound)
}

// Clear wipes all experiments and the selection set. Comparisons are kept.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.st.Experiments = nil
	l.st.SelectedIDs = nil
	return l.persist(ctx)
}

// Experiments returns a copy of all experiments, newest first.
func (l *Ledger) Experiments() []domain.Experiment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Experiment(nil), l.st.Experiments...)
}

// Get returns the experiment with the given id.
func (l *Ledger) Get(id string) (domain.Experiment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.st.Experiments {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Experiment{}, false
}

// ToggleSelect adds or removes an id from the selection set. When adding
// would exceed two ids, the oldest selection is evicted so the two most
// recently selected always remain.
func (l *Ledger) ToggleSelect(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, sid := range l.st.SelectedIDs {
		if sid == id {
			l.st.SelectedIDs = append(l.st.SelectedIDs[:i], l.st.SelectedIDs[i+1:]...)
			return l.persist(ctx)
		}
	}

	l.st.SelectedIDs = append(l.st.SelectedIDs, id)
	if n := len(l.st.SelectedIDs); n > maxSelected {
		l.st.SelectedIDs = l.st.SelectedIDs[n-maxSelected:]
	}
	return l.persist(ctx)
}

// ClearSelection empties the selection set.
func (l *Ledger) ClearSelection(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.st.SelectedIDs = nil
	return l.persist(ctx)
}

// SelectedIDs returns the current selection, oldest first.
func (l *Ledger) SelectedIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.st.SelectedIDs...)
}

// Selected resolves the selection set to experiments, skipping stale ids.
func (l *Ledger) Selected() []domain.Experiment {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []domain.Experiment
	for _, id := range l.st.SelectedIDs {
		for _, e := range l.st.Experiments {
			if e.ID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
