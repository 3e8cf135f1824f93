package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/promptlab/promptlab/internal/domain"
	"github.com/promptlab/promptlab/internal/store"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(context.Background(), store.NewMemory(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func makeExperiment(t *testing.T, modelID string, latencyMs int) domain.Experiment {
	t.Helper()
	user := domain.NewMessage(domain.RoleUser, "what is entropy?")
	assistant := domain.NewMessage(domain.RoleAssistant, "a measure of disorder")
	metrics := domain.NewMetrics(3, 4, latencyMs, latencyMs/10)
	return domain.NewExperiment(modelID, modelID, domain.DefaultParameters(), user, assistant, metrics)
}

func TestAddPrependsNewestFirst(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	first := makeExperiment(t, "llama3.2:1b", 100)
	second := makeExperiment(t, "phi3:mini", 200)

	if err := l.Add(ctx, first); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Add(ctx, second); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got := l.Experiments()
	if len(got) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(got))
	}
	if got[0].ID != second.ID {
		t.Errorf("expected newest experiment first, got %s", got[0].ID)
	}
}

func TestDeleteRemovesFromSelection(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	exp := makeExperiment(t, "llama3.2:1b", 100)
	if err := l.Add(ctx, exp); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.ToggleSelect(ctx, exp.ID); err != nil {
		t.Fatalf("ToggleSelect: %v", err)
	}

	if err := l.Delete(ctx, exp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(l.Experiments()) != 0 {
		t.Error("experiment should be gone")
	}
	if len(l.SelectedIDs()) != 0 {
		t.Error("deleted experiment should be purged from selection")
	}
}

func TestDeleteUnknownIDIsNoOp(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	exp := makeExperiment(t, "llama3.2:1b", 100)
	if err := l.Add(ctx, exp); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := l.Delete(ctx, "no-such-id"); err != nil {
		t.Fatalf("deleting unknown id should be a no-op, got %v", err)
	}
	if len(l.Experiments()) != 1 {
		t.Error("existing experiment should be untouched")
	}
}

func TestSelectionEvictsOldest(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		exp := makeExperiment(t, "llama3.2:1b", 100)
		if err := l.Add(ctx, exp); err != nil {
			t.Fatalf("Add: %v", err)
		}
		ids = append(ids, exp.ID)
	}

	for _, id := range ids {
		if err := l.ToggleSelect(ctx, id); err != nil {
			t.Fatalf("ToggleSelect: %v", err)
		}
	}

	selected := l.SelectedIDs()
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0] != ids[1] || selected[1] != ids[2] {
		t.Errorf("expected the two most recently selected ids %v, got %v", ids[1:], selected)
	}
}

func TestToggleSelectRemovesExisting(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	exp := makeExperiment(t, "llama3.2:1b", 100)
	if err := l.Add(ctx, exp); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := l.ToggleSelect(ctx, exp.ID); err != nil {
		t.Fatalf("ToggleSelect: %v", err)
	}
	if err := l.ToggleSelect(ctx, exp.ID); err != nil {
		t.Fatalf("ToggleSelect: %v", err)
	}
	if len(l.SelectedIDs()) != 0 {
		t.Error("second toggle should deselect")
	}
}

func TestUpdateAnnotationMergesPartialPatch(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	exp := makeExperiment(t, "llama3.2:1b", 100)
	if err := l.Add(ctx, exp); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rating := 3
	up := domain.ThumbsUp
	tags := []string{"concise"}
	if err := l.UpdateAnnotation(ctx, exp.ID, domain.AnnotationPatch{
		Rating: &rating,
		Thumbs: &up,
		Tags:   &tags,
	}); err != nil {
		t.Fatalf("UpdateAnnotation: %v", err)
	}

	before, _ := l.Get(exp.ID)
	firstCreatedAt := before.Annotation.CreatedAt

	time.Sleep(2 * time.Millisecond)

	down := domain.ThumbsDown
	if err := l.UpdateAnnotation(ctx, exp.ID, domain.AnnotationPatch{Thumbs: &down}); err != nil {
		t.Fatalf("UpdateAnnotation: %v", err)
	}

	after, _ := l.Get(exp.ID)
	ann := after.Annotation
	if ann.Rating != 3 {
		t.Errorf("rating should be untouched, got %d", ann.Rating)
	}
	if ann.Thumbs != domain.ThumbsDown {
		t.Errorf("thumbs should be down, got %q", ann.Thumbs)
	}
	if len(ann.Tags) != 1 || ann.Tags[0] != "concise" {
		t.Errorf("tags should be untouched, got %v", ann.Tags)
	}
	if ann.CreatedAt <= firstCreatedAt {
		t.Error("createdAt should be refreshed on merge")
	}
}

func TestUpdateAnnotationUnknownID(t *testing.T) {
	l := newTestLedger(t)

	rating := 5
	err := l.UpdateAnnotation(context.Background(), "nope", domain.AnnotationPatch{Rating: &rating})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClearKeepsComparisons(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a := makeExperiment(t, "llama3.2:1b", 100)
	b := makeExperiment(t, "phi3:mini", 200)
	for _, e := range []domain.Experiment{a, b} {
		if err := l.Add(ctx, e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := l.Compare(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if err := l.ToggleSelect(ctx, a.ID); err != nil {
		t.Fatalf("ToggleSelect: %v", err)
	}

	if err := l.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if len(l.Experiments()) != 0 {
		t.Error("experiments should be wiped")
	}
	if len(l.SelectedIDs()) != 0 {
		t.Error("selection should be wiped")
	}
	if len(l.Comparisons()) != 1 {
		t.Error("comparisons should survive a clear")
	}
}

func TestLedgerSurvivesReload(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	l, err := New(ctx, st, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	exp := makeExperiment(t, "llama3.2:1b", 150)
	if err := l.Add(ctx, exp); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded, err := New(ctx, st, nil)
	if err != nil {
		t.Fatalf("New after reload: %v", err)
	}
	got := reloaded.Experiments()
	if len(got) != 1 || got[0].ID != exp.ID {
		t.Fatalf("expected reloaded ledger to contain %s, got %v", exp.ID, got)
	}
	if got[0].Metrics.LatencyMs != 150 {
		t.Errorf("metrics should round-trip, got %d", got[0].Metrics.LatencyMs)
	}
}
