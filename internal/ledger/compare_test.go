package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/promptlab/promptlab/internal/domain"
)

func TestCompareReusesPairRegardlessOfOrder(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a := makeExperiment(t, "llama3.2:1b", 100)
	b := makeExperiment(t, "phi3:mini", 200)
	for _, e := range []domain.Experiment{a, b} {
		if err := l.Add(ctx, e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	first, err := l.Compare(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	again, err := l.Compare(ctx, b.ID, a.ID)
	if err != nil {
		t.Fatalf("Compare reversed: %v", err)
	}

	if first.ID != again.ID {
		t.Errorf("same pair should map to the same comparison, got %s and %s", first.ID, again.ID)
	}
	if len(l.Comparisons()) != 1 {
		t.Errorf("expected a single comparison record, got %d", len(l.Comparisons()))
	}
	if first.Prompt != a.UserPrompt() {
		t.Errorf("comparison should be seeded with the first experiment's prompt, got %q", first.Prompt)
	}
}

func TestCompareUnknownExperiment(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a := makeExperiment(t, "llama3.2:1b", 100)
	if err := l.Add(ctx, a); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := l.Compare(ctx, a.ID, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for the second id, got %v", err)
	}
	if _, err := l.Compare(ctx, "ghost", a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for the first id, got %v", err)
	}
}

func TestSetWinnerTriState(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a := makeExperiment(t, "llama3.2:1b", 100)
	b := makeExperiment(t, "phi3:mini", 200)
	for _, e := range []domain.Experiment{a, b} {
		if err := l.Add(ctx, e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	cmp, err := l.Compare(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Winner != nil {
		t.Fatal("a fresh comparison should be unjudged")
	}

	if err := l.SetWinner(ctx, cmp.ID, b.ID); err != nil {
		t.Fatalf("SetWinner: %v", err)
	}
	got := l.Comparisons()[0]
	if got.Winner == nil || *got.Winner != b.ID {
		t.Errorf("winner should be %s", b.ID)
	}

	// Empty string is an explicit tie, not a reset to unjudged.
	if err := l.SetWinner(ctx, cmp.ID, ""); err != nil {
		t.Fatalf("SetWinner tie: %v", err)
	}
	got = l.Comparisons()[0]
	if got.Winner == nil || *got.Winner != "" {
		t.Error("tie should record an empty, non-nil winner")
	}
}

func TestSetWinnerRejectsOutsider(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a := makeExperiment(t, "llama3.2:1b", 100)
	b := makeExperiment(t, "phi3:mini", 200)
	for _, e := range []domain.Experiment{a, b} {
		if err := l.Add(ctx, e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	cmp, err := l.Compare(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if err := l.SetWinner(ctx, cmp.ID, "someone-else"); !errors.Is(err, ErrInvalidWinner) {
		t.Errorf("expected ErrInvalidWinner, got %v", err)
	}
	if err := l.SetWinner(ctx, "cmp_missing", a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown comparison, got %v", err)
	}
}

func TestDeltaMetricsDirections(t *testing.T) {
	m1 := domain.ExperimentMetrics{LatencyMs: 100, TokensPerSecond: 50, TimeToFirstToken: 20}
	m2 := domain.ExperimentMetrics{LatencyMs: 200, TokensPerSecond: 40, TimeToFirstToken: 40}

	d := domain.DeltaMetrics(m1, m2)

	if !d.Latency.FirstBetter {
		t.Error("lower latency should win")
	}
	if d.Latency.PercentDiff != 50 {
		t.Errorf("latency diff should be 50%%, got %v", d.Latency.PercentDiff)
	}
	if !d.TokensPerSecond.FirstBetter {
		t.Error("higher throughput should win")
	}
	if d.TokensPerSecond.PercentDiff != 25 {
		t.Errorf("throughput diff should be 25%%, got %v", d.TokensPerSecond.PercentDiff)
	}
	if !d.TimeToFirstToken.FirstBetter {
		t.Error("lower time-to-first-token should win")
	}
}

func TestDeltaMetricsZeroBaseline(t *testing.T) {
	m1 := domain.ExperimentMetrics{LatencyMs: 100}
	m2 := domain.ExperimentMetrics{}

	d := domain.DeltaMetrics(m1, m2)
	if d.Latency.PercentDiff != 0 {
		t.Errorf("zero baseline should yield 0%%, got %v", d.Latency.PercentDiff)
	}
}
