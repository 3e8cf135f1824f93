package ollama

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeProber struct {
	mu        sync.Mutex
	connected bool
	models    []ModelInfo
}

func (p *fakeProber) CheckConnection(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakeProber) ListModels(ctx context.Context) []ModelInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.models
}

func TestMonitorProbesImmediately(t *testing.T) {
	prober := &fakeProber{connected: true, models: []ModelInfo{{Name: "llama3.2:1b"}}}
	m := NewMonitor(prober, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	// Start probes synchronously before the ticker goroutine spins up.
	status := m.Status()
	if !status.Connected {
		t.Error("initial probe should report connected")
	}
	if len(status.Models) != 1 || status.Models[0].Name != "llama3.2:1b" {
		t.Errorf("inventory = %v", status.Models)
	}
	if status.CheckedAt == 0 {
		t.Error("probe should stamp the check time")
	}
}

func TestMonitorDisconnectedSkipsInventory(t *testing.T) {
	prober := &fakeProber{connected: false, models: []ModelInfo{{Name: "stale"}}}
	m := NewMonitor(prober, time.Hour, nil)

	m.probe(context.Background())

	status := m.Status()
	if status.Connected {
		t.Error("should report disconnected")
	}
	if len(status.Models) != 0 {
		t.Errorf("a disconnected probe must not carry models, got %v", status.Models)
	}
}

func TestMonitorStatusIsACopy(t *testing.T) {
	prober := &fakeProber{connected: true, models: []ModelInfo{{Name: "a"}, {Name: "b"}}}
	m := NewMonitor(prober, time.Hour, nil)
	m.probe(context.Background())

	snapshot := m.Status()
	snapshot.Models[0].Name = "mutated"

	if m.Status().Models[0].Name != "a" {
		t.Error("callers must not be able to mutate the monitor's snapshot")
	}
}
