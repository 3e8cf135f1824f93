package ollama

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober is the subset of Client used by the connectivity monitor.
type Prober interface {
	CheckConnection(ctx context.Context) bool
	ListModels(ctx context.Context) []ModelInfo
}

// Status is the last known backend state.
type Status struct {
	Connected bool        `json:"connected"`
	Models    []ModelInfo `json:"models"`
	CheckedAt int64       `json:"checkedAt"`
}

// Monitor periodically probes backend reachability and keeps a snapshot of
// the model inventory. Connectivity failures are status, never errors.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *slog.Logger

	mu     sync.RWMutex
	status Status
}

// NewMonitor creates a monitor probing at the given interval.
func NewMonitor(prober Prober, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{prober: prober, interval: interval, logger: logger}
}

// Start probes once immediately, then on every tick until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	go func() {
		defer ticker.Stop()
		m.logger.Info("connectivity monitor started", "interval", m.interval)

		for {
			select {
			case <-ticker.C:
				m.probe(ctx)
			case <-ctx.Done():
				m.logger.Info("connectivity monitor shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (m *Monitor) probe(ctx context.Context) {
	connected := m.prober.CheckConnection(ctx)

	var models []ModelInfo
	if connected {
		models = m.prober.ListModels(ctx)
	}

	m.mu.Lock()
	wasConnected := m.status.Connected
	m.status = Status{
		Connected: connected,
		Models:    models,
		CheckedAt: time.Now().UnixMilli(),
	}
	m.mu.Unlock()

	if connected != wasConnected {
		m.logger.Info("backend connectivity changed", "connected", connected, "models", len(models))
	}
}

// Status returns the last probe result.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.status
	s.Models = append([]ModelInfo(nil), m.status.Models...)
	return s
}
