package healthcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/angeloszaimis/audio-relay/internal/extractor"
	"github.com/angeloszaimis/audio-relay/internal/metrics"
)

const (
	checkTimeout    = 5 * time.Second
	defaultInterval = 30 * time.Second
)

// EngineStatus is the last observed state of one engine.
type EngineStatus struct {
	Ready     bool      `json:"ready"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type Monitor struct {
	checkers  map[string]extractor.Checker
	interval  time.Duration
	logger    *slog.Logger
	collector *metrics.Collector

	mu     sync.RWMutex
	status map[string]EngineStatus
}

// New builds a monitor for the engines that implement extractor.Checker.
// Other engines are reported ready without being probed. A non-positive
// interval falls back to 30s.
func New(engines map[string]extractor.Engine, interval time.Duration, logger *slog.Logger, collector *metrics.Collector) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}

	m := &Monitor{
		checkers:  make(map[string]extractor.Checker),
		interval:  interval,
		logger:    logger,
		collector: collector,
		status:    make(map[string]EngineStatus, len(engines)),
	}

	for name, engine := range engines {
		if checker, ok := engine.(extractor.Checker); ok {
			m.checkers[name] = checker
			continue
		}
		m.status[name] = EngineStatus{Ready: true}
	}

	return m
}

// Run checks every engine once, then again on each tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.CheckNow(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health check stopped")
			return

		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// CheckNow probes every checker once.
func (m *Monitor) CheckNow(ctx context.Context) {
	for _, name := range slices.Sorted(maps.Keys(m.checkers)) {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := m.checkers[name].Check(checkCtx)
		cancel()

		m.update(name, err)
	}
}

func (m *Monitor) update(name string, err error) {
	next := EngineStatus{Ready: err == nil, CheckedAt: time.Now()}
	if err != nil {
		next.Error = err.Error()
	}

	m.mu.Lock()
	prev, seen := m.status[name]
	m.status[name] = next
	m.mu.Unlock()

	if seen && prev.Ready == next.Ready {
		return
	}

	m.collector.Emit(metrics.MetricEvent{
		Type:    metrics.EventEngineHealthChange,
		Engine:  name,
		Healthy: next.Ready,
	})

	if next.Ready {
		m.logger.Info("Engine is ready", slog.String("engine", name))
	} else {
		m.logger.Warn("Engine is not ready",
			slog.String("engine", name),
			slog.String("error", next.Error))
	}
}

// Status returns a copy of the current state of every engine.
func (m *Monitor) Status() map[string]EngineStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.status)
}

// Healthy reports whether every engine is ready. Engines that were never
// checked count as not ready.
func (m *Monitor) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name := range m.checkers {
		if !m.status[name].Ready {
			return false
		}
	}
	return true
}

type healthResponse struct {
	Status  string                  `json:"status"`
	Engines map[string]EngineStatus `json:"engines"`
}

// Handler serves the engine states; 503 when any engine is not ready.
func (m *Monitor) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Engines: m.Status()}
		code := http.StatusOK
		if !m.Healthy() {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
