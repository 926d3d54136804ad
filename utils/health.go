package utils

import (
	"context"
	"sync"
	"time"
)

// Pinger is anything the health monitor can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Services  map[string]bool `json:"services"`
	Healthy   bool            `json:"healthy"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor keeps the latest health snapshot of named dependencies.
type HealthMonitor struct {
	targets  map[string]Pinger
	interval time.Duration

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(targets map[string]Pinger, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{targets: targets, interval: interval}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Check probes every target once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Services:  make(map[string]bool, len(m.targets)),
		Healthy:   true,
		CheckedAt: time.Now(),
	}
	for name, p := range m.targets {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := p.Ping(pctx) == nil
		cancel()
		status.Services[name] = ok
		status.Healthy = status.Healthy && ok
	}

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
