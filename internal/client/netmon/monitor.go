// Package netmon tracks reachability of the sync backend by probing it on
// a fixed interval and reporting online/offline transitions.
package netmon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/driftbox/driftbox/internal/logging"
)

// Pinger is the probe the monitor runs against the backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor polls the backend and keeps the last observed connectivity
// state. Subscribers are notified once per state change, not per probe.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	logger   logging.Logger

	online atomic.Bool

	mu          sync.Mutex
	subscribers []func(online bool)
}

// New creates a monitor. The initial state is offline until the first
// probe (or SetOnline) says otherwise.
func New(pinger Pinger, interval time.Duration, logger logging.Logger) *Monitor {
	return &Monitor{pinger: pinger, interval: interval, logger: logger}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Subscribe registers a callback invoked on every state transition.
// Callbacks run on the monitor goroutine and should return quickly.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// SetOnline records a state observed out of band, for example a direct
// call that just failed with a network error. Subscribers are notified
// if the state actually changed.
func (m *Monitor) SetOnline(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	m.notify(online)
}

// CheckNow runs a single probe immediately and returns the resulting
// state.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	online := m.pinger.Ping(ctx) == nil
	m.SetOnline(online)
	return online
}

// Start launches the probe loop. It runs until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.CheckNow(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			}
		}
	}()
}

func (m *Monitor) notify(online bool) {
	if m.logger != nil {
		if online {
			m.logger.Info(context.Background(), "server is reachable")
		} else {
			m.logger.Warn(context.Background(), "server is unreachable, switching to offline mode")
		}
	}

	m.mu.Lock()
	subs := make([]func(bool), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}
