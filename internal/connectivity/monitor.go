// Package connectivity tracks the device's online/offline state.
//
// The monitor is the single source of truth for connectivity: a probe loop
// (plus explicit platform signals) drives the state machine, offline
// durations are accumulated across transitions, and subscribers receive
// every transition so the sync engine can react to the device coming back
// online.
package connectivity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the connectivity state.
type State int

const (
	Offline State = iota
	Online
)

// String returns "online" or "offline".
func (s State) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Event is one state transition delivered to subscribers.
type Event struct {
	State State
	At    time.Time

	// OfflineFor is how long the device had been offline; only set on
	// Offline -> Online transitions.
	OfflineFor time.Duration
}

// Prober answers whether the backend is currently reachable.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProbeFunc adapts a function to the Prober interface.
type ProbeFunc func(ctx context.Context) bool

// Probe implements Prober.
func (f ProbeFunc) Probe(ctx context.Context) bool { return f(ctx) }

// Monitor owns the online/offline state machine.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu           sync.Mutex
	state        State
	lastOnline   time.Time
	offlineSince time.Time
	totalOffline time.Duration
	subscribers  []chan Event

	stopCh chan struct{}
	done   sync.WaitGroup
	once   sync.Once
}

// NewMonitor creates a Monitor. The initial state is taken from one
// synchronous probe so startup reflects the platform's current snapshot.
func NewMonitor(ctx context.Context, prober Prober, interval time.Duration, logger *zap.Logger) *Monitor {
	m := &Monitor{
		prober:   prober,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	if prober.Probe(ctx) {
		m.state = Online
		m.lastOnline = m.now()
	} else {
		m.state = Offline
		m.offlineSince = m.now()
	}
	return m
}

// Start runs the probe loop until Stop is called or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	m.done.Add(1)
	go func() {
		defer m.done.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.SetOnline(m.prober.Probe(ctx))
			}
		}
	}()
}

// Stop halts the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stopCh) })
	m.done.Wait()
}

// SetOnline feeds an explicit connectivity signal into the state machine.
// The probe loop uses it too, so platform events and probing share one
// transition path.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()

	target := Offline
	if online {
		target = Online
	}
	if target == m.state {
		m.mu.Unlock()
		return
	}

	now := m.now()
	event := Event{State: target, At: now}

	if target == Online {
		if !m.offlineSince.IsZero() {
			event.OfflineFor = now.Sub(m.offlineSince)
			m.totalOffline += event.OfflineFor
			m.offlineSince = time.Time{}
		}
		m.lastOnline = now
		m.logger.Info("connectivity restored",
			zap.Duration("offline_for", event.OfflineFor),
			zap.Duration("total_offline", m.totalOffline))
	} else {
		m.offlineSince = now
		m.logger.Info("connectivity lost")
	}
	m.state = target

	subscribers := make([]chan Event, len(m.subscribers))
	copy(subscribers, m.subscribers)
	m.mu.Unlock()

	// Non-blocking fan-out: a slow subscriber drops events rather than
	// stalling the state machine.
	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe returns a buffered channel receiving every transition.
func (m *Monitor) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

// Online reports whether the device is currently online.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Online
}

// LastOnline returns when the device last transitioned to (or started)
// online; zero when it never was.
func (m *Monitor) LastOnline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOnline
}

// OfflineSince returns when the current offline period started; zero
// while online.
func (m *Monitor) OfflineSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offlineSince
}

// TotalOfflineTime returns the cumulative offline duration, including the
// still-open offline period when currently offline.
func (m *Monitor) TotalOfflineTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.totalOffline
	if m.state == Offline && !m.offlineSince.IsZero() {
		total += m.now().Sub(m.offlineSince)
	}
	return total
}
