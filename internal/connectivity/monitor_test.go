package connectivity

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestInitialStateFromProbe(t *testing.T) {
	ctx := context.Background()

	m := NewMonitor(ctx, ProbeFunc(func(context.Context) bool { return true }), time.Minute, zap.NewNop())
	if !m.Online() {
		t.Error("reachable backend should start the monitor online")
	}
	if m.LastOnline().IsZero() {
		t.Error("lastOnline should be set at online startup")
	}

	m = NewMonitor(ctx, ProbeFunc(func(context.Context) bool { return false }), time.Minute, zap.NewNop())
	if m.Online() {
		t.Error("unreachable backend should start the monitor offline")
	}
	if m.OfflineSince().IsZero() {
		t.Error("offlineSince should be set at offline startup")
	}
}

func TestOfflineTimeAccumulatesAcrossTransitions(t *testing.T) {
	m := NewMonitor(context.Background(), ProbeFunc(func(context.Context) bool { return true }), time.Minute, zap.NewNop())

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	m.SetOnline(false)
	now = base.Add(2 * time.Minute)
	m.SetOnline(true)

	m.SetOnline(false)
	now = base.Add(5 * time.Minute)
	m.SetOnline(true)

	if got := m.TotalOfflineTime(); got != 5*time.Minute {
		t.Errorf("total offline = %v, want 5m", got)
	}
	if m.OfflineSince() != (time.Time{}) {
		t.Error("offlineSince should reset when back online")
	}
}

func TestTotalOfflineIncludesOpenPeriod(t *testing.T) {
	m := NewMonitor(context.Background(), ProbeFunc(func(context.Context) bool { return true }), time.Minute, zap.NewNop())

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	m.SetOnline(false)
	now = base.Add(90 * time.Second)

	if got := m.TotalOfflineTime(); got != 90*time.Second {
		t.Errorf("open offline period not counted: %v", got)
	}
}

func TestSubscribersReceiveTransitions(t *testing.T) {
	m := NewMonitor(context.Background(), ProbeFunc(func(context.Context) bool { return true }), time.Minute, zap.NewNop())
	events := m.Subscribe()

	m.SetOnline(false)
	m.SetOnline(true)

	first := <-events
	if first.State != Offline {
		t.Errorf("first event = %v, want offline", first.State)
	}
	second := <-events
	if second.State != Online {
		t.Errorf("second event = %v, want online", second.State)
	}
	if second.OfflineFor < 0 {
		t.Errorf("offlineFor negative: %v", second.OfflineFor)
	}
}

func TestRepeatedSignalIsNotATransition(t *testing.T) {
	m := NewMonitor(context.Background(), ProbeFunc(func(context.Context) bool { return true }), time.Minute, zap.NewNop())
	events := m.Subscribe()

	m.SetOnline(true)
	m.SetOnline(true)

	select {
	case ev := <-events:
		t.Errorf("unexpected event for repeated signal: %+v", ev)
	default:
	}
}
