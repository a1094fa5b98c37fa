package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vistoria/fieldsync/internal/connectivity"
	"github.com/vistoria/fieldsync/internal/db"
	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
)

// switchProber is a Prober backed by a plain flag.
type switchProber struct{ online bool }

func (p *switchProber) Probe(context.Context) bool { return p.online }

type engineFixture struct {
	store   *db.Store
	remote  *fakeRemote
	prober  *switchProber
	monitor *connectivity.Monitor
	engine  *Engine
}

func newEngineFixture(t *testing.T, online bool) *engineFixture {
	t.Helper()
	store := newTestStore(t)
	remote := newFakeRemote()
	prober := &switchProber{online: online}
	monitor := connectivity.NewMonitor(context.Background(), prober, time.Minute, zap.NewNop())
	engine := NewEngine(store, remote, monitor, Config{}, zap.NewNop())
	return &engineFixture{
		store:   store,
		remote:  remote,
		prober:  prober,
		monitor: monitor,
		engine:  engine,
	}
}

func TestSyncNowFailsOffline(t *testing.T) {
	f := newEngineFixture(t, false)
	createClientRecord(t, f.store, "Queued Client")

	err := f.engine.SyncNow(context.Background())
	if !apperrors.Is(err, apperrors.ErrOffline) {
		t.Fatalf("expected offline error, got %v", err)
	}
	if len(f.remote.callLog()) != 0 {
		t.Error("offline sync must not touch the backend")
	}
	if count, _ := f.store.PendingCount(); count != 1 {
		t.Errorf("queued work must survive an offline sync attempt, count %d", count)
	}
}

func TestSyncIsNoOpWhileBusy(t *testing.T) {
	f := newEngineFixture(t, true)
	createClientRecord(t, f.store, "Waiting Client")

	f.engine.syncing.Store(true)
	f.engine.Sync(context.Background())
	if len(f.remote.callLog()) != 0 {
		t.Fatal("concurrent trigger must collapse into a no-op")
	}
	f.engine.syncing.Store(false)

	f.engine.Sync(context.Background())
	if len(f.remote.callLog()) != 1 {
		t.Fatalf("expected the cycle to run once unblocked, calls %v", f.remote.callLog())
	}
}

func TestSyncPushesThenPullsAndAdvancesWatermarks(t *testing.T) {
	f := newEngineFixture(t, true)
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return base }

	local := createClientRecord(t, f.store, "Local Client")
	f.remote.rows["clients"] = []json.RawMessage{json.RawMessage(`{
		"id": "7a1b2c3d-1111-4222-8333-444455556666",
		"name": "Pulled Client",
		"type": "commercial",
		"address": "9 Remote Rd",
		"city": "Faro",
		"state": "PT",
		"zip_code": "8000-001",
		"created_at": "2026-08-19T08:00:00.000Z",
		"updated_at": "2026-08-19T08:00:00.000Z"
	}`)}

	if err := f.engine.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync now: %v", err)
	}

	// Push happened.
	calls := f.remote.callLog()
	if len(calls) != 1 || calls[0] != "insert clients "+local {
		t.Fatalf("expected one insert, got %v", calls)
	}
	if count, _ := f.store.PendingCount(); count != 0 {
		t.Errorf("queue should be drained, count %d", count)
	}

	// Pull landed and is marked synced.
	pulled, err := f.store.GetClient("7a1b2c3d-1111-4222-8333-444455556666")
	if err != nil {
		t.Fatalf("pulled client missing: %v", err)
	}
	if !pulled.Synced {
		t.Error("pulled row must be marked synced")
	}

	// Every table's watermark advanced to the cycle start.
	want := models.FormatTime(base)
	for _, entity := range models.Entities {
		mark, err := f.store.Watermark(entity)
		if err != nil {
			t.Fatalf("watermark %s: %v", entity.Table(), err)
		}
		if mark != want {
			t.Errorf("watermark %s = %q, want %q", entity.Table(), mark, want)
		}
	}

	status, err := f.engine.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.LastError != "" || status.LastSync.IsZero() {
		t.Errorf("status not updated after clean cycle: %+v", status)
	}
}

func TestSyncUsesWatermarkAsDeltaFilter(t *testing.T) {
	f := newEngineFixture(t, true)
	mark := "2026-08-18T00:00:00.000Z"
	if err := f.store.SetWatermark(models.EntityClient, mark); err != nil {
		t.Fatalf("set watermark: %v", err)
	}

	if err := f.engine.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync now: %v", err)
	}
	if got := f.remote.lastAfter["clients"]; got != mark {
		t.Errorf("select filter = %q, want %q", got, mark)
	}
	// First pull of the other tables asks for everything.
	if got := f.remote.lastAfter["inspections"]; got != "" {
		t.Errorf("inspections filter = %q, want empty", got)
	}
}

func TestFailedPullKeepsWatermark(t *testing.T) {
	f := newEngineFixture(t, true)
	f.remote.selectErr["clients"] = apperrors.New(apperrors.ErrRemote, "backend unavailable")

	if err := f.engine.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync now: %v", err)
	}

	mark, err := f.store.Watermark(models.EntityClient)
	if err != nil {
		t.Fatalf("watermark: %v", err)
	}
	if mark != "" {
		t.Errorf("failed pull must not advance the watermark, got %q", mark)
	}

	// Other tables pulled despite the clients failure.
	if mark, _ := f.store.Watermark(models.EntityInspection); mark == "" {
		t.Error("table failures must not stop the rest of the pull")
	}

	status, err := f.engine.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.LastError == "" {
		t.Error("cycle error should be visible in status")
	}
}

func TestOfflineCreateThenReconnectSyncs(t *testing.T) {
	f := newEngineFixture(t, false)

	id := createClientRecord(t, f.store, "Field Client")
	if err := f.engine.SyncNow(context.Background()); !apperrors.Is(err, apperrors.ErrOffline) {
		t.Fatalf("expected offline error, got %v", err)
	}

	f.prober.online = true
	f.monitor.SetOnline(true)

	if err := f.engine.SyncNow(context.Background()); err != nil {
		t.Fatalf("sync after reconnect: %v", err)
	}
	calls := f.remote.callLog()
	if len(calls) != 1 || calls[0] != "insert clients "+id {
		t.Fatalf("expected queued create to reach the backend, got %v", calls)
	}
	if count, _ := f.store.PendingCount(); count != 0 {
		t.Errorf("queue should be empty after reconnect sync, count %d", count)
	}
}
