package sync

import (
	"context"
	"encoding/json"
	"fmt"
	stdsync "sync"
	"testing"

	"go.uber.org/zap"

	"github.com/vistoria/fieldsync/internal/db"
	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
)

// fakeRemote records calls and fails on demand, keyed by record id.
type fakeRemote struct {
	mu    stdsync.Mutex
	calls []string
	fail  map[string]error

	// rows served by Select, keyed by table.
	rows map[string][]json.RawMessage

	// selectErr fails Select for the named table.
	selectErr map[string]error

	// lastAfter records the updatedAfter filter per table.
	lastAfter map[string]string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		fail:      make(map[string]error),
		rows:      make(map[string][]json.RawMessage),
		selectErr: make(map[string]error),
		lastAfter: make(map[string]string),
	}
}

func (f *fakeRemote) record(op, table, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[id]; err != nil {
		return err
	}
	f.calls = append(f.calls, fmt.Sprintf("%s %s %s", op, table, id))
	return nil
}

func rowID(row json.RawMessage) string {
	var e struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(row, &e)
	return e.ID
}

func (f *fakeRemote) Insert(_ context.Context, table string, row json.RawMessage) error {
	return f.record("insert", table, rowID(row))
}

func (f *fakeRemote) Update(_ context.Context, table, id string, _ json.RawMessage) error {
	return f.record("update", table, id)
}

func (f *fakeRemote) Delete(_ context.Context, table, id string) error {
	return f.record("delete", table, id)
}

func (f *fakeRemote) Select(_ context.Context, table, updatedAfter string) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAfter[table] = updatedAfter
	if err := f.selectErr[table]; err != nil {
		return nil, err
	}
	return f.rows[table], nil
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db.NewStore(database)
}

func createClientRecord(t *testing.T, store *db.Store, name string) string {
	t.Helper()
	id, err := store.CreateClient(&models.Client{
		Name: name, Type: "commercial", Address: "1 Main St",
		City: "Porto", State: "PT", ZipCode: "4000-001",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return id
}

func TestDrainPushesInSequenceOrder(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	queue := NewQueue(store, remote, zap.NewNop())

	a := createClientRecord(t, store, "First Client")
	b := createClientRecord(t, store, "Second Client")
	city := "Braga"
	if err := store.UpdateClient(a, &models.ClientPatch{City: &city}); err != nil {
		t.Fatalf("update client: %v", err)
	}

	result, err := queue.Drain(context.Background(), DefaultMaxAttempts)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if result.Sent != 3 || result.Failed != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected drain result: %+v", result)
	}

	want := []string{
		"insert clients " + a,
		"insert clients " + b,
		"update clients " + a,
	}
	got := remote.callLog()
	if len(got) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: got %q, want %q", i, got[i], want[i])
		}
	}

	if count, _ := store.PendingCount(); count != 0 {
		t.Errorf("queue should be empty after full drain, got %d", count)
	}
}

func TestDrainBlocksLaterOpsForFailedRecord(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	queue := NewQueue(store, remote, zap.NewNop())

	a := createClientRecord(t, store, "Flaky Client")
	city := "Braga"
	if err := store.UpdateClient(a, &models.ClientPatch{City: &city}); err != nil {
		t.Fatalf("update client: %v", err)
	}
	remote.fail[a] = apperrors.New(apperrors.ErrRemote, "backend rejected row")

	result, err := queue.Drain(context.Background(), DefaultMaxAttempts)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if result.Sent != 0 || result.Failed != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected drain result: %+v", result)
	}

	entries, err := store.QueueForRecord(a)
	if err != nil {
		t.Fatalf("queue for record: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("both entries must stay queued, got %d", len(entries))
	}
	if entries[0].Attempts != 1 || entries[0].Error == "" {
		t.Errorf("failed entry bookkeeping missing: %+v", entries[0])
	}
	// The skipped entry is untouched, not counted as an attempt.
	if entries[1].Attempts != 0 || entries[1].Error != "" {
		t.Errorf("skipped entry must stay untouched: %+v", entries[1])
	}
}

func TestDrainIsolatesFailuresAcrossRecords(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	queue := NewQueue(store, remote, zap.NewNop())

	a := createClientRecord(t, store, "Broken Client")
	b := createClientRecord(t, store, "Healthy Client")
	remote.fail[a] = apperrors.New(apperrors.ErrRemote, "backend rejected row")

	result, err := queue.Drain(context.Background(), DefaultMaxAttempts)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if result.Sent != 1 || result.Failed != 1 {
		t.Fatalf("unexpected drain result: %+v", result)
	}

	if entries, _ := store.QueueForRecord(b); len(entries) != 0 {
		t.Error("healthy record should have drained")
	}
	if entries, _ := store.QueueForRecord(a); len(entries) != 1 {
		t.Error("failed record must stay queued")
	}
}

func TestDrainStopsRetryingAtAttemptCap(t *testing.T) {
	store := newTestStore(t)
	remote := newFakeRemote()
	queue := NewQueue(store, remote, zap.NewNop())

	a := createClientRecord(t, store, "Stuck Client")
	remote.fail[a] = apperrors.New(apperrors.ErrRemote, "backend rejected row")

	for i := 0; i < DefaultMaxAttempts; i++ {
		if _, err := queue.Drain(context.Background(), DefaultMaxAttempts); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
	}

	// The entry is out of retries: further drains must not touch it.
	result, err := queue.Drain(context.Background(), DefaultMaxAttempts)
	if err != nil {
		t.Fatalf("final drain: %v", err)
	}
	if result.Sent != 0 || result.Failed != 0 || result.Skipped != 0 {
		t.Fatalf("capped entry was dispatched again: %+v", result)
	}

	failed, err := store.FailedOperations(DefaultMaxAttempts)
	if err != nil {
		t.Fatalf("failed operations: %v", err)
	}
	if len(failed) != 1 || failed[0].Attempts != DefaultMaxAttempts {
		t.Fatalf("expected one entry at the cap, got %+v", failed)
	}
}
