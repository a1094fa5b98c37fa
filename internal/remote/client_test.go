package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
)

type capturedRequest struct {
	method string
	path   string
	query  map[string]string
	body   string
	apiKey string
	auth   string
}

func newCaptureServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = map[string]string{}
		for key := range r.URL.Query() {
			captured.query[key] = r.URL.Query().Get(key)
		}
		captured.body = string(body)
		captured.apiKey = r.Header.Get("apikey")
		captured.auth = r.Header.Get("Authorization")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestInsertPostsRowWithCredentials(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusCreated, "")
	client := NewClient(server.URL, "secret-key", time.Second, zap.NewNop())

	row := json.RawMessage(`{"id":"abc","name":"Acme"}`)
	if err := client.Insert(context.Background(), "clients", row); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if captured.method != http.MethodPost || captured.path != "/rest/v1/clients" {
		t.Errorf("got %s %s, want POST /rest/v1/clients", captured.method, captured.path)
	}
	if captured.body != string(row) {
		t.Errorf("body = %q, want row snapshot", captured.body)
	}
	if captured.apiKey != "secret-key" || captured.auth != "Bearer secret-key" {
		t.Errorf("credentials missing: apikey=%q auth=%q", captured.apiKey, captured.auth)
	}
}

func TestUpdateFiltersByID(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusNoContent, "")
	client := NewClient(server.URL, "k", time.Second, zap.NewNop())

	err := client.Update(context.Background(), "inspections", "abc", json.RawMessage(`{"status":"done"}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if captured.method != http.MethodPatch || captured.query["id"] != "eq.abc" {
		t.Errorf("got %s id=%q, want PATCH id=eq.abc", captured.method, captured.query["id"])
	}
}

func TestDeleteFiltersByID(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusNoContent, "")
	client := NewClient(server.URL, "k", time.Second, zap.NewNop())

	if err := client.Delete(context.Background(), "clients", "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if captured.method != http.MethodDelete || captured.query["id"] != "eq.abc" {
		t.Errorf("got %s id=%q, want DELETE id=eq.abc", captured.method, captured.query["id"])
	}
}

func TestSelectAppliesDeltaFilter(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `[{"id":"a"},{"id":"b"}]`)
	client := NewClient(server.URL, "k", time.Second, zap.NewNop())

	rows, err := client.Select(context.Background(), "clients", "2026-08-20T10:00:00.000Z")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if captured.query["updated_at"] != "gt.2026-08-20T10:00:00.000Z" {
		t.Errorf("delta filter = %q", captured.query["updated_at"])
	}
	if captured.query["order"] != "updated_at.asc" {
		t.Errorf("order = %q, want updated_at.asc", captured.query["order"])
	}
}

func TestSelectWithoutWatermarkAsksForEverything(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK, `[]`)
	client := NewClient(server.URL, "k", time.Second, zap.NewNop())

	rows, err := client.Select(context.Background(), "clients", "")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	if _, ok := captured.query["updated_at"]; ok {
		t.Error("first pull must not send a delta filter")
	}
}

func TestBackendErrorsSurfaceAsRemoteErrors(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusInternalServerError, `{"message":"boom"}`)
	client := NewClient(server.URL, "k", time.Second, zap.NewNop())

	err := client.Insert(context.Background(), "clients", json.RawMessage(`{}`))
	if !apperrors.Is(err, apperrors.ErrRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, "")
	client := NewClient(server.URL, "k", time.Second, zap.NewNop())
	if !client.Probe(context.Background()) {
		t.Error("responding backend should probe online")
	}

	down := NewClient("http://127.0.0.1:1", "k", 200*time.Millisecond, zap.NewNop())
	if down.Probe(context.Background()) {
		t.Error("unreachable backend should probe offline")
	}
}
