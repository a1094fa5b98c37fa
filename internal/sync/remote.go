// Package sync orchestrates the offline-first synchronization lifecycle:
// draining the durable operation queue to the remote backend (push) and
// reconciling remote deltas into the local store (pull).
package sync

import (
	"context"
	"encoding/json"
)

// Remote is the row-oriented backend consumed by the sync engine. A nil
// error with an empty result set is a valid answer; backends must return
// explicit errors for failures.
type Remote interface {
	// Insert creates one row in the named table.
	Insert(ctx context.Context, table string, row json.RawMessage) error

	// Update patches the row with the given id.
	Update(ctx context.Context, table, id string, row json.RawMessage) error

	// Delete removes the row with the given id.
	Delete(ctx context.Context, table, id string) error

	// Select returns rows with updated_at strictly greater than
	// updatedAfter; all rows when updatedAfter is empty.
	Select(ctx context.Context, table, updatedAfter string) ([]json.RawMessage, error)
}
