package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vistoria/fieldsync/internal/db"
	"github.com/vistoria/fieldsync/internal/models"
)

// DefaultMaxAttempts is the retry cap for queue entries. An entry that
// fails this many times stays in the queue for diagnostics but is never
// drained automatically again.
const DefaultMaxAttempts = 5

// Queue drains the durable operation queue against the remote backend.
type Queue struct {
	store  *db.Store
	remote Remote
	logger *zap.Logger
}

// NewQueue creates a Queue over the store's sync_queue table.
func NewQueue(store *db.Store, remote Remote, logger *zap.Logger) *Queue {
	return &Queue{store: store, remote: remote, logger: logger}
}

// DrainResult summarizes one drain cycle.
type DrainResult struct {
	// Sent counts entries pushed and removed.
	Sent int

	// Failed counts entries whose dispatch failed; their attempt counter
	// and error were recorded and they stay queued.
	Failed int

	// Skipped counts entries held back because an earlier entry for the
	// same record failed in this cycle.
	Skipped int
}

// Drain pushes every eligible entry in ascending sequence order. Failures
// are isolated per entry: a failing dispatch records the attempt and the
// cycle continues with the next entry. Entries for a record whose earlier
// entry just failed are skipped untouched, so same-record operations only
// ever reach the backend in sequence order.
func (q *Queue) Drain(ctx context.Context, maxAttempts int) (DrainResult, error) {
	var result DrainResult

	entries, err := q.store.PendingOperations(maxAttempts)
	if err != nil {
		return result, err
	}
	if len(entries) == 0 {
		return result, nil
	}

	q.logger.Debug("draining sync queue", zap.Int("pending", len(entries)))

	blocked := make(map[string]bool)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if blocked[entry.RecordID] {
			result.Skipped++
			continue
		}

		if err := q.dispatch(ctx, entry); err != nil {
			result.Failed++
			blocked[entry.RecordID] = true
			q.logger.Warn("queue entry failed",
				zap.Int64("seq", entry.Seq),
				zap.String("operation", string(entry.Op)),
				zap.String("table", entry.Table),
				zap.String("record_id", entry.RecordID),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err))
			if recErr := q.store.RecordOperationFailure(entry.Seq, err); recErr != nil {
				return result, recErr
			}
			continue
		}

		if err := q.store.CompleteOperation(entry.Seq); err != nil {
			return result, err
		}
		result.Sent++
	}

	q.logger.Info("sync queue drained",
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// dispatch sends one entry to the backend according to its operation.
func (q *Queue) dispatch(ctx context.Context, entry *models.QueueEntry) error {
	if _, err := entry.Entity(); err != nil {
		return err
	}
	switch entry.Op {
	case models.OpCreate:
		return q.remote.Insert(ctx, entry.Table, entry.Data)
	case models.OpUpdate:
		return q.remote.Update(ctx, entry.Table, entry.RecordID, entry.Data)
	case models.OpDelete:
		return q.remote.Delete(ctx, entry.Table, entry.RecordID)
	}
	return fmt.Errorf("unknown queue operation: %q", entry.Op)
}
