package db

import (
	"database/sql"
	"encoding/json"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
)

const queueColumns = `seq, operation, entity_table, record_id, data,
	created_at, attempts, last_attempt, error`

func scanQueueEntry(scan func(dest ...interface{}) error) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	var op, data string
	var lastAttempt, errMsg sql.NullString
	err := scan(
		&entry.Seq, &op, &entry.Table, &entry.RecordID, &data,
		&entry.CreatedAt, &entry.Attempts, &lastAttempt, &errMsg,
	)
	if err != nil {
		return nil, err
	}
	entry.Op = models.Op(op)
	entry.Data = json.RawMessage(data)
	if lastAttempt.Valid {
		entry.LastAttempt = lastAttempt.String
	}
	if errMsg.Valid {
		entry.Error = errMsg.String
	}
	return &entry, nil
}

func (s *Store) queueEntries(query string, args ...interface{}) ([]*models.QueueEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to query sync queue", err)
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan queue entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to query sync queue", err)
	}
	return entries, nil
}

// PendingOperations returns queue entries still eligible for draining,
// in ascending sequence order. FIFO over the single global queue is what
// preserves causal order for same-record operations.
func (s *Store) PendingOperations(maxAttempts int) ([]*models.QueueEntry, error) {
	return s.queueEntries(
		"SELECT "+queueColumns+" FROM sync_queue WHERE attempts < ? ORDER BY seq ASC",
		maxAttempts,
	)
}

// FailedOperations returns entries that exhausted the attempt cap. They
// are retained for diagnostics and manual intervention, never drained.
func (s *Store) FailedOperations(maxAttempts int) ([]*models.QueueEntry, error) {
	return s.queueEntries(
		"SELECT "+queueColumns+" FROM sync_queue WHERE attempts >= ? ORDER BY seq ASC",
		maxAttempts,
	)
}

// QueueForRecord returns every entry for one record id, oldest first.
func (s *Store) QueueForRecord(recordID string) ([]*models.QueueEntry, error) {
	return s.queueEntries(
		"SELECT "+queueColumns+" FROM sync_queue WHERE record_id = ? ORDER BY seq ASC",
		recordID,
	)
}

// PendingCount returns how many operations sit in the queue.
func (s *Store) PendingCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sync_queue").Scan(&n); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to count sync queue", err)
	}
	return n, nil
}

// CompleteOperation removes a successfully pushed entry.
func (s *Store) CompleteOperation(seq int64) error {
	if _, err := s.db.Exec("DELETE FROM sync_queue WHERE seq = ?", seq); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to complete queue entry", err)
	}
	return nil
}

// RecordOperationFailure bumps the attempt counter and captures the
// failure so the entry waits for a later drain cycle.
func (s *Store) RecordOperationFailure(seq int64, cause error) error {
	query := `
	UPDATE sync_queue SET attempts = attempts + 1, last_attempt = ?, error = ?
	WHERE seq = ?
	`
	if _, err := s.db.Exec(query, s.timestamp(), cause.Error(), seq); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to record queue failure", err)
	}
	return nil
}
