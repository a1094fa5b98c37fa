package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
)

// Store provides the typed accessors over the local database. Every write
// path goes through these methods, never raw table access: each mutation
// persists the row change and its sync-queue entry in one transaction, which
// is what keeps the synced-flag and queue invariants crash-safe.
type Store struct {
	db *sql.DB

	// now is the clock; tests override it to pin timestamps.
	now func() time.Time
}

// NewStore creates a Store over an opened database.
func NewStore(database *DB) *Store {
	return &Store{
		db:  database.DB,
		now: time.Now,
	}
}

// timestamp returns the current time in storage format.
func (s *Store) timestamp() string {
	return models.FormatTime(s.now())
}

// withTx runs fn inside a transaction, committing on nil error.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to commit transaction", err)
	}
	return nil
}

// enqueueTx appends one sync-queue entry inside the caller's transaction.
// record is marshaled as the snapshot the remote backend will receive.
func (s *Store) enqueueTx(tx *sql.Tx, op models.Op, entity models.Entity, recordID string, record interface{}) error {
	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to marshal queue snapshot", err)
	}
	query := `
	INSERT INTO sync_queue (operation, entity_table, record_id, data, created_at, attempts)
	VALUES (?, ?, ?, ?, ?, 0)
	`
	if _, err := tx.Exec(query, string(op), entity.Table(), recordID, string(data), s.timestamp()); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to enqueue operation", err)
	}
	return nil
}

// idExistsTx reports whether a row with the id exists in the entity's table.
func idExistsTx(tx *sql.Tx, entity models.Entity, id string) (bool, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", entity.Table())
	if err := tx.QueryRow(query, id).Scan(&n); err != nil {
		return false, apperrors.Wrap(apperrors.ErrDatabase, "failed to check id", err)
	}
	return n > 0, nil
}

// ClearAll truncates every entity table, the sync queue and the key-value
// state in one transaction. Used only for an explicit user-initiated reset.
func (s *Store) ClearAll() error {
	return s.withTx(func(tx *sql.Tx) error {
		tables := []string{
			models.EntityPhoto.Table(),
			models.EntityNonconformity.Table(),
			models.EntityComponent.Table(),
			models.EntityInspection.Table(),
			models.EntityClient.Table(),
			"sync_queue",
			"kv_state",
		}
		for _, table := range tables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return apperrors.Wrap(apperrors.ErrDatabase, "failed to clear "+table, err)
			}
		}
		return nil
	})
}

// =====================================================
// Key-value state
// =====================================================

// KeyInstallDismissed stores when the user dismissed the install banner.
// Unrelated to sync, but it shares the same key-value space.
const KeyInstallDismissed = "pwaInstallDismissed"

// KV returns the value for key; ok is false when the key is absent.
func (s *Store) KV(key string) (value string, ok bool, err error) {
	err = s.db.QueryRow("SELECT value FROM kv_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.Wrap(apperrors.ErrDatabase, "failed to read kv state", err)
	}
	return value, true, nil
}

// SetKV stores value under key, replacing any previous value.
func (s *Store) SetKV(key, value string) error {
	query := `
	INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, s.timestamp()); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to write kv state", err)
	}
	return nil
}

// Watermark returns the per-table last-pull timestamp, "" when the table
// was never pulled.
func (s *Store) Watermark(entity models.Entity) (string, error) {
	value, _, err := s.KV("lastSync_" + entity.Table())
	return value, err
}

// SetWatermark advances the per-table last-pull timestamp.
func (s *Store) SetWatermark(entity models.Entity, ts string) error {
	return s.SetKV("lastSync_"+entity.Table(), ts)
}
