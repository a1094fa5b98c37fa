package db

import (
	"database/sql"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
	"github.com/vistoria/fieldsync/internal/uuid"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

const clientColumns = `id, name, type, address, city, state, zip_code,
	contact_name, contact_phone, contact_email, created_at, updated_at, synced`

func scanClient(scan func(dest ...interface{}) error) (*models.Client, error) {
	var c models.Client
	err := scan(
		&c.ID, &c.Name, &c.Type, &c.Address, &c.City, &c.State, &c.ZipCode,
		&c.ContactName, &c.ContactPhone, &c.ContactEmail,
		&c.CreatedAt, &c.UpdatedAt, &c.Synced,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func getClient(q querier, id string) (*models.Client, error) {
	row := q.QueryRow("SELECT "+clientColumns+" FROM clients WHERE id = ?", id)
	c, err := scanClient(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "client not found: %s", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get client", err)
	}
	return c, nil
}

// CreateClient validates and persists a new client, enqueueing its create
// operation in the same transaction. Returns the (possibly generated) id.
func (s *Store) CreateClient(c *models.Client) (string, error) {
	if c.Name == "" || c.Type == "" || c.Address == "" || c.City == "" || c.State == "" || c.ZipCode == "" {
		return "", apperrors.New(apperrors.ErrValidation,
			"client requires name, type, address, city, state and zip_code")
	}
	if c.ID == "" {
		c.ID = uuid.New()
	} else if err := uuid.Validate(c.ID); err != nil {
		return "", apperrors.Wrap(apperrors.ErrValidation, "bad client id", err)
	}

	now := s.timestamp()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Synced = false

	err := s.withTx(func(tx *sql.Tx) error {
		exists, err := idExistsTx(tx, models.EntityClient, c.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Newf(apperrors.ErrValidation, "client id collision: %s", c.ID)
		}
		query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.Exec(query,
			c.ID, c.Name, c.Type, c.Address, c.City, c.State, c.ZipCode,
			c.ContactName, c.ContactPhone, c.ContactEmail,
			c.CreatedAt, c.UpdatedAt, c.Synced,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to insert client", err)
		}
		return s.enqueueTx(tx, models.OpCreate, models.EntityClient, c.ID, c)
	})
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// GetClient retrieves a client by id.
func (s *Store) GetClient(id string) (*models.Client, error) {
	return getClient(s.db, id)
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients() ([]*models.Client, error) {
	rows, err := s.db.Query("SELECT " + clientColumns + " FROM clients ORDER BY name")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list clients", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan client", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list clients", err)
	}
	return clients, nil
}

// UpdateClient merges the patch into the stored client, bumps updated_at,
// resets synced and enqueues the update operation, all atomically.
func (s *Store) UpdateClient(id string, patch *models.ClientPatch) error {
	return s.withTx(func(tx *sql.Tx) error {
		c, err := getClient(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(c)
		c.UpdatedAt = s.timestamp()
		c.Synced = false

		query := `
		UPDATE clients
		SET name = ?, type = ?, address = ?, city = ?, state = ?, zip_code = ?,
			contact_name = ?, contact_phone = ?, contact_email = ?,
			updated_at = ?, synced = ?
		WHERE id = ?
		`
		if _, err := tx.Exec(query,
			c.Name, c.Type, c.Address, c.City, c.State, c.ZipCode,
			c.ContactName, c.ContactPhone, c.ContactEmail,
			c.UpdatedAt, c.Synced, c.ID,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to update client", err)
		}
		return s.enqueueTx(tx, models.OpUpdate, models.EntityClient, c.ID, c)
	})
}

// DeleteClient removes a client. Clients with existing inspections cannot
// be deleted; the caller must delete the inspections first.
func (s *Store) DeleteClient(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		c, err := getClient(tx, id)
		if err != nil {
			return err
		}

		var inspections int
		if err := tx.QueryRow(
			"SELECT COUNT(*) FROM inspections WHERE client_id = ?", id,
		).Scan(&inspections); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to count inspections", err)
		}
		if inspections > 0 {
			return apperrors.Newf(apperrors.ErrConstraint,
				"client %s has %d inspections and cannot be deleted", id, inspections)
		}

		if _, err := tx.Exec("DELETE FROM clients WHERE id = ?", id); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete client", err)
		}
		// The pre-delete snapshot rides along for audit.
		return s.enqueueTx(tx, models.OpDelete, models.EntityClient, id, c)
	})
}
