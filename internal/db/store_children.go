package db

import (
	"database/sql"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
	"github.com/vistoria/fieldsync/internal/uuid"
)

const componentColumns = `id, inspection_id, line, thickness, dimensions,
	quantity, area, created_at, updated_at, synced`

const nonconformityColumns = `id, inspection_id, title, description, notes,
	created_at, updated_at, synced`

const photoColumns = `id, inspection_id, nonconformity_id, category, caption,
	photo_url, photo_data, created_at, updated_at, synced`

func scanComponent(scan func(dest ...interface{}) error) (*models.Component, error) {
	var c models.Component
	err := scan(
		&c.ID, &c.InspectionID, &c.Line, &c.Thickness, &c.Dimensions,
		&c.Quantity, &c.Area, &c.CreatedAt, &c.UpdatedAt, &c.Synced,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanNonconformity(scan func(dest ...interface{}) error) (*models.Nonconformity, error) {
	var nc models.Nonconformity
	err := scan(
		&nc.ID, &nc.InspectionID, &nc.Title, &nc.Description, &nc.Notes,
		&nc.CreatedAt, &nc.UpdatedAt, &nc.Synced,
	)
	if err != nil {
		return nil, err
	}
	return &nc, nil
}

func scanPhoto(scan func(dest ...interface{}) error) (*models.Photo, error) {
	var ph models.Photo
	err := scan(
		&ph.ID, &ph.InspectionID, &ph.NonconformityID, &ph.Category, &ph.Caption,
		&ph.PhotoURL, &ph.PhotoData, &ph.CreatedAt, &ph.UpdatedAt, &ph.Synced,
	)
	if err != nil {
		return nil, err
	}
	return &ph, nil
}

func listComponents(q querier, inspectionID string) ([]*models.Component, error) {
	rows, err := q.Query(
		"SELECT "+componentColumns+" FROM inspection_components WHERE inspection_id = ? ORDER BY created_at",
		inspectionID,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list components", err)
	}
	defer rows.Close()

	var components []*models.Component
	for rows.Next() {
		c, err := scanComponent(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan component", err)
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func listNonconformities(q querier, inspectionID string) ([]*models.Nonconformity, error) {
	rows, err := q.Query(
		"SELECT "+nonconformityColumns+" FROM nonconformities WHERE inspection_id = ? ORDER BY created_at",
		inspectionID,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list nonconformities", err)
	}
	defer rows.Close()

	var nonconformities []*models.Nonconformity
	for rows.Next() {
		nc, err := scanNonconformity(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan nonconformity", err)
		}
		nonconformities = append(nonconformities, nc)
	}
	return nonconformities, rows.Err()
}

func listPhotos(q querier, inspectionID string) ([]*models.Photo, error) {
	rows, err := q.Query(
		"SELECT "+photoColumns+" FROM inspection_photos WHERE inspection_id = ? ORDER BY created_at",
		inspectionID,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list photos", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		ph, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan photo", err)
		}
		photos = append(photos, ph)
	}
	return photos, rows.Err()
}

// requireInspectionTx returns a constraint error when the parent
// inspection does not exist.
func (s *Store) requireInspectionTx(tx *sql.Tx, inspectionID string) error {
	exists, err := idExistsTx(tx, models.EntityInspection, inspectionID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.Newf(apperrors.ErrConstraint, "unknown inspection: %s", inspectionID)
	}
	return nil
}

// =====================================================
// Components
// =====================================================

// CreateComponent persists a new inspection component and enqueues its
// create operation atomically.
func (s *Store) CreateComponent(c *models.Component) (string, error) {
	if c.InspectionID == "" || c.Line == "" || c.Thickness == "" || c.Dimensions == "" {
		return "", apperrors.New(apperrors.ErrValidation,
			"component requires inspection_id, line, thickness and dimensions")
	}
	if c.Quantity <= 0 {
		return "", apperrors.New(apperrors.ErrValidation, "component requires a positive quantity")
	}
	if c.ID == "" {
		c.ID = uuid.New()
	} else if err := uuid.Validate(c.ID); err != nil {
		return "", apperrors.Wrap(apperrors.ErrValidation, "bad component id", err)
	}

	now := s.timestamp()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Synced = false

	err := s.withTx(func(tx *sql.Tx) error {
		if err := s.requireInspectionTx(tx, c.InspectionID); err != nil {
			return err
		}
		exists, err := idExistsTx(tx, models.EntityComponent, c.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Newf(apperrors.ErrValidation, "component id collision: %s", c.ID)
		}
		query := `
		INSERT INTO inspection_components (` + componentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.Exec(query,
			c.ID, c.InspectionID, c.Line, c.Thickness, c.Dimensions,
			c.Quantity, c.Area, c.CreatedAt, c.UpdatedAt, c.Synced,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to insert component", err)
		}
		return s.enqueueTx(tx, models.OpCreate, models.EntityComponent, c.ID, c)
	})
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// ListComponents returns the components of one inspection.
func (s *Store) ListComponents(inspectionID string) ([]*models.Component, error) {
	return listComponents(s.db, inspectionID)
}

// UpdateComponent merges the patch and enqueues the update atomically.
func (s *Store) UpdateComponent(id string, patch *models.ComponentPatch) error {
	return s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+componentColumns+" FROM inspection_components WHERE id = ?", id)
		c, err := scanComponent(row.Scan)
		if err == sql.ErrNoRows {
			return apperrors.Newf(apperrors.ErrNotFound, "component not found: %s", id)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get component", err)
		}
		patch.Apply(c)
		c.UpdatedAt = s.timestamp()
		c.Synced = false

		query := `
		UPDATE inspection_components
		SET line = ?, thickness = ?, dimensions = ?, quantity = ?, area = ?,
			updated_at = ?, synced = ?
		WHERE id = ?
		`
		if _, err := tx.Exec(query,
			c.Line, c.Thickness, c.Dimensions, c.Quantity, c.Area,
			c.UpdatedAt, c.Synced, c.ID,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to update component", err)
		}
		return s.enqueueTx(tx, models.OpUpdate, models.EntityComponent, c.ID, c)
	})
}

// DeleteComponent removes one component and enqueues its delete operation.
func (s *Store) DeleteComponent(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+componentColumns+" FROM inspection_components WHERE id = ?", id)
		c, err := scanComponent(row.Scan)
		if err == sql.ErrNoRows {
			return apperrors.Newf(apperrors.ErrNotFound, "component not found: %s", id)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get component", err)
		}
		if _, err := tx.Exec("DELETE FROM inspection_components WHERE id = ?", id); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete component", err)
		}
		return s.enqueueTx(tx, models.OpDelete, models.EntityComponent, id, c)
	})
}

// =====================================================
// Nonconformities
// =====================================================

// CreateNonconformity persists a new nonconformity and enqueues its
// create operation atomically.
func (s *Store) CreateNonconformity(nc *models.Nonconformity) (string, error) {
	if nc.InspectionID == "" || nc.Title == "" || nc.Description == "" {
		return "", apperrors.New(apperrors.ErrValidation,
			"nonconformity requires inspection_id, title and description")
	}
	if nc.ID == "" {
		nc.ID = uuid.New()
	} else if err := uuid.Validate(nc.ID); err != nil {
		return "", apperrors.Wrap(apperrors.ErrValidation, "bad nonconformity id", err)
	}

	now := s.timestamp()
	nc.CreatedAt = now
	nc.UpdatedAt = now
	nc.Synced = false

	err := s.withTx(func(tx *sql.Tx) error {
		if err := s.requireInspectionTx(tx, nc.InspectionID); err != nil {
			return err
		}
		exists, err := idExistsTx(tx, models.EntityNonconformity, nc.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Newf(apperrors.ErrValidation, "nonconformity id collision: %s", nc.ID)
		}
		query := `
		INSERT INTO nonconformities (` + nonconformityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.Exec(query,
			nc.ID, nc.InspectionID, nc.Title, nc.Description, nc.Notes,
			nc.CreatedAt, nc.UpdatedAt, nc.Synced,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to insert nonconformity", err)
		}
		return s.enqueueTx(tx, models.OpCreate, models.EntityNonconformity, nc.ID, nc)
	})
	if err != nil {
		return "", err
	}
	return nc.ID, nil
}

// ListNonconformities returns the nonconformities of one inspection.
func (s *Store) ListNonconformities(inspectionID string) ([]*models.Nonconformity, error) {
	return listNonconformities(s.db, inspectionID)
}

// UpdateNonconformity merges the patch and enqueues the update atomically.
func (s *Store) UpdateNonconformity(id string, patch *models.NonconformityPatch) error {
	return s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+nonconformityColumns+" FROM nonconformities WHERE id = ?", id)
		nc, err := scanNonconformity(row.Scan)
		if err == sql.ErrNoRows {
			return apperrors.Newf(apperrors.ErrNotFound, "nonconformity not found: %s", id)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get nonconformity", err)
		}
		patch.Apply(nc)
		nc.UpdatedAt = s.timestamp()
		nc.Synced = false

		query := `
		UPDATE nonconformities
		SET title = ?, description = ?, notes = ?, updated_at = ?, synced = ?
		WHERE id = ?
		`
		if _, err := tx.Exec(query,
			nc.Title, nc.Description, nc.Notes, nc.UpdatedAt, nc.Synced, nc.ID,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to update nonconformity", err)
		}
		return s.enqueueTx(tx, models.OpUpdate, models.EntityNonconformity, nc.ID, nc)
	})
}

// DeleteNonconformity removes one nonconformity and enqueues its delete
// operation. Photos referencing it keep their reference; the remote treats
// it as a dangling optional link.
func (s *Store) DeleteNonconformity(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+nonconformityColumns+" FROM nonconformities WHERE id = ?", id)
		nc, err := scanNonconformity(row.Scan)
		if err == sql.ErrNoRows {
			return apperrors.Newf(apperrors.ErrNotFound, "nonconformity not found: %s", id)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get nonconformity", err)
		}
		if _, err := tx.Exec("DELETE FROM nonconformities WHERE id = ?", id); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete nonconformity", err)
		}
		return s.enqueueTx(tx, models.OpDelete, models.EntityNonconformity, id, nc)
	})
}

// =====================================================
// Photos
// =====================================================

// CreatePhoto persists a new photo and enqueues its create operation
// atomically. Either photo_url or the inline photo_data payload must be
// present so the record is renderable offline.
func (s *Store) CreatePhoto(ph *models.Photo) (string, error) {
	if ph.InspectionID == "" || ph.Category == "" {
		return "", apperrors.New(apperrors.ErrValidation, "photo requires inspection_id and category")
	}
	if ph.PhotoURL == "" && ph.PhotoData == "" {
		return "", apperrors.New(apperrors.ErrValidation, "photo requires photo_url or photo_data")
	}
	if ph.ID == "" {
		ph.ID = uuid.New()
	} else if err := uuid.Validate(ph.ID); err != nil {
		return "", apperrors.Wrap(apperrors.ErrValidation, "bad photo id", err)
	}

	now := s.timestamp()
	ph.CreatedAt = now
	ph.UpdatedAt = now
	ph.Synced = false

	err := s.withTx(func(tx *sql.Tx) error {
		if err := s.requireInspectionTx(tx, ph.InspectionID); err != nil {
			return err
		}
		if ph.NonconformityID != "" {
			exists, err := idExistsTx(tx, models.EntityNonconformity, ph.NonconformityID)
			if err != nil {
				return err
			}
			if !exists {
				return apperrors.Newf(apperrors.ErrConstraint,
					"photo references unknown nonconformity: %s", ph.NonconformityID)
			}
		}
		exists, err := idExistsTx(tx, models.EntityPhoto, ph.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Newf(apperrors.ErrValidation, "photo id collision: %s", ph.ID)
		}
		query := `
		INSERT INTO inspection_photos (` + photoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.Exec(query,
			ph.ID, ph.InspectionID, ph.NonconformityID, ph.Category, ph.Caption,
			ph.PhotoURL, ph.PhotoData, ph.CreatedAt, ph.UpdatedAt, ph.Synced,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to insert photo", err)
		}
		return s.enqueueTx(tx, models.OpCreate, models.EntityPhoto, ph.ID, ph)
	})
	if err != nil {
		return "", err
	}
	return ph.ID, nil
}

// ListPhotos returns the photos of one inspection.
func (s *Store) ListPhotos(inspectionID string) ([]*models.Photo, error) {
	return listPhotos(s.db, inspectionID)
}

// UpdatePhoto merges the patch and enqueues the update atomically.
func (s *Store) UpdatePhoto(id string, patch *models.PhotoPatch) error {
	return s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+photoColumns+" FROM inspection_photos WHERE id = ?", id)
		ph, err := scanPhoto(row.Scan)
		if err == sql.ErrNoRows {
			return apperrors.Newf(apperrors.ErrNotFound, "photo not found: %s", id)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get photo", err)
		}
		patch.Apply(ph)
		ph.UpdatedAt = s.timestamp()
		ph.Synced = false

		query := `
		UPDATE inspection_photos
		SET nonconformity_id = ?, category = ?, caption = ?, photo_url = ?,
			photo_data = ?, updated_at = ?, synced = ?
		WHERE id = ?
		`
		if _, err := tx.Exec(query,
			ph.NonconformityID, ph.Category, ph.Caption, ph.PhotoURL,
			ph.PhotoData, ph.UpdatedAt, ph.Synced, ph.ID,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to update photo", err)
		}
		return s.enqueueTx(tx, models.OpUpdate, models.EntityPhoto, ph.ID, ph)
	})
}

// DeletePhoto removes one photo and enqueues its delete operation.
func (s *Store) DeletePhoto(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow("SELECT "+photoColumns+" FROM inspection_photos WHERE id = ?", id)
		ph, err := scanPhoto(row.Scan)
		if err == sql.ErrNoRows {
			return apperrors.Newf(apperrors.ErrNotFound, "photo not found: %s", id)
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to get photo", err)
		}
		if _, err := tx.Exec("DELETE FROM inspection_photos WHERE id = ?", id); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete photo", err)
		}
		return s.enqueueTx(tx, models.OpDelete, models.EntityPhoto, id, ph)
	})
}
