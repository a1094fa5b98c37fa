package db

import (
	"database/sql"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
	"github.com/vistoria/fieldsync/internal/uuid"
)

const inspectionColumns = `id, client_id, status, inspection_date, building_type,
	construction_year, roof_area, last_maintenance, main_issue,
	created_at, updated_at, synced`

func scanInspection(scan func(dest ...interface{}) error) (*models.Inspection, error) {
	var in models.Inspection
	err := scan(
		&in.ID, &in.ClientID, &in.Status, &in.InspectionDate, &in.BuildingType,
		&in.ConstructionYear, &in.RoofArea, &in.LastMaintenance, &in.MainIssue,
		&in.CreatedAt, &in.UpdatedAt, &in.Synced,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func getInspection(q querier, id string) (*models.Inspection, error) {
	row := q.QueryRow("SELECT "+inspectionColumns+" FROM inspections WHERE id = ?", id)
	in, err := scanInspection(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "inspection not found: %s", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to get inspection", err)
	}
	return in, nil
}

// CreateInspection validates and persists a new inspection for an existing
// client, enqueueing its create operation in the same transaction.
func (s *Store) CreateInspection(in *models.Inspection) (string, error) {
	if in.ClientID == "" || in.Status == "" || in.InspectionDate == "" || in.BuildingType == "" {
		return "", apperrors.New(apperrors.ErrValidation,
			"inspection requires client_id, status, inspection_date and building_type")
	}
	if in.RoofArea <= 0 {
		return "", apperrors.New(apperrors.ErrValidation, "inspection requires a positive roof_area")
	}
	if in.ID == "" {
		in.ID = uuid.New()
	} else if err := uuid.Validate(in.ID); err != nil {
		return "", apperrors.Wrap(apperrors.ErrValidation, "bad inspection id", err)
	}

	now := s.timestamp()
	in.CreatedAt = now
	in.UpdatedAt = now
	in.Synced = false

	err := s.withTx(func(tx *sql.Tx) error {
		parent, err := idExistsTx(tx, models.EntityClient, in.ClientID)
		if err != nil {
			return err
		}
		if !parent {
			return apperrors.Newf(apperrors.ErrConstraint, "inspection references unknown client: %s", in.ClientID)
		}
		exists, err := idExistsTx(tx, models.EntityInspection, in.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Newf(apperrors.ErrValidation, "inspection id collision: %s", in.ID)
		}
		query := `
		INSERT INTO inspections (` + inspectionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.Exec(query,
			in.ID, in.ClientID, in.Status, in.InspectionDate, in.BuildingType,
			in.ConstructionYear, in.RoofArea, in.LastMaintenance, in.MainIssue,
			in.CreatedAt, in.UpdatedAt, in.Synced,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to insert inspection", err)
		}
		return s.enqueueTx(tx, models.OpCreate, models.EntityInspection, in.ID, in)
	})
	if err != nil {
		return "", err
	}
	return in.ID, nil
}

// GetInspection retrieves an inspection by id.
func (s *Store) GetInspection(id string) (*models.Inspection, error) {
	return getInspection(s.db, id)
}

// ListInspections returns inspections, optionally filtered by client.
func (s *Store) ListInspections(clientID string) ([]*models.Inspection, error) {
	query := "SELECT " + inspectionColumns + " FROM inspections"
	var args []interface{}
	if clientID != "" {
		query += " WHERE client_id = ?"
		args = append(args, clientID)
	}
	query += " ORDER BY inspection_date DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list inspections", err)
	}
	defer rows.Close()

	var inspections []*models.Inspection
	for rows.Next() {
		in, err := scanInspection(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to scan inspection", err)
		}
		inspections = append(inspections, in)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDatabase, "failed to list inspections", err)
	}
	return inspections, nil
}

// UpdateInspection merges the patch, bumps updated_at, resets synced and
// enqueues the update operation atomically.
func (s *Store) UpdateInspection(id string, patch *models.InspectionPatch) error {
	return s.withTx(func(tx *sql.Tx) error {
		in, err := getInspection(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(in)
		in.UpdatedAt = s.timestamp()
		in.Synced = false

		query := `
		UPDATE inspections
		SET status = ?, inspection_date = ?, building_type = ?, construction_year = ?,
			roof_area = ?, last_maintenance = ?, main_issue = ?, updated_at = ?, synced = ?
		WHERE id = ?
		`
		if _, err := tx.Exec(query,
			in.Status, in.InspectionDate, in.BuildingType, in.ConstructionYear,
			in.RoofArea, in.LastMaintenance, in.MainIssue, in.UpdatedAt, in.Synced, in.ID,
		); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to update inspection", err)
		}
		return s.enqueueTx(tx, models.OpUpdate, models.EntityInspection, in.ID, in)
	})
}

// DeleteInspection removes an inspection and cascades over its components,
// nonconformities and photos. Every deleted row gets its own delete
// operation enqueued, children first and the parent last, so the remote
// replay preserves referential integrity. The whole cascade is one
// transaction: either all rows and queue entries commit or none do.
func (s *Store) DeleteInspection(id string) error {
	return s.withTx(func(tx *sql.Tx) error {
		in, err := getInspection(tx, id)
		if err != nil {
			return err
		}

		components, err := listComponents(tx, id)
		if err != nil {
			return err
		}
		nonconformities, err := listNonconformities(tx, id)
		if err != nil {
			return err
		}
		photos, err := listPhotos(tx, id)
		if err != nil {
			return err
		}

		// Children rows go first so the foreign keys stay satisfied.
		for _, table := range []string{
			models.EntityPhoto.Table(),
			models.EntityNonconformity.Table(),
			models.EntityComponent.Table(),
		} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE inspection_id = ?", id); err != nil {
				return apperrors.Wrap(apperrors.ErrDatabase, "failed to cascade delete "+table, err)
			}
		}
		if _, err := tx.Exec("DELETE FROM inspections WHERE id = ?", id); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to delete inspection", err)
		}

		for _, c := range components {
			if err := s.enqueueTx(tx, models.OpDelete, models.EntityComponent, c.ID, c); err != nil {
				return err
			}
		}
		for _, nc := range nonconformities {
			if err := s.enqueueTx(tx, models.OpDelete, models.EntityNonconformity, nc.ID, nc); err != nil {
				return err
			}
		}
		for _, ph := range photos {
			if err := s.enqueueTx(tx, models.OpDelete, models.EntityPhoto, ph.ID, ph); err != nil {
				return err
			}
		}
		return s.enqueueTx(tx, models.OpDelete, models.EntityInspection, id, in)
	})
}
