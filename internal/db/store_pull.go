package db

import (
	"encoding/json"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
	"github.com/vistoria/fieldsync/internal/models"
)

// UpsertFromRemote writes one row pulled from the backend into the local
// table, keyed by id, marking it synced. This path deliberately bypasses
// the typed accessors: pulled rows are already remote truth and must not
// re-enter the sync queue. Pulling the same delta twice is a no-op thanks
// to the upsert.
func (s *Store) UpsertFromRemote(entity models.Entity, row json.RawMessage) error {
	switch entity {
	case models.EntityClient:
		var c models.Client
		if err := json.Unmarshal(row, &c); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to decode remote client", err)
		}
		if c.ID == "" {
			return apperrors.New(apperrors.ErrDatabase, "remote client row missing id")
		}
		query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, type = excluded.type, address = excluded.address,
			city = excluded.city, state = excluded.state, zip_code = excluded.zip_code,
			contact_name = excluded.contact_name, contact_phone = excluded.contact_phone,
			contact_email = excluded.contact_email, created_at = excluded.created_at,
			updated_at = excluded.updated_at, synced = 1
		`
		_, err := s.db.Exec(query,
			c.ID, c.Name, c.Type, c.Address, c.City, c.State, c.ZipCode,
			c.ContactName, c.ContactPhone, c.ContactEmail, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to upsert remote client", err)
		}
		return nil

	case models.EntityInspection:
		var in models.Inspection
		if err := json.Unmarshal(row, &in); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to decode remote inspection", err)
		}
		if in.ID == "" {
			return apperrors.New(apperrors.ErrDatabase, "remote inspection row missing id")
		}
		query := `
		INSERT INTO inspections (` + inspectionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id, status = excluded.status,
			inspection_date = excluded.inspection_date, building_type = excluded.building_type,
			construction_year = excluded.construction_year, roof_area = excluded.roof_area,
			last_maintenance = excluded.last_maintenance, main_issue = excluded.main_issue,
			created_at = excluded.created_at, updated_at = excluded.updated_at, synced = 1
		`
		_, err := s.db.Exec(query,
			in.ID, in.ClientID, in.Status, in.InspectionDate, in.BuildingType,
			in.ConstructionYear, in.RoofArea, in.LastMaintenance, in.MainIssue,
			in.CreatedAt, in.UpdatedAt,
		)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to upsert remote inspection", err)
		}
		return nil

	case models.EntityComponent:
		var c models.Component
		if err := json.Unmarshal(row, &c); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to decode remote component", err)
		}
		if c.ID == "" {
			return apperrors.New(apperrors.ErrDatabase, "remote component row missing id")
		}
		query := `
		INSERT INTO inspection_components (` + componentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			inspection_id = excluded.inspection_id, line = excluded.line,
			thickness = excluded.thickness, dimensions = excluded.dimensions,
			quantity = excluded.quantity, area = excluded.area,
			created_at = excluded.created_at, updated_at = excluded.updated_at, synced = 1
		`
		_, err := s.db.Exec(query,
			c.ID, c.InspectionID, c.Line, c.Thickness, c.Dimensions,
			c.Quantity, c.Area, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to upsert remote component", err)
		}
		return nil

	case models.EntityNonconformity:
		var nc models.Nonconformity
		if err := json.Unmarshal(row, &nc); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to decode remote nonconformity", err)
		}
		if nc.ID == "" {
			return apperrors.New(apperrors.ErrDatabase, "remote nonconformity row missing id")
		}
		query := `
		INSERT INTO nonconformities (` + nonconformityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			inspection_id = excluded.inspection_id, title = excluded.title,
			description = excluded.description, notes = excluded.notes,
			created_at = excluded.created_at, updated_at = excluded.updated_at, synced = 1
		`
		_, err := s.db.Exec(query,
			nc.ID, nc.InspectionID, nc.Title, nc.Description, nc.Notes,
			nc.CreatedAt, nc.UpdatedAt,
		)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to upsert remote nonconformity", err)
		}
		return nil

	case models.EntityPhoto:
		var ph models.Photo
		if err := json.Unmarshal(row, &ph); err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to decode remote photo", err)
		}
		if ph.ID == "" {
			return apperrors.New(apperrors.ErrDatabase, "remote photo row missing id")
		}
		query := `
		INSERT INTO inspection_photos (` + photoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO UPDATE SET
			inspection_id = excluded.inspection_id, nonconformity_id = excluded.nonconformity_id,
			category = excluded.category, caption = excluded.caption,
			photo_url = excluded.photo_url, photo_data = excluded.photo_data,
			created_at = excluded.created_at, updated_at = excluded.updated_at, synced = 1
		`
		_, err := s.db.Exec(query,
			ph.ID, ph.InspectionID, ph.NonconformityID, ph.Category, ph.Caption,
			ph.PhotoURL, ph.PhotoData, ph.CreatedAt, ph.UpdatedAt,
		)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrDatabase, "failed to upsert remote photo", err)
		}
		return nil
	}
	return apperrors.Newf(apperrors.ErrDatabase, "unknown entity %d in pull", entity)
}

// UnsyncedCount returns how many local rows still carry synced = false.
func (s *Store) UnsyncedCount() (int, error) {
	total := 0
	for _, entity := range models.Entities {
		var n int
		if err := s.db.QueryRow(
			"SELECT COUNT(*) FROM " + entity.Table() + " WHERE synced = 0",
		).Scan(&n); err != nil {
			return 0, apperrors.Wrap(apperrors.ErrDatabase, "failed to count unsynced rows", err)
		}
		total += n
	}
	return total, nil
}
