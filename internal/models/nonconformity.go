package models

// Nonconformity represents a defect found during an inspection.
type Nonconformity struct {
	ID           string `db:"id" json:"id"`
	InspectionID string `db:"inspection_id" json:"inspection_id"`
	Title        string `db:"title" json:"title"`
	Description  string `db:"description" json:"description"`
	Notes        string `db:"notes" json:"notes,omitempty"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	UpdatedAt    string `db:"updated_at" json:"updated_at"`
	Synced       bool   `db:"synced" json:"synced"`
}

// TableName returns the table name for Nonconformity.
func (Nonconformity) TableName() string {
	return EntityNonconformity.Table()
}

// NonconformityPatch carries a partial update; nil fields are left untouched.
type NonconformityPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// Apply merges the patch into n.
func (p *NonconformityPatch) Apply(n *Nonconformity) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Notes != nil {
		n.Notes = *p.Notes
	}
}
