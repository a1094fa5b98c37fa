package models

// Photo represents a photo taken during an inspection, optionally tied
// to a specific nonconformity. PhotoData holds the base64 image payload
// captured offline, before the file reaches the backend's storage and
// PhotoURL becomes authoritative.
type Photo struct {
	ID              string `db:"id" json:"id"`
	InspectionID    string `db:"inspection_id" json:"inspection_id"`
	NonconformityID string `db:"nonconformity_id" json:"nonconformity_id,omitempty"`
	Category        string `db:"category" json:"category"`
	Caption         string `db:"caption" json:"caption"`
	PhotoURL        string `db:"photo_url" json:"photo_url,omitempty"`
	PhotoData       string `db:"photo_data" json:"photo_data,omitempty"`
	CreatedAt       string `db:"created_at" json:"created_at"`
	UpdatedAt       string `db:"updated_at" json:"updated_at"`
	Synced          bool   `db:"synced" json:"synced"`
}

// TableName returns the table name for Photo.
func (Photo) TableName() string {
	return EntityPhoto.Table()
}

// PhotoPatch carries a partial update; nil fields are left untouched.
type PhotoPatch struct {
	NonconformityID *string `json:"nonconformity_id,omitempty"`
	Category        *string `json:"category,omitempty"`
	Caption         *string `json:"caption,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty"`
	PhotoData       *string `json:"photo_data,omitempty"`
}

// Apply merges the patch into ph.
func (p *PhotoPatch) Apply(ph *Photo) {
	if p.NonconformityID != nil {
		ph.NonconformityID = *p.NonconformityID
	}
	if p.Category != nil {
		ph.Category = *p.Category
	}
	if p.Caption != nil {
		ph.Caption = *p.Caption
	}
	if p.PhotoURL != nil {
		ph.PhotoURL = *p.PhotoURL
	}
	if p.PhotoData != nil {
		ph.PhotoData = *p.PhotoData
	}
}
