package models

// Component represents one roofing component line surveyed during an
// inspection (tile line, thickness, dimensions and covered area).
type Component struct {
	ID           string  `db:"id" json:"id"`
	InspectionID string  `db:"inspection_id" json:"inspection_id"`
	Line         string  `db:"line" json:"line"`
	Thickness    string  `db:"thickness" json:"thickness"`
	Dimensions   string  `db:"dimensions" json:"dimensions"`
	Quantity     int     `db:"quantity" json:"quantity"`
	Area         float64 `db:"area" json:"area"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
	UpdatedAt    string  `db:"updated_at" json:"updated_at"`
	Synced       bool    `db:"synced" json:"synced"`
}

// TableName returns the table name for Component.
func (Component) TableName() string {
	return EntityComponent.Table()
}

// ComponentPatch carries a partial update; nil fields are left untouched.
type ComponentPatch struct {
	Line       *string  `json:"line,omitempty"`
	Thickness  *string  `json:"thickness,omitempty"`
	Dimensions *string  `json:"dimensions,omitempty"`
	Quantity   *int     `json:"quantity,omitempty"`
	Area       *float64 `json:"area,omitempty"`
}

// Apply merges the patch into c.
func (p *ComponentPatch) Apply(c *Component) {
	if p.Line != nil {
		c.Line = *p.Line
	}
	if p.Thickness != nil {
		c.Thickness = *p.Thickness
	}
	if p.Dimensions != nil {
		c.Dimensions = *p.Dimensions
	}
	if p.Quantity != nil {
		c.Quantity = *p.Quantity
	}
	if p.Area != nil {
		c.Area = *p.Area
	}
}
