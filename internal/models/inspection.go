package models

// Inspection represents one roof inspection visit for a client.
type Inspection struct {
	ID               string  `db:"id" json:"id"`
	ClientID         string  `db:"client_id" json:"client_id"`
	Status           string  `db:"status" json:"status"`
	InspectionDate   string  `db:"inspection_date" json:"inspection_date"`
	BuildingType     string  `db:"building_type" json:"building_type"`
	ConstructionYear int     `db:"construction_year" json:"construction_year,omitempty"`
	RoofArea         float64 `db:"roof_area" json:"roof_area"`
	LastMaintenance  string  `db:"last_maintenance" json:"last_maintenance,omitempty"`
	MainIssue        string  `db:"main_issue" json:"main_issue,omitempty"`
	CreatedAt        string  `db:"created_at" json:"created_at"`
	UpdatedAt        string  `db:"updated_at" json:"updated_at"`
	Synced           bool    `db:"synced" json:"synced"`
}

// TableName returns the table name for Inspection.
func (Inspection) TableName() string {
	return EntityInspection.Table()
}

// InspectionPatch carries a partial update; nil fields are left untouched.
// ClientID is deliberately not patchable: inspections do not move between
// clients, they are deleted and recreated.
type InspectionPatch struct {
	Status           *string  `json:"status,omitempty"`
	InspectionDate   *string  `json:"inspection_date,omitempty"`
	BuildingType     *string  `json:"building_type,omitempty"`
	ConstructionYear *int     `json:"construction_year,omitempty"`
	RoofArea         *float64 `json:"roof_area,omitempty"`
	LastMaintenance  *string  `json:"last_maintenance,omitempty"`
	MainIssue        *string  `json:"main_issue,omitempty"`
}

// Apply merges the patch into in.
func (p *InspectionPatch) Apply(in *Inspection) {
	if p.Status != nil {
		in.Status = *p.Status
	}
	if p.InspectionDate != nil {
		in.InspectionDate = *p.InspectionDate
	}
	if p.BuildingType != nil {
		in.BuildingType = *p.BuildingType
	}
	if p.ConstructionYear != nil {
		in.ConstructionYear = *p.ConstructionYear
	}
	if p.RoofArea != nil {
		in.RoofArea = *p.RoofArea
	}
	if p.LastMaintenance != nil {
		in.LastMaintenance = *p.LastMaintenance
	}
	if p.MainIssue != nil {
		in.MainIssue = *p.MainIssue
	}
}
