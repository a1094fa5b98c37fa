package models

// Client represents a customer whose roofs get inspected.
// Timestamps are RFC3339 UTC strings so they compare the same way the
// remote backend orders its updated_at column.
type Client struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Type         string `db:"type" json:"type"`
	Address      string `db:"address" json:"address"`
	City         string `db:"city" json:"city"`
	State        string `db:"state" json:"state"`
	ZipCode      string `db:"zip_code" json:"zip_code"`
	ContactName  string `db:"contact_name" json:"contact_name,omitempty"`
	ContactPhone string `db:"contact_phone" json:"contact_phone,omitempty"`
	ContactEmail string `db:"contact_email" json:"contact_email,omitempty"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	UpdatedAt    string `db:"updated_at" json:"updated_at"`
	Synced       bool   `db:"synced" json:"synced"`
}

// TableName returns the table name for Client.
func (Client) TableName() string {
	return EntityClient.Table()
}

// ClientPatch carries a partial update; nil fields are left untouched.
type ClientPatch struct {
	Name         *string `json:"name,omitempty"`
	Type         *string `json:"type,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	ZipCode      *string `json:"zip_code,omitempty"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
}

// Apply merges the patch into c.
func (p *ClientPatch) Apply(c *Client) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.City != nil {
		c.City = *p.City
	}
	if p.State != nil {
		c.State = *p.State
	}
	if p.ZipCode != nil {
		c.ZipCode = *p.ZipCode
	}
	if p.ContactName != nil {
		c.ContactName = *p.ContactName
	}
	if p.ContactPhone != nil {
		c.ContactPhone = *p.ContactPhone
	}
	if p.ContactEmail != nil {
		c.ContactEmail = *p.ContactEmail
	}
}
