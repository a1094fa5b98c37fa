// Package models provides data model definitions for fieldsync.
package models

import "fmt"

// Entity identifies one of the synchronized entity types.
//
// The sync engine never dispatches on free-form table-name strings; every
// entity is registered here with its local and remote table names, and
// unknown names fail at decode time instead of at dispatch time.
type Entity int

const (
	EntityClient Entity = iota
	EntityInspection
	EntityComponent
	EntityNonconformity
	EntityPhoto
)

// Entities is the fixed iteration order used by the pull phase.
// Parents come before children so freshly pulled rows satisfy
// foreign key constraints.
var Entities = [...]Entity{
	EntityClient,
	EntityInspection,
	EntityComponent,
	EntityNonconformity,
	EntityPhoto,
}

// entityTables maps each entity to its table name. Local and remote
// tables share names, matching the backend's row-oriented schema.
var entityTables = map[Entity]string{
	EntityClient:        "clients",
	EntityInspection:    "inspections",
	EntityComponent:     "inspection_components",
	EntityNonconformity: "nonconformities",
	EntityPhoto:         "inspection_photos",
}

// Table returns the table name for the entity.
func (e Entity) Table() string {
	return entityTables[e]
}

// String returns the table name; entities are logged by table.
func (e Entity) String() string {
	return entityTables[e]
}

// Valid reports whether e is a registered entity.
func (e Entity) Valid() bool {
	_, ok := entityTables[e]
	return ok
}

// EntityByTable resolves a persisted table name back to its Entity.
// Returns an error for unregistered names (e.g. a queue row written
// by a newer schema).
func EntityByTable(table string) (Entity, error) {
	for e, t := range entityTables {
		if t == table {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown entity table: %q", table)
}
