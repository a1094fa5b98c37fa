package models

import (
	"testing"
	"time"
)

func TestEntityTableRoundtrip(t *testing.T) {
	for _, entity := range Entities {
		got, err := EntityByTable(entity.Table())
		if err != nil {
			t.Fatalf("EntityByTable(%q): %v", entity.Table(), err)
		}
		if got != entity {
			t.Errorf("EntityByTable(%q) = %v, want %v", entity.Table(), got, entity)
		}
	}

	if _, err := EntityByTable("memos"); err == nil {
		t.Error("unknown table should not resolve to an entity")
	}
}

func TestEntitiesOrderParentsFirst(t *testing.T) {
	index := make(map[Entity]int, len(Entities))
	for i, e := range Entities {
		index[e] = i
	}
	if index[EntityClient] > index[EntityInspection] {
		t.Error("clients must come before inspections")
	}
	if index[EntityInspection] > index[EntityComponent] ||
		index[EntityInspection] > index[EntityNonconformity] ||
		index[EntityInspection] > index[EntityPhoto] {
		t.Error("inspections must come before their children")
	}
}

func TestFormatTimeIsLexicographicallySortable(t *testing.T) {
	earlier := FormatTime(time.Date(2026, 8, 20, 9, 59, 59, 999e6, time.UTC))
	later := FormatTime(time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC))

	if len(earlier) != len(later) {
		t.Fatalf("timestamps must be fixed width: %q vs %q", earlier, later)
	}
	if !(earlier < later) {
		t.Errorf("string order must match time order: %q vs %q", earlier, later)
	}

	parsed, err := ParseTime(later)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if FormatTime(parsed) != later {
		t.Errorf("roundtrip changed the value: %q -> %q", later, FormatTime(parsed))
	}
}

func TestFormatTimeNormalizesToUTC(t *testing.T) {
	lisbon := time.FixedZone("WEST", 3600)
	local := time.Date(2026, 8, 20, 11, 0, 0, 0, lisbon)
	if got := FormatTime(local); got != "2026-08-20T10:00:00.000Z" {
		t.Errorf("FormatTime = %q, want UTC-normalized value", got)
	}
}

func TestClientPatchAppliesOnlySetFields(t *testing.T) {
	c := &Client{Name: "Acme", City: "Porto", ContactPhone: "911111111"}

	city := "Braga"
	empty := ""
	patch := &ClientPatch{City: &city, ContactPhone: &empty}
	patch.Apply(c)

	if c.City != "Braga" {
		t.Errorf("city = %q, want Braga", c.City)
	}
	if c.ContactPhone != "" {
		t.Error("explicit empty value must clear the field")
	}
	if c.Name != "Acme" {
		t.Errorf("unset field changed: name = %q", c.Name)
	}
}

func TestOpValid(t *testing.T) {
	for _, op := range []Op{OpCreate, OpUpdate, OpDelete} {
		if !op.Valid() {
			t.Errorf("%q should be valid", op)
		}
	}
	if Op("upsert").Valid() {
		t.Error("unknown op should be invalid")
	}
}

func TestQueueEntryEntity(t *testing.T) {
	entry := &QueueEntry{Table: "inspection_photos"}
	entity, err := entry.Entity()
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	if entity != EntityPhoto {
		t.Errorf("entity = %v, want %v", entity, EntityPhoto)
	}

	entry.Table = "unknown"
	if _, err := entry.Entity(); err == nil {
		t.Error("unknown table should error")
	}
}
