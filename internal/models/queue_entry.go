package models

import "encoding/json"

// Op is the kind of mutation a queue entry carries to the remote backend.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Valid reports whether op is one of the three known operations.
func (op Op) Valid() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

// QueueEntry is one pending mutation in the durable sync queue.
//
// Entries are drained strictly in ascending Seq order, which preserves
// causal order for operations touching the same record. Data is the full
// record snapshot taken at enqueue time; for deletes it is the pre-delete
// snapshot kept for audit.
type QueueEntry struct {
	Seq         int64           `db:"seq" json:"seq"`
	Op          Op              `db:"operation" json:"operation"`
	Table       string          `db:"entity_table" json:"entity_table"`
	RecordID    string          `db:"record_id" json:"record_id"`
	Data        json.RawMessage `db:"data" json:"data"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	Attempts    int             `db:"attempts" json:"attempts"`
	LastAttempt string          `db:"last_attempt" json:"last_attempt,omitempty"`
	Error       string          `db:"error" json:"error,omitempty"`
}

// TableName returns the table name for QueueEntry.
func (QueueEntry) TableName() string {
	return "sync_queue"
}

// Entity resolves the entry's persisted table name to its Entity.
func (q *QueueEntry) Entity() (Entity, error) {
	return EntityByTable(q.Table)
}
