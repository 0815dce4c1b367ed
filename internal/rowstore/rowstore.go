package rowstore

import (
	"context"
	"errors"
	"strings"
)

// Tables are identified by name; each table's first row is a header whose
// column names map 1:1 to record fields.
const (
	TablePayments       = "payments"
	TableAuditLog       = "audit_log"
	TableReminderLedger = "reminder_ledger"
	TableConfig         = "config"
	TableCards          = "cards"
	TablePeople         = "people"
	TableAllocations    = "allocations"
	TableLoads          = "loads"
	TableEvents         = "events"
	TableAttachments    = "attachments"
)

// Record is a single row keyed by header column names. All cell values are
// strings; typed entities parse what they need.
type Record map[string]string

func (r Record) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Clone returns a shallow copy so callers can patch without aliasing.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ErrRowNotFound is returned by FindByID and UpdateRowByID when no row
// matches the given id.
var ErrRowNotFound = errors.New("row not found")

// Store is the generic keyed row store the services are written against.
// Implementations: Google Sheets (production), GORM (postgres/sqlite) and an
// in-process memory store.
type Store interface {
	GetRows(ctx context.Context, table string) ([]Record, error)
	AppendRow(ctx context.Context, table string, record Record) error
	UpdateRowByID(ctx context.Context, table, keyColumn, id string, patch Record) error
	DeleteRowByID(ctx context.Context, table, keyColumn, id string) error
	FindByID(ctx context.Context, table, keyColumn, id string) (Record, error)
}

// CachedStore adds the short-TTL read path used by list views. Writes through
// any implementation must invalidate the table's cached rows.
type CachedStore interface {
	Store
	GetRowsCached(ctx context.Context, table string) ([]Record, error)
}

func matchesID(record Record, keyColumn, id string) bool {
	return record.Get(keyColumn) == strings.TrimSpace(id)
}
