/*
store.go - Persistence interface for household state

PURPOSE:
  Defines the boundary between the household service and the database.
  Day ledgers are stored whole: the engine returns a new *DayLog for every
  change, and the store replaces the row for (childID, date).

UNIQUENESS:
  At most one ledger per (childID, date). SaveDayLog overwrites.

ATOMIC WRITES:
  A mutation touches both the ledger and the child's lifetime XP. TxStore
  runs both writes in one transaction so a crash never leaves XP counted
  without its ledger (or the reverse).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:     Production SQLite
  - household/store/memory.go:  In-memory for testing

SEE ALSO:
  - service.go: The only caller
*/
package household

import (
	"context"

	"github.com/warp/quest-engine/daylog"
)

// Store persists children, templates, settings and day ledgers.
type Store interface {
	SaveChild(ctx context.Context, c Child) error
	// GetChild returns generic.ErrChildNotFound if missing.
	GetChild(ctx context.Context, id string) (*Child, error)
	// ListChildren returns children in creation order.
	ListChildren(ctx context.Context) ([]Child, error)
	// DeleteChild removes the child and every ledger it owns.
	DeleteChild(ctx context.Context, id string) error

	// LoadTemplates returns nil when no table was ever saved.
	LoadTemplates(ctx context.Context) (*daylog.TemplateSet, error)
	SaveTemplates(ctx context.Context, t daylog.TemplateSet) error

	// LoadSettings returns nil when no settings were ever saved.
	LoadSettings(ctx context.Context) (*daylog.Settings, error)
	SaveSettings(ctx context.Context, s daylog.Settings) error

	// GetDayLog returns generic.ErrDayLogNotFound if missing.
	GetDayLog(ctx context.Context, childID, date string) (*daylog.DayLog, error)
	// ListDayLogs returns every ledger of childID keyed by date.
	ListDayLogs(ctx context.Context, childID string) (map[string]*daylog.DayLog, error)
	// SaveDayLog inserts or replaces the ledger for (childID, l.Date).
	SaveDayLog(ctx context.Context, childID string, l *daylog.DayLog) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the Store it was
	// handed is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
