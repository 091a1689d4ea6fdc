/*
Package sqlite provides a SQLite-backed implementation of household.TxStore.

PURPOSE:
  Durable storage for children, the template table, settings and day
  ledgers. Ledgers are stored whole as JSON, exactly as the engine produced
  them; a few scalar columns are lifted out for indexing and inspection.

KEY TABLES:
  children:   One row per child; inventory and curse as JSON
  templates:  Single row holding the TemplateSet document
  settings:   Single row holding the Settings document
  day_logs:   One row per (child_id, date), ledger as JSON

UNIQUENESS:
  PRIMARY KEY(child_id, date) on day_logs enforces one ledger per child per
  date. SaveDayLog upserts.

CASCADES:
  Deleting a child deletes its ledgers (ON DELETE CASCADE, foreign keys on).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole transaction and routes every call through the sql.Tx.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/quest.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := household.NewService(store)

SEE ALSO:
  - household/store.go: Interface definitions
  - household/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/household"
)

// Store implements household.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ household.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS children (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT '',
		xp INTEGER NOT NULL DEFAULT 0,
		base_time INTEGER,
		max_time INTEGER,
		inventory_json TEXT NOT NULL DEFAULT '[]',
		curse_json TEXT NOT NULL DEFAULT '{}',
		negotiation_json TEXT NOT NULL DEFAULT 'null',
		created_at TEXT NOT NULL
	);

	-- Single-row documents
	CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		body_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		body_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One ledger per child per date
	CREATE TABLE IF NOT EXISTS day_logs (
		child_id TEXT NOT NULL REFERENCES children(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		is_compacted INTEGER NOT NULL DEFAULT 0,
		xp_earned INTEGER NOT NULL DEFAULT 0,
		minutes_left INTEGER NOT NULL DEFAULT 0,
		log_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (child_id, date)
	);

	-- Compaction sweeps by age
	CREATE INDEX IF NOT EXISTS idx_day_logs_compaction
		ON day_logs(is_compacted, date);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	// Databases created before curse negotiations
	return s.addColumn("children", "negotiation_json", "TEXT NOT NULL DEFAULT 'null'")
}

// addColumn adds column to table unless it is already there.
func (s *Store) addColumn(table, column, decl string) error {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	_, err = s.db.Exec("ALTER TABLE " + table + " ADD COLUMN " + column + " " + decl)
	return err
}

// =============================================================================
// STORE (household.Store interface)
// =============================================================================

func (s *Store) SaveChild(ctx context.Context, c household.Child) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queries{s.db}.saveChild(ctx, c)
}

func (s *Store) GetChild(ctx context.Context, id string) (*household.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.getChild(ctx, id)
}

func (s *Store) ListChildren(ctx context.Context) ([]household.Child, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.listChildren(ctx)
}

func (s *Store) DeleteChild(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queries{s.db}.deleteChild(ctx, id)
}

func (s *Store) LoadTemplates(ctx context.Context) (*daylog.TemplateSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t daylog.TemplateSet
	found, err := queries{s.db}.loadDocument(ctx, "templates", &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (s *Store) SaveTemplates(ctx context.Context, t daylog.TemplateSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queries{s.db}.saveDocument(ctx, "templates", t)
}

func (s *Store) LoadSettings(ctx context.Context) (*daylog.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st daylog.Settings
	found, err := queries{s.db}.loadDocument(ctx, "settings", &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st daylog.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queries{s.db}.saveDocument(ctx, "settings", st)
}

func (s *Store) GetDayLog(ctx context.Context, childID, date string) (*daylog.DayLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.getDayLog(ctx, childID, date)
}

func (s *Store) ListDayLogs(ctx context.Context, childID string) (map[string]*daylog.DayLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queries{s.db}.listDayLogs(ctx, childID)
}

func (s *Store) SaveDayLog(ctx context.Context, childID string, l *daylog.DayLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queries{s.db}.saveDayLog(ctx, childID, l)
}

// =============================================================================
// TRANSACTIONAL STORE (household.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store household.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: queries{sqlTx}}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	q queries
}

func (ts *txStore) SaveChild(ctx context.Context, c household.Child) error {
	return ts.q.saveChild(ctx, c)
}

func (ts *txStore) GetChild(ctx context.Context, id string) (*household.Child, error) {
	return ts.q.getChild(ctx, id)
}

func (ts *txStore) ListChildren(ctx context.Context) ([]household.Child, error) {
	return ts.q.listChildren(ctx)
}

func (ts *txStore) DeleteChild(ctx context.Context, id string) error {
	return ts.q.deleteChild(ctx, id)
}

func (ts *txStore) LoadTemplates(ctx context.Context) (*daylog.TemplateSet, error) {
	var t daylog.TemplateSet
	found, err := ts.q.loadDocument(ctx, "templates", &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

func (ts *txStore) SaveTemplates(ctx context.Context, t daylog.TemplateSet) error {
	return ts.q.saveDocument(ctx, "templates", t)
}

func (ts *txStore) LoadSettings(ctx context.Context) (*daylog.Settings, error) {
	var st daylog.Settings
	found, err := ts.q.loadDocument(ctx, "settings", &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

func (ts *txStore) SaveSettings(ctx context.Context, st daylog.Settings) error {
	return ts.q.saveDocument(ctx, "settings", st)
}

func (ts *txStore) GetDayLog(ctx context.Context, childID, date string) (*daylog.DayLog, error) {
	return ts.q.getDayLog(ctx, childID, date)
}

func (ts *txStore) ListDayLogs(ctx context.Context, childID string) (map[string]*daylog.DayLog, error) {
	return ts.q.listDayLogs(ctx, childID)
}

func (ts *txStore) SaveDayLog(ctx context.Context, childID string, l *daylog.DayLog) error {
	return ts.q.saveDayLog(ctx, childID, l)
}

// =============================================================================
// QUERIES - shared by Store and txStore
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db querier
}

func (q queries) saveChild(ctx context.Context, c household.Child) error {
	inventory := c.Inventory
	if inventory == nil {
		inventory = []household.Voucher{}
	}
	inventoryJSON, err := json.Marshal(inventory)
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	curseJSON, err := json.Marshal(c.Curse)
	if err != nil {
		return fmt.Errorf("encode curse: %w", err)
	}
	negotiationJSON, err := json.Marshal(c.Negotiation)
	if err != nil {
		return fmt.Errorf("encode negotiation: %w", err)
	}

	query := `
		INSERT INTO children (id, name, avatar, xp, base_time, max_time, inventory_json, curse_json, negotiation_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			avatar = excluded.avatar,
			xp = excluded.xp,
			base_time = excluded.base_time,
			max_time = excluded.max_time,
			inventory_json = excluded.inventory_json,
			curse_json = excluded.curse_json,
			negotiation_json = excluded.negotiation_json
	`
	_, err = q.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Avatar, c.XP,
		nullInt(c.BaseTime), nullInt(c.MaxTime),
		string(inventoryJSON), string(curseJSON), string(negotiationJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save child: %w", err)
	}
	return nil
}

const childColumns = "id, name, avatar, xp, base_time, max_time, inventory_json, curse_json, negotiation_json"

func (q queries) getChild(ctx context.Context, id string) (*household.Child, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+childColumns+" FROM children WHERE id = ?", id)
	c, err := scanChild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, generic.ErrChildNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q queries) listChildren(ctx context.Context) ([]household.Child, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT "+childColumns+" FROM children ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	children := []household.Child{}
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

func (q queries) deleteChild(ctx context.Context, id string) error {
	// day_logs cascade
	_, err := q.db.ExecContext(ctx, "DELETE FROM children WHERE id = ?", id)
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChild(r rowScanner) (household.Child, error) {
	var c household.Child
	var baseTime, maxTime sql.NullInt64
	var inventoryJSON, curseJSON, negotiationJSON string
	if err := r.Scan(&c.ID, &c.Name, &c.Avatar, &c.XP, &baseTime, &maxTime, &inventoryJSON, &curseJSON, &negotiationJSON); err != nil {
		return household.Child{}, err
	}
	c.BaseTime = intPtr(baseTime)
	c.MaxTime = intPtr(maxTime)
	if err := json.Unmarshal([]byte(inventoryJSON), &c.Inventory); err != nil {
		return household.Child{}, fmt.Errorf("decode inventory of %s: %w", c.ID, err)
	}
	if c.Inventory == nil {
		c.Inventory = []household.Voucher{}
	}
	if err := json.Unmarshal([]byte(curseJSON), &c.Curse); err != nil {
		return household.Child{}, fmt.Errorf("decode curse of %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(negotiationJSON), &c.Negotiation); err != nil {
		return household.Child{}, fmt.Errorf("decode negotiation of %s: %w", c.ID, err)
	}
	return c, nil
}

// loadDocument reads the single row of table into dst.
func (q queries) loadDocument(ctx context.Context, table string, dst any) (bool, error) {
	var body string
	err := q.db.QueryRowContext(ctx, "SELECT body_json FROM "+table+" WHERE id = 1").Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", table, err)
	}
	return true, nil
}

func (q queries) saveDocument(ctx context.Context, table string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", table, err)
	}
	query := `INSERT INTO ` + table + ` (id, body_json, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body_json = excluded.body_json, updated_at = excluded.updated_at`
	if _, err := q.db.ExecContext(ctx, query, string(body), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	return nil
}

func (q queries) getDayLog(ctx context.Context, childID, date string) (*daylog.DayLog, error) {
	var body string
	err := q.db.QueryRowContext(ctx,
		"SELECT log_json FROM day_logs WHERE child_id = ? AND date = ?",
		childID, date,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", childID, date, generic.ErrDayLogNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeDayLog(body)
}

func (q queries) listDayLogs(ctx context.Context, childID string) (map[string]*daylog.DayLog, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT date, log_json FROM day_logs WHERE child_id = ? ORDER BY date",
		childID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make(map[string]*daylog.DayLog)
	for rows.Next() {
		var date, body string
		if err := rows.Scan(&date, &body); err != nil {
			return nil, err
		}
		l, err := decodeDayLog(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", childID, date, err)
		}
		logs[date] = l
	}
	return logs, rows.Err()
}

func (q queries) saveDayLog(ctx context.Context, childID string, l *daylog.DayLog) error {
	if l == nil || !generic.ValidDate(l.Date) {
		return generic.ErrInvalidDate
	}
	body, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode day log: %w", err)
	}

	query := `
		INSERT INTO day_logs (child_id, date, is_compacted, xp_earned, minutes_left, log_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(child_id, date) DO UPDATE SET
			is_compacted = excluded.is_compacted,
			xp_earned = excluded.xp_earned,
			minutes_left = excluded.minutes_left,
			log_json = excluded.log_json,
			updated_at = excluded.updated_at
	`
	_, err = q.db.ExecContext(ctx, query,
		childID, l.Date, l.IsCompacted, l.XPEarned, l.CurrentTime,
		string(body), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save day log: %w", err)
	}
	return nil
}

func decodeDayLog(body string) (*daylog.DayLog, error) {
	var l daylog.DayLog
	if err := json.Unmarshal([]byte(body), &l); err != nil {
		return nil, fmt.Errorf("decode day log: %w", err)
	}
	return &l, nil
}

// Helper functions

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
