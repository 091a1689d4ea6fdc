// Package store provides household.Store implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/household"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps household state in maps. Ledgers are stored by pointer; the
// engine never modifies a ledger in place, so sharing them is safe.
type Memory struct {
	mu   sync.RWMutex
	data memoryData
}

type memoryData struct {
	children  []household.Child
	templates *daylog.TemplateSet
	settings  *daylog.Settings
	logs      map[string]map[string]*daylog.DayLog // childID -> date -> ledger
}

var _ household.TxStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: memoryData{logs: make(map[string]map[string]*daylog.DayLog)}}
}

func (m *Memory) SaveChild(ctx context.Context, c household.Child) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.saveChild(c)
}

func (m *Memory) GetChild(ctx context.Context, id string) (*household.Child, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getChild(id)
}

func (m *Memory) ListChildren(ctx context.Context) ([]household.Child, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listChildren(), nil
}

func (m *Memory) DeleteChild(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.deleteChild(id)
	return nil
}

func (m *Memory) LoadTemplates(ctx context.Context) (*daylog.TemplateSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.loadTemplates(), nil
}

func (m *Memory) SaveTemplates(ctx context.Context, t daylog.TemplateSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.saveTemplates(t)
	return nil
}

func (m *Memory) LoadSettings(ctx context.Context) (*daylog.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.loadSettings(), nil
}

func (m *Memory) SaveSettings(ctx context.Context, s daylog.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.saveSettings(s)
	return nil
}

func (m *Memory) GetDayLog(ctx context.Context, childID, date string) (*daylog.DayLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.getDayLog(childID, date)
}

func (m *Memory) ListDayLogs(ctx context.Context, childID string) (map[string]*daylog.DayLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.listDayLogs(childID), nil
}

func (m *Memory) SaveDayLog(ctx context.Context, childID string, l *daylog.DayLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.saveDayLog(childID, l)
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(household.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.snapshot()
	if err := fn(&txMemoryView{data: &m.data}); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// =============================================================================
// UNLOCKED OPERATIONS - shared by Memory and the transactional view
// =============================================================================

func (d *memoryData) saveChild(c household.Child) error {
	if c.ID == "" {
		return fmt.Errorf("save child: empty id")
	}
	c = c.Clone()
	for i := range d.children {
		if d.children[i].ID == c.ID {
			d.children[i] = c
			return nil
		}
	}
	d.children = append(d.children, c)
	return nil
}

func (d *memoryData) getChild(id string) (*household.Child, error) {
	for _, c := range d.children {
		if c.ID == id {
			out := c.Clone()
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, generic.ErrChildNotFound)
}

func (d *memoryData) listChildren() []household.Child {
	out := make([]household.Child, len(d.children))
	for i, c := range d.children {
		out[i] = c.Clone()
	}
	return out
}

func (d *memoryData) deleteChild(id string) {
	for i := range d.children {
		if d.children[i].ID == id {
			d.children = append(d.children[:i:i], d.children[i+1:]...)
			break
		}
	}
	delete(d.logs, id)
}

func (d *memoryData) loadTemplates() *daylog.TemplateSet {
	if d.templates == nil {
		return nil
	}
	t := d.templates.Clone()
	return &t
}

func (d *memoryData) saveTemplates(t daylog.TemplateSet) {
	c := t.Clone()
	d.templates = &c
}

func (d *memoryData) loadSettings() *daylog.Settings {
	if d.settings == nil {
		return nil
	}
	s := d.settings.Clone()
	return &s
}

func (d *memoryData) saveSettings(s daylog.Settings) {
	c := s.Clone()
	d.settings = &c
}

func (d *memoryData) getDayLog(childID, date string) (*daylog.DayLog, error) {
	if l, ok := d.logs[childID][date]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%s %s: %w", childID, date, generic.ErrDayLogNotFound)
}

func (d *memoryData) listDayLogs(childID string) map[string]*daylog.DayLog {
	out := make(map[string]*daylog.DayLog, len(d.logs[childID]))
	for date, l := range d.logs[childID] {
		out[date] = l
	}
	return out
}

func (d *memoryData) saveDayLog(childID string, l *daylog.DayLog) error {
	if l == nil || !generic.ValidDate(l.Date) {
		return generic.ErrInvalidDate
	}
	byDate := d.logs[childID]
	if byDate == nil {
		byDate = make(map[string]*daylog.DayLog)
		d.logs[childID] = byDate
	}
	byDate[l.Date] = l
	return nil
}

// snapshot copies everything a rollback must restore. Ledger pointers are
// shared because ledgers are immutable.
func (d *memoryData) snapshot() memoryData {
	out := memoryData{
		children:  make([]household.Child, len(d.children)),
		templates: d.templates,
		settings:  d.settings,
		logs:      make(map[string]map[string]*daylog.DayLog, len(d.logs)),
	}
	for i, c := range d.children {
		out.children[i] = c.Clone()
	}
	for child, byDate := range d.logs {
		cp := make(map[string]*daylog.DayLog, len(byDate))
		for date, l := range byDate {
			cp[date] = l
		}
		out.logs[child] = cp
	}
	return out
}

// =============================================================================
// TRANSACTIONAL VIEW - runs with the parent's lock already held
// =============================================================================

type txMemoryView struct {
	data *memoryData
}

func (tv *txMemoryView) SaveChild(_ context.Context, c household.Child) error {
	return tv.data.saveChild(c)
}

func (tv *txMemoryView) GetChild(_ context.Context, id string) (*household.Child, error) {
	return tv.data.getChild(id)
}

func (tv *txMemoryView) ListChildren(_ context.Context) ([]household.Child, error) {
	return tv.data.listChildren(), nil
}

func (tv *txMemoryView) DeleteChild(_ context.Context, id string) error {
	tv.data.deleteChild(id)
	return nil
}

func (tv *txMemoryView) LoadTemplates(_ context.Context) (*daylog.TemplateSet, error) {
	return tv.data.loadTemplates(), nil
}

func (tv *txMemoryView) SaveTemplates(_ context.Context, t daylog.TemplateSet) error {
	tv.data.saveTemplates(t)
	return nil
}

func (tv *txMemoryView) LoadSettings(_ context.Context) (*daylog.Settings, error) {
	return tv.data.loadSettings(), nil
}

func (tv *txMemoryView) SaveSettings(_ context.Context, s daylog.Settings) error {
	tv.data.saveSettings(s)
	return nil
}

func (tv *txMemoryView) GetDayLog(_ context.Context, childID, date string) (*daylog.DayLog, error) {
	return tv.data.getDayLog(childID, date)
}

func (tv *txMemoryView) ListDayLogs(_ context.Context, childID string) (map[string]*daylog.DayLog, error) {
	return tv.data.listDayLogs(childID), nil
}

func (tv *txMemoryView) SaveDayLog(_ context.Context, childID string, l *daylog.DayLog) error {
	return tv.data.saveDayLog(childID, l)
}
