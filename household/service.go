/*
service.go - Household operations over the day-log engine

PURPOSE:
  The single owner of household state. Every write goes through here and
  follows the same shape:

    lock -> load latest -> apply pure engine function -> persist if changed

  The engine in package daylog never sees the store and never fails. This
  layer adds the failure modes: missing child, bad date, ineligible action,
  compacted ledger, store errors.

DAY LEDGERS:
  GetOrCreateDayLog is idempotent per (child, date). The "previous" ledger
  handed to the factory is the child's most recent stored ledger before the
  date; the factory itself ignores it unless it is exactly yesterday.

LIFETIME XP:
  Mutate adds the change in the ledger's xpEarned to the child's lifetime
  XP, floored at 0, in the same transaction as the ledger write.

CONCURRENCY:
  Writes are serialized by one mutex. Reads go straight to the store.

SEE ALSO:
  - daylog/:   The engine
  - store.go:  Persistence contract
  - api/:      HTTP surface
*/
package household

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/logging"
)

// Service implements household operations on top of a TxStore.
type Service struct {
	store TxStore
	mu    sync.Mutex
	now   func() time.Time

	// OnLedgerCreated, when set, is called after a transaction that created
	// a day ledger commits.
	OnLedgerCreated func(childID, date string)
}

// NewService creates a Service backed by store.
func NewService(store TxStore) *Service {
	return &Service{store: store, now: time.Now}
}

// =============================================================================
// CHILDREN
// =============================================================================

// AddChild registers a new child with zero XP and household time limits.
func (s *Service) AddChild(ctx context.Context, name, avatar string) (Child, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Child{}, invalidInput("name", "required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := Child{
		ID:        generic.NewID(),
		Name:      name,
		Avatar:    avatar,
		Inventory: []Voucher{},
		Curse:     inactiveCurse(),
	}
	if err := s.store.SaveChild(ctx, c); err != nil {
		return Child{}, fmt.Errorf("save child: %w", err)
	}
	logging.Info("child added", "child", c.ID, "name", c.Name)
	return c, nil
}

// GetChild returns a child by id.
func (s *Service) GetChild(ctx context.Context, id string) (Child, error) {
	c, err := s.store.GetChild(ctx, id)
	if err != nil {
		return Child{}, err
	}
	return *c, nil
}

// ListChildren returns every child in creation order.
func (s *Service) ListChildren(ctx context.Context) ([]Child, error) {
	return s.store.ListChildren(ctx)
}

// UpdateChild applies patch to a child.
func (s *Service) UpdateChild(ctx context.Context, id string, patch ChildPatch) (Child, error) {
	return s.editChild(ctx, id, func(c *Child) error {
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return invalidInput("name", "required")
			}
			c.Name = name
		}
		if patch.Avatar != nil {
			c.Avatar = *patch.Avatar
		}
		if patch.ClearLimits {
			c.BaseTime, c.MaxTime = nil, nil
		}
		if patch.BaseTime != nil {
			v := *patch.BaseTime
			c.BaseTime = &v
		}
		if patch.MaxTime != nil {
			v := *patch.MaxTime
			c.MaxTime = &v
		}
		if c.BaseTime != nil && *c.BaseTime < 0 {
			return invalidInput("baseTime", "must be >= 0")
		}
		if c.BaseTime != nil && c.MaxTime != nil && *c.MaxTime < *c.BaseTime {
			return invalidInput("maxTime", "must be >= baseTime")
		}
		return nil
	})
}

// RemoveChild deletes a child together with its ledgers.
func (s *Service) RemoveChild(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetChild(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteChild(ctx, id); err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	logging.Info("child removed", "child", id)
	return nil
}

// editChild loads, edits and saves one child under the write lock.
func (s *Service) editChild(ctx context.Context, id string, fn func(*Child) error) (Child, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.GetChild(ctx, id)
	if err != nil {
		return Child{}, err
	}
	c := stored.Clone()
	if err := fn(&c); err != nil {
		return Child{}, err
	}
	if err := s.store.SaveChild(ctx, c); err != nil {
		return Child{}, fmt.Errorf("save child: %w", err)
	}
	return c, nil
}

// =============================================================================
// TEMPLATES & SETTINGS
// =============================================================================

// Templates returns the household template table, or the stock table if
// none was saved yet.
func (s *Service) Templates(ctx context.Context) (daylog.TemplateSet, error) {
	return loadTemplates(ctx, s.store)
}

// ReplaceTemplates overwrites the whole template table.
func (s *Service) ReplaceTemplates(ctx context.Context, t daylog.TemplateSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveTemplates(ctx, t); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}

// AddQuest adds q, replacing any quest with the same id.
func (s *Service) AddQuest(ctx context.Context, q daylog.QuestTemplate) (daylog.TemplateSet, error) {
	return s.editTemplates(ctx, func(t *daylog.TemplateSet) error {
		t.UpsertQuest(q)
		return nil
	})
}

// AddBonusMission adds m, replacing any mission with the same id.
func (s *Service) AddBonusMission(ctx context.Context, m daylog.BonusMissionTemplate) (daylog.TemplateSet, error) {
	return s.editTemplates(ctx, func(t *daylog.TemplateSet) error {
		t.UpsertBonusMission(m)
		return nil
	})
}

// AddPenalty adds p, replacing any penalty with the same id.
func (s *Service) AddPenalty(ctx context.Context, p daylog.PenaltyTemplate) (daylog.TemplateSet, error) {
	return s.editTemplates(ctx, func(t *daylog.TemplateSet) error {
		t.UpsertPenalty(p)
		return nil
	})
}

// RemoveTemplate deletes one template. Ledgers already stamped keep their
// copies.
func (s *Service) RemoveTemplate(ctx context.Context, kind daylog.TemplateKind, id string) (daylog.TemplateSet, error) {
	if !kind.Valid() {
		return daylog.TemplateSet{}, &generic.ValidationError{Field: "kind", Message: "unknown template kind " + string(kind), Kind: generic.ErrInvalidTemplate}
	}
	return s.editTemplates(ctx, func(t *daylog.TemplateSet) error {
		if !t.Remove(kind, id) {
			return fmt.Errorf("%s %s: %w", kind, id, generic.ErrTemplateNotFound)
		}
		return nil
	})
}

func (s *Service) editTemplates(ctx context.Context, fn func(*daylog.TemplateSet) error) (daylog.TemplateSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := loadTemplates(ctx, s.store)
	if err != nil {
		return daylog.TemplateSet{}, err
	}
	t := current.Clone()
	if err := fn(&t); err != nil {
		return daylog.TemplateSet{}, err
	}
	if err := s.store.SaveTemplates(ctx, t); err != nil {
		return daylog.TemplateSet{}, fmt.Errorf("save templates: %w", err)
	}
	return t, nil
}

// Settings returns the household settings, or the defaults if none were
// saved yet.
func (s *Service) Settings(ctx context.Context) (daylog.Settings, error) {
	return loadSettings(ctx, s.store)
}

// UpdateSettings validates and stores settings. Existing ledgers are not
// touched; see SyncOffline.
func (s *Service) UpdateSettings(ctx context.Context, settings daylog.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func loadTemplates(ctx context.Context, st Store) (daylog.TemplateSet, error) {
	t, err := st.LoadTemplates(ctx)
	if err != nil {
		return daylog.TemplateSet{}, fmt.Errorf("load templates: %w", err)
	}
	if t == nil {
		return daylog.DefaultTemplates(), nil
	}
	return *t, nil
}

func loadSettings(ctx context.Context, st Store) (daylog.Settings, error) {
	settings, err := st.LoadSettings(ctx)
	if err != nil {
		return daylog.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if settings == nil {
		return daylog.DefaultSettings(), nil
	}
	return *settings, nil
}

// =============================================================================
// DAY LEDGERS
// =============================================================================

// DayLog returns the stored ledger for (childID, date) without creating it.
func (s *Service) DayLog(ctx context.Context, childID, date string) (*daylog.DayLog, error) {
	if !generic.ValidDate(date) {
		return nil, generic.ErrInvalidDate
	}
	if _, err := s.store.GetChild(ctx, childID); err != nil {
		return nil, err
	}
	return s.store.GetDayLog(ctx, childID, date)
}

// DayLogs returns every stored ledger of childID keyed by date.
func (s *Service) DayLogs(ctx context.Context, childID string) (map[string]*daylog.DayLog, error) {
	if _, err := s.store.GetChild(ctx, childID); err != nil {
		return nil, err
	}
	return s.store.ListDayLogs(ctx, childID)
}

// GetOrCreateDayLog returns the ledger for (childID, date), creating and
// storing it if needed. created reports whether a new ledger was built.
func (s *Service) GetOrCreateDayLog(ctx context.Context, childID, date string) (l *daylog.DayLog, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.store.WithTx(ctx, func(st Store) error {
		var txErr error
		l, created, txErr = getOrCreate(ctx, st, childID, date)
		return txErr
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.ledgerCreated(childID, date)
	}
	return l, created, nil
}

func getOrCreate(ctx context.Context, st Store, childID, date string) (*daylog.DayLog, bool, error) {
	if !generic.ValidDate(date) {
		return nil, false, generic.ErrInvalidDate
	}
	child, err := st.GetChild(ctx, childID)
	if err != nil {
		return nil, false, err
	}

	existing, err := st.GetDayLog(ctx, childID, date)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, generic.ErrDayLogNotFound) {
		return nil, false, fmt.Errorf("load day log: %w", err)
	}

	logs, err := st.ListDayLogs(ctx, childID)
	if err != nil {
		return nil, false, fmt.Errorf("load history: %w", err)
	}
	templates, err := loadTemplates(ctx, st)
	if err != nil {
		return nil, false, err
	}
	settings, err := loadSettings(ctx, st)
	if err != nil {
		return nil, false, err
	}

	prev := daylog.LatestBefore(logs, date)
	l := daylog.CreateDayLog(date, templates, settings.WithLimits(child.BaseTime, child.MaxTime), childID, prev)
	if err := st.SaveDayLog(ctx, childID, l); err != nil {
		return nil, false, fmt.Errorf("save day log: %w", err)
	}

	logging.Info("ledger created", "child", childID, "date", date,
		"baseTime", l.BaseTime, "offline", l.IsOfflineDay, "carryOvers", len(l.CarryOverEffects))
	return l, true, nil
}

// txMutation is a ledger step that may refuse with an error.
type txMutation func(*daylog.DayLog) (*daylog.DayLog, bool, error)

// Mutate applies fn to the ledger for (childID, date), creating the ledger
// first if needed. When fn reports a change the new ledger is stored and
// the child's lifetime XP follows the change in xpEarned.
//
// A compacted ledger yields generic.ErrDayLogCompacted.
func (s *Service) Mutate(ctx context.Context, childID, date string, fn daylog.Mutation) (*daylog.DayLog, bool, error) {
	return s.mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool, error) {
		next, changed := fn(l)
		return next, changed, nil
	})
}

func (s *Service) mutate(ctx context.Context, childID, date string, fn txMutation) (*daylog.DayLog, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out *daylog.DayLog
	var changed, created bool
	err := s.store.WithTx(ctx, func(st Store) error {
		l, isNew, err := getOrCreate(ctx, st, childID, date)
		created = isNew
		if err != nil {
			return err
		}
		if l.IsCompacted {
			return fmt.Errorf("%s %s: %w", childID, date, generic.ErrDayLogCompacted)
		}

		next, ok, err := fn(l)
		if err != nil {
			return err
		}
		out, changed = next, ok
		if !ok {
			return nil
		}

		if err := st.SaveDayLog(ctx, childID, next); err != nil {
			return fmt.Errorf("save day log: %w", err)
		}
		if delta := next.XPEarned - l.XPEarned; delta != 0 {
			child, err := st.GetChild(ctx, childID)
			if err != nil {
				return err
			}
			c := child.Clone()
			c.XP = max(0, c.XP+delta)
			if err := st.SaveChild(ctx, c); err != nil {
				return fmt.Errorf("save child: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.ledgerCreated(childID, date)
	}
	if changed {
		logging.Debug("ledger updated", "child", childID, "date", date,
			"currentTime", out.CurrentTime, "xpEarned", out.XPEarned)
	}
	return out, changed, nil
}

func (s *Service) ledgerCreated(childID, date string) {
	if s.OnLedgerCreated != nil {
		s.OnLedgerCreated(childID, date)
	}
}

// CompleteQuest marks a quest done.
func (s *Service) CompleteQuest(ctx context.Context, childID, date, questID string) (*daylog.DayLog, bool, error) {
	return s.Mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool) {
		return daylog.CompleteQuest(l, questID)
	})
}

// FailQuest marks a quest failed.
func (s *Service) FailQuest(ctx context.Context, childID, date, questID string) (*daylog.DayLog, bool, error) {
	return s.Mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool) {
		return daylog.FailQuest(l, questID)
	})
}

// RevertQuest returns a quest to pending.
func (s *Service) RevertQuest(ctx context.Context, childID, date, questID string) (*daylog.DayLog, bool, error) {
	return s.Mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool) {
		return daylog.RevertQuest(l, questID)
	})
}

// CompleteBonusMission records the bonus mission templateID. The mission
// must be assigned to the child and pass daylog.CanCompleteBonus.
func (s *Service) CompleteBonusMission(ctx context.Context, childID, date, templateID string) (*daylog.DayLog, bool, error) {
	templates, err := s.Templates(ctx)
	if err != nil {
		return nil, false, err
	}
	m, ok := templates.BonusMission(templateID)
	if !ok {
		return nil, false, fmt.Errorf("bonus mission %s: %w", templateID, generic.ErrTemplateNotFound)
	}
	if !daylog.IsAssigned(m.AssignedTo, childID) {
		return nil, false, fmt.Errorf("bonus mission %s not assigned: %w", templateID, generic.ErrNotEligible)
	}
	return s.mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool, error) {
		if !daylog.CanCompleteBonus(l, m) {
			return nil, false, fmt.Errorf("bonus mission %s: %w", templateID, generic.ErrNotEligible)
		}
		next, changed := daylog.CompleteBonusMission(l, m)
		return next, changed, nil
	})
}

// WithdrawBonus removes a completed bonus.
func (s *Service) WithdrawBonus(ctx context.Context, childID, date, bonusID string) (*daylog.DayLog, bool, error) {
	return s.Mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool) {
		return daylog.WithdrawBonus(l, bonusID)
	})
}

// ApplyPenalty records the penalty templateID. The penalty must be
// assigned to the child and pass daylog.CanApplyPenalty.
func (s *Service) ApplyPenalty(ctx context.Context, childID, date, templateID string, carryToNextDay bool) (*daylog.DayLog, bool, error) {
	templates, err := s.Templates(ctx)
	if err != nil {
		return nil, false, err
	}
	p, ok := templates.Penalty(templateID)
	if !ok {
		return nil, false, fmt.Errorf("penalty %s: %w", templateID, generic.ErrTemplateNotFound)
	}
	if !daylog.IsAssigned(p.AssignedTo, childID) {
		return nil, false, fmt.Errorf("penalty %s not assigned: %w", templateID, generic.ErrNotEligible)
	}
	return s.mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool, error) {
		if !daylog.CanApplyPenalty(l, p) {
			return nil, false, fmt.Errorf("penalty %s: %w", templateID, generic.ErrNotEligible)
		}
		next, changed := daylog.ApplyPenalty(l, p, carryToNextDay)
		return next, changed, nil
	})
}

// RemovePenalty deletes an applied penalty.
func (s *Service) RemovePenalty(ctx context.Context, childID, date, penaltyID string) (*daylog.DayLog, bool, error) {
	return s.Mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool) {
		return daylog.RemovePenalty(l, penaltyID)
	})
}

// SyncOffline re-applies the current offline calendar to an existing or
// new ledger.
func (s *Service) SyncOffline(ctx context.Context, childID, date string) (*daylog.DayLog, bool, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, false, err
	}
	return s.Mutate(ctx, childID, date, func(l *daylog.DayLog) (*daylog.DayLog, bool) {
		return daylog.SyncOfflineStatus(l, settings)
	})
}

// Level computes the child's level from lifetime XP.
func (s *Service) Level(ctx context.Context, childID string) (generic.LevelInfo, error) {
	c, err := s.store.GetChild(ctx, childID)
	if err != nil {
		return generic.LevelInfo{}, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return generic.LevelInfo{}, err
	}
	return generic.ComputeLevel(c.XP, settings.LevelThresholds), nil
}

// CompactAll compacts every child's ledgers older than today minus
// retentionDays and returns how many ledgers were compacted.
func (s *Service) CompactAll(ctx context.Context, retentionDays int, today string) (int, error) {
	if !generic.ValidDate(today) {
		return 0, generic.ErrInvalidDate
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	err := s.store.WithTx(ctx, func(st Store) error {
		children, err := st.ListChildren(ctx)
		if err != nil {
			return fmt.Errorf("list children: %w", err)
		}
		for _, c := range children {
			logs, err := st.ListDayLogs(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("load history %s: %w", c.ID, err)
			}
			compacted, changed := daylog.CompactOldLogsAsOf(logs, retentionDays, today)
			if !changed {
				continue
			}
			for date, l := range compacted {
				if l == logs[date] {
					continue
				}
				if err := st.SaveDayLog(ctx, c.ID, l); err != nil {
					return fmt.Errorf("save compacted %s %s: %w", c.ID, date, err)
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logging.Info("ledgers compacted", "count", count, "retentionDays", retentionDays, "asOf", today)
	}
	return count, nil
}

// =============================================================================
// VOUCHERS & CURSES
// =============================================================================

// GiveVoucher adds a time-bonus voucher to the child's inventory.
func (s *Service) GiveVoucher(ctx context.Context, childID string, in VoucherSpec) (Voucher, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Voucher{}, invalidInput("name", "required")
	}
	if in.Value <= 0 {
		return Voucher{}, invalidInput("value", "must be > 0")
	}

	v := Voucher{
		ID:        generic.NewID(),
		Name:      name,
		Type:      VoucherTimeBonus,
		Value:     in.Value,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: s.now().UnixMilli(),
	}
	_, err := s.editChild(ctx, childID, func(c *Child) error {
		c.Inventory = append(c.Inventory, v)
		return nil
	})
	if err != nil {
		return Voucher{}, err
	}
	return v, nil
}

// RemoveVoucher drops a voucher from the inventory, e.g. once redeemed.
func (s *Service) RemoveVoucher(ctx context.Context, childID, voucherID string) (Child, error) {
	return s.editChild(ctx, childID, func(c *Child) error {
		for i, v := range c.Inventory {
			if v.ID == voucherID {
				c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("voucher %s: %w", voucherID, generic.ErrVoucherNotFound)
	})
}

// ApplyCurse puts an active curse on the child. A threshold outside (0, 1]
// falls back to DefaultNegotiationThreshold.
func (s *Service) ApplyCurse(ctx context.Context, childID string, requiredPoints int, threshold float64) (Child, error) {
	if requiredPoints <= 0 {
		return Child{}, invalidInput("requiredPoints", "must be > 0")
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultNegotiationThreshold
	}
	return s.editChild(ctx, childID, func(c *Child) error {
		c.Curse = Curse{
			IsActive:             true,
			RequiredPoints:       requiredPoints,
			NegotiationThreshold: threshold,
		}
		c.Negotiation = nil
		return nil
	})
}

// LiftCurse clears the child's curse.
func (s *Service) LiftCurse(ctx context.Context, childID string) (Child, error) {
	return s.editChild(ctx, childID, func(c *Child) error {
		c.Curse = inactiveCurse()
		c.Negotiation = nil
		return nil
	})
}

// UpdateCursePoints moves both counters by the given deltas, each floored
// at 0. No effect without an active curse.
func (s *Service) UpdateCursePoints(ctx context.Context, childID string, gatheredDelta, requiredDelta int) (Child, error) {
	return s.editChild(ctx, childID, func(c *Child) error {
		if !c.Curse.IsActive {
			return nil
		}
		c.Curse.GatheredPoints = max(0, c.Curse.GatheredPoints+gatheredDelta)
		c.Curse.RequiredPoints = max(0, c.Curse.RequiredPoints+requiredDelta)
		return nil
	})
}

// RequestNegotiation records that the cursed child asks for a contract.
// The child needs an active curse with enough points gathered and no
// contract already accepted.
func (s *Service) RequestNegotiation(ctx context.Context, childID string) (Child, error) {
	return s.editChild(ctx, childID, func(c *Child) error {
		if !c.Curse.IsActive {
			return notEligible("no active curse")
		}
		if c.Negotiation != nil && c.Negotiation.Status == NegotiationAccepted {
			return notEligible("contract already accepted")
		}
		if !c.Curse.CanNegotiate() {
			return notEligible("not enough curse points gathered")
		}
		c.Negotiation = &Negotiation{Status: NegotiationRequested, Timestamp: s.now().UnixMilli()}
		return nil
	})
}

// OfferContract proposes a contract task to a cursed child, with or without
// a prior request.
func (s *Service) OfferContract(ctx context.Context, childID string, offer ContractOffer) (Child, error) {
	offer.Text = strings.TrimSpace(offer.Text)
	if offer.Text == "" {
		return Child{}, invalidInput("text", "required")
	}
	return s.editChild(ctx, childID, func(c *Child) error {
		if !c.Curse.IsActive {
			return notEligible("no active curse")
		}
		if c.Negotiation != nil && c.Negotiation.Status == NegotiationAccepted {
			return notEligible("contract already accepted")
		}
		c.Negotiation = &Negotiation{Status: NegotiationOffered, Contract: &offer, Timestamp: s.now().UnixMilli()}
		return nil
	})
}

// RespondToContract is the child's answer to an offered contract. Rejecting
// drops the negotiation and keeps the curse. Accepting puts the task on the
// ledger for date, creating it if needed, and returns that ledger.
func (s *Service) RespondToContract(ctx context.Context, childID, date string, accept bool) (Child, *daylog.DayLog, error) {
	if !accept {
		c, err := s.editChild(ctx, childID, func(c *Child) error {
			if c.Negotiation == nil || c.Negotiation.Status != NegotiationOffered {
				return notEligible("no contract offered")
			}
			c.Negotiation = nil
			return nil
		})
		return c, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		child   Child
		out     *daylog.DayLog
		created bool
	)
	err := s.store.WithTx(ctx, func(st Store) error {
		stored, err := st.GetChild(ctx, childID)
		if err != nil {
			return err
		}
		n := stored.Negotiation
		if n == nil || n.Status != NegotiationOffered || n.Contract == nil {
			return notEligible("no contract offered")
		}

		l, isNew, err := getOrCreate(ctx, st, childID, date)
		if err != nil {
			return err
		}
		created = isNew
		if l.IsCompacted {
			return fmt.Errorf("%s %s: %w", childID, date, generic.ErrDayLogCompacted)
		}
		out, _ = daylog.AttachContract(l, n.Contract.Text, n.Contract.Icon)
		if err := st.SaveDayLog(ctx, childID, out); err != nil {
			return fmt.Errorf("save day log: %w", err)
		}

		child = stored.Clone()
		child.Negotiation.Status = NegotiationAccepted
		child.Negotiation.ContractDate = date
		child.Negotiation.Timestamp = s.now().UnixMilli()
		if err := st.SaveChild(ctx, child); err != nil {
			return fmt.Errorf("save child: %w", err)
		}
		return nil
	})
	if err != nil {
		return Child{}, nil, err
	}
	if created {
		s.ledgerCreated(childID, date)
	}
	logging.Info("contract accepted", "child", childID, "date", date)
	return child, out, nil
}

// CompleteContract fulfils an accepted contract: the task is marked done on
// its ledger, when that ledger is still live, and the curse is lifted.
func (s *Service) CompleteContract(ctx context.Context, childID string) (Child, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var child Child
	err := s.store.WithTx(ctx, func(st Store) error {
		stored, err := st.GetChild(ctx, childID)
		if err != nil {
			return err
		}
		n := stored.Negotiation
		if n == nil || n.Status != NegotiationAccepted {
			return notEligible("no accepted contract")
		}

		l, err := st.GetDayLog(ctx, childID, n.ContractDate)
		switch {
		case err == nil:
			if next, changed := daylog.CompleteContract(l); changed {
				if err := st.SaveDayLog(ctx, childID, next); err != nil {
					return fmt.Errorf("save day log: %w", err)
				}
			}
		case !errors.Is(err, generic.ErrDayLogNotFound):
			return fmt.Errorf("load day log: %w", err)
		}

		child = stored.Clone()
		child.Curse = inactiveCurse()
		child.Negotiation = nil
		if err := st.SaveChild(ctx, child); err != nil {
			return fmt.Errorf("save child: %w", err)
		}
		return nil
	})
	if err != nil {
		return Child{}, err
	}
	logging.Info("contract fulfilled, curse lifted", "child", childID)
	return child, nil
}

func notEligible(msg string) error {
	return fmt.Errorf("%s: %w", msg, generic.ErrNotEligible)
}

func invalidInput(field, msg string) error {
	return &generic.ValidationError{Field: field, Message: msg, Kind: generic.ErrInvalidInput}
}
