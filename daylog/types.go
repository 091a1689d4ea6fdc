/*
Package daylog implements the per-child daily ledger engine.

PURPOSE:
  A child's day is a single ledger: the quests stamped from templates,
  the bonus missions and penalties applied so far, the remaining screen
  time, and the XP earned. This package builds that ledger, applies every
  event to it, and rolls consequences forward into the next day.

KEY CONCEPTS IN THIS FILE (types.go):
  - Settings: household-wide time limits, XP multiplier, level table,
    offline-day schedule
  - Templates: QuestTemplate, BonusMissionTemplate, PenaltyTemplate
  - DayLog: the ledger for one (child, date)
  - CarryOverEffect: a signed time adjustment inherited from earlier days

DESIGN PRINCIPLES:
  1. Pure functions: nothing here reads a clock for decisions, touches
     storage, or mutates its inputs
  2. Copy-on-write: every mutation returns a new *DayLog; older snapshots
     stay valid
  3. No errors: unknown ids and invalid preconditions are no-ops, minutes
     are clamped to [0, maxTime]
  4. Explicit change detection: mutators return (next, changed); when
     changed is false, next is the input pointer

LIFECYCLE:
  CreateDayLog -> CompleteQuest/FailQuest/... (many) -> CompactDayLog

SEE ALSO:
  - factory.go: Ledger creation and carry-over
  - mutations.go: Quest/bonus/penalty events
  - summary.go: Aggregates and compaction
*/
package daylog

import (
	"encoding/json"

	"github.com/warp/quest-engine/generic"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the household configuration consumed by the factory.
type Settings struct {
	BaseTime            int                      `json:"baseTime"`
	MaxTime             int                      `json:"maxTime"`
	TimeStep            int                      `json:"timeStep,omitempty"`
	XPMultiplierOffline int                      `json:"xpMultiplierOffline"`
	LevelThresholds     []generic.LevelThreshold `json:"levelThresholds"`
	OfflineDaysSchedule []int                    `json:"offlineDaysSchedule"`
	OfflineDaysOverride map[string]bool          `json:"offlineDaysOverride"`
}

// WithLimits returns a copy of s using per-child time limits. Nil leaves the
// household value in place.
func (s Settings) WithLimits(baseTime, maxTime *int) Settings {
	out := s
	if baseTime != nil {
		out.BaseTime = *baseTime
	}
	if maxTime != nil {
		out.MaxTime = *maxTime
	}
	return out
}

// Clone returns a copy of s sharing no slices or maps.
func (s Settings) Clone() Settings {
	out := s
	out.LevelThresholds = append([]generic.LevelThreshold(nil), s.LevelThresholds...)
	out.OfflineDaysSchedule = append([]int(nil), s.OfflineDaysSchedule...)
	out.OfflineDaysOverride = make(map[string]bool, len(s.OfflineDaysOverride))
	for k, v := range s.OfflineDaysOverride {
		out.OfflineDaysOverride[k] = v
	}
	return out
}

// Validate checks the invariants the engine relies on.
func (s Settings) Validate() error {
	if s.BaseTime < 0 {
		return invalidSettings("baseTime", "must be >= 0")
	}
	if s.MaxTime < s.BaseTime {
		return invalidSettings("maxTime", "must be >= baseTime")
	}
	if s.XPMultiplierOffline < 1 {
		return invalidSettings("xpMultiplierOffline", "must be >= 1")
	}
	for i, t := range s.LevelThresholds {
		if t.Level != i+1 {
			return invalidSettings("levelThresholds", "levels must be contiguous starting at 1")
		}
		if i > 0 && t.XP <= s.LevelThresholds[i-1].XP {
			return invalidSettings("levelThresholds", "xp must be strictly ascending")
		}
	}
	for _, d := range s.OfflineDaysSchedule {
		if d < 0 || d > 6 {
			return invalidSettings("offlineDaysSchedule", "weekday must be 0-6")
		}
	}
	for date := range s.OfflineDaysOverride {
		if !generic.ValidDate(date) {
			return invalidSettings("offlineDaysOverride", "bad date "+date)
		}
	}
	return nil
}

func invalidSettings(field, msg string) error {
	return &generic.ValidationError{Field: field, Message: msg, Kind: generic.ErrInvalidSettings}
}

// =============================================================================
// TEMPLATES
// =============================================================================

// AssignAll is the assignedTo sentinel meaning "every child".
const AssignAll = "all"

// Category groups quests on the child's board.
type Category string

const (
	CategoryMorning   Category = "morning"
	CategoryAfternoon Category = "afternoon"
	CategoryEvening   Category = "evening"
	CategoryBoss      Category = "boss"
)

// CategoryOrder is the display order of quest categories.
var CategoryOrder = []Category{CategoryMorning, CategoryAfternoon, CategoryEvening, CategoryBoss}

// Valid reports whether c is one of the fixed labels.
func (c Category) Valid() bool {
	for _, k := range CategoryOrder {
		if c == k {
			return true
		}
	}
	return false
}

// QuestTemplate is a daily quest definition.
type QuestTemplate struct {
	ID                    string   `json:"id"`
	Text                  string   `json:"text"`
	Icon                  string   `json:"icon"`
	Category              Category `json:"category"`
	PenaltyMinutes        int      `json:"penaltyMinutes"`
	HasNextDayConsequence bool     `json:"hasNextDayConsequence"`
	NextDayPenalty        int      `json:"nextDayPenalty"`
	XPReward              int      `json:"xpReward"`
	AssignedTo            []string `json:"assignedTo,omitempty"`
}

// BonusMissionTemplate is an optional task that earns minutes.
type BonusMissionTemplate struct {
	ID                    string   `json:"id"`
	Text                  string   `json:"text"`
	Icon                  string   `json:"icon"`
	RewardMinutes         int      `json:"rewardMinutes"`
	MultiUse              bool     `json:"multiUse"`
	HasNextDayConsequence bool     `json:"hasNextDayConsequence"`
	NextDayBonus          int      `json:"nextDayBonus"`
	XPReward              int      `json:"xpReward"`
	AssignedTo            []string `json:"assignedTo,omitempty"`
}

// PenaltyTemplate is a misbehaviour that costs minutes.
type PenaltyTemplate struct {
	ID                    string   `json:"id"`
	Text                  string   `json:"text"`
	Icon                  string   `json:"icon"`
	PenaltyMinutes        int      `json:"penaltyMinutes"`
	MultiUse              bool     `json:"multiUse"`
	HasNextDayConsequence bool     `json:"hasNextDayConsequence"`
	NextDayPenalty        int      `json:"nextDayPenalty"`
	XPPenalty             int      `json:"xpPenalty"`
	AssignedTo            []string `json:"assignedTo,omitempty"`
}

// TemplateSet is the full template table of a household.
type TemplateSet struct {
	DailyQuests   []QuestTemplate        `json:"dailyQuests"`
	BonusMissions []BonusMissionTemplate `json:"bonusMissions"`
	Penalties     []PenaltyTemplate      `json:"penalties"`
}

// =============================================================================
// LEDGER
// =============================================================================

// QuestStatus is pending, done or failed.
type QuestStatus string

const (
	QuestPending QuestStatus = "pending"
	QuestDone    QuestStatus = "done"
	QuestFailed  QuestStatus = "failed"
)

// EventType classifies audit trail entries.
type EventType string

const (
	EventPositive EventType = "positive"
	EventNegative EventType = "negative"
	EventInfo     EventType = "info"
)

// Quest is a quest instance stamped onto one day.
//
// AppliedMinutes and AppliedXP hold what the last fail/complete actually
// changed after clamping; revert undoes exactly that.
type Quest struct {
	ID                    string      `json:"id"`
	TemplateID            string      `json:"templateId"`
	Text                  string      `json:"text"`
	Icon                  string      `json:"icon"`
	Category              Category    `json:"category"`
	PenaltyMinutes        int         `json:"penaltyMinutes"`
	HasNextDayConsequence bool        `json:"hasNextDayConsequence"`
	NextDayPenalty        int         `json:"nextDayPenalty"`
	XPReward              int         `json:"xpReward"`
	Status                QuestStatus `json:"status"`
	AppliedMinutes        int         `json:"appliedMinutes,omitempty"`
	AppliedXP             int         `json:"appliedXp,omitempty"`
}

// Bonus is a completed bonus mission.
type Bonus struct {
	ID                    string `json:"id"`
	TemplateID            string `json:"templateId"`
	Text                  string `json:"text"`
	Icon                  string `json:"icon"`
	RewardMinutes         int    `json:"rewardMinutes"`
	HasNextDayConsequence bool   `json:"hasNextDayConsequence"`
	NextDayBonus          int    `json:"nextDayBonus"`
	XPReward              int    `json:"xpReward"`
	CompletedAt           int64  `json:"completedAt"`
	AppliedXP             int    `json:"appliedXp"`
}

// Penalty is an applied penalty. Removing one is a parent-only action; the
// caller enforces that.
type Penalty struct {
	ID                    string `json:"id"`
	TemplateID            string `json:"templateId"`
	Text                  string `json:"text"`
	Icon                  string `json:"icon"`
	PenaltyMinutes        int    `json:"penaltyMinutes"`
	HasNextDayConsequence bool   `json:"hasNextDayConsequence"`
	NextDayPenalty        int    `json:"nextDayPenalty"`
	XPPenalty             int    `json:"xpPenalty"`
	CarryToNextDay        bool   `json:"carryToNextDay"`
	AppliedAt             int64  `json:"appliedAt"`
	AppliedXP             int    `json:"appliedXp"`
}

// Event is one line of the human-readable audit trail.
type Event struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Text      string    `json:"text"`
	Type      EventType `json:"type"`
}

// EffectSource says where a carry-over effect came from.
type EffectSource string

const (
	SourcePenalty  EffectSource = "penalty"
	SourceQuest    EffectSource = "quest"
	SourceBonus    EffectSource = "bonus"
	SourceDeferred EffectSource = "deferred"
)

// CarryOverEffect is a time adjustment inherited from an earlier day.
// DeltaMinutes is a cost: positive removes minutes, negative adds them.
type CarryOverEffect struct {
	Text         string       `json:"text"`
	DeltaMinutes int          `json:"deltaMinutes"`
	Source       EffectSource `json:"source"`
	OriginDate   string       `json:"originDate,omitempty"`
}

// DayLog is the ledger of one child on one date.
//
// A compacted DayLog keeps only the scalar fields and Stats; the detail
// slices are nil and never come back.
type DayLog struct {
	Date               string            `json:"date"`
	ChildID            string            `json:"childId,omitempty"`
	BaseTime           int               `json:"baseTime"`
	MaxTime            int               `json:"maxTime"`
	CurrentTime        int               `json:"currentTime"`
	IsOfflineDay       bool              `json:"isOfflineDay"`
	XPMultiplier       int               `json:"xpMultiplier"`
	XPEarned           int               `json:"xpEarned"`
	Quests             []Quest           `json:"quests"`
	Bonuses            []Bonus           `json:"bonuses"`
	Penalties          []Penalty         `json:"penalties"`
	Events             []Event           `json:"events"`
	CarryOverEffects   []CarryOverEffect `json:"carryOverEffects"`
	CarryOverApplied   int               `json:"carryOverApplied,omitempty"`
	DeferredCarryOvers []CarryOverEffect `json:"deferredCarryOvers"`
	ContractTask       *ContractTask     `json:"contractTask,omitempty"`
	IsCompacted        bool              `json:"isCompacted,omitempty"`
	Stats              *DayStats         `json:"stats,omitempty"`
}

// compactedDayLog is the JSON shape of a compacted ledger.
type compactedDayLog struct {
	Date         string    `json:"date"`
	ChildID      string    `json:"childId,omitempty"`
	BaseTime     int       `json:"baseTime"`
	MaxTime      int       `json:"maxTime"`
	CurrentTime  int       `json:"currentTime"`
	IsOfflineDay bool      `json:"isOfflineDay"`
	XPMultiplier int       `json:"xpMultiplier"`
	XPEarned     int       `json:"xpEarned"`
	IsCompacted  bool      `json:"isCompacted"`
	Stats        *DayStats `json:"stats,omitempty"`
}

// MarshalJSON writes a live ledger's lists as [] when empty and leaves
// them out of a compacted one.
func (l DayLog) MarshalJSON() ([]byte, error) {
	if l.IsCompacted {
		return json.Marshal(compactedDayLog{
			Date:         l.Date,
			ChildID:      l.ChildID,
			BaseTime:     l.BaseTime,
			MaxTime:      l.MaxTime,
			CurrentTime:  l.CurrentTime,
			IsOfflineDay: l.IsOfflineDay,
			XPMultiplier: l.XPMultiplier,
			XPEarned:     l.XPEarned,
			IsCompacted:  true,
			Stats:        l.Stats,
		})
	}

	type plain DayLog
	out := plain(l)
	out.Quests = orEmpty(out.Quests)
	out.Bonuses = orEmpty(out.Bonuses)
	out.Penalties = orEmpty(out.Penalties)
	out.Events = orEmpty(out.Events)
	out.CarryOverEffects = orEmpty(out.CarryOverEffects)
	out.DeferredCarryOvers = orEmpty(out.DeferredCarryOvers)
	return json.Marshal(out)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// clone copies l deep enough that appending to or editing any slice of the
// copy leaves l untouched.
func (l *DayLog) clone() *DayLog {
	out := *l
	out.Quests = append([]Quest(nil), l.Quests...)
	out.Bonuses = append([]Bonus(nil), l.Bonuses...)
	out.Penalties = append([]Penalty(nil), l.Penalties...)
	out.Events = append([]Event(nil), l.Events...)
	out.CarryOverEffects = append([]CarryOverEffect(nil), l.CarryOverEffects...)
	out.DeferredCarryOvers = append([]CarryOverEffect(nil), l.DeferredCarryOvers...)
	if l.Stats != nil {
		s := *l.Stats
		out.Stats = &s
	}
	if l.ContractTask != nil {
		c := *l.ContractTask
		out.ContractTask = &c
	}
	return &out
}

func (l *DayLog) questIndex(id string) int {
	for i := range l.Quests {
		if l.Quests[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *DayLog) bonusIndex(id string) int {
	for i := range l.Bonuses {
		if l.Bonuses[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *DayLog) penaltyIndex(id string) int {
	for i := range l.Penalties {
		if l.Penalties[i].ID == id {
			return i
		}
	}
	return -1
}
