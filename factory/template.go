/*
Package factory provides JSON to Go template and settings conversion.

PURPOSE:
  Converts JSON documents sent by the parent panel into daylog templates
  and settings. Missing fields get defaults; malformed values are rejected
  with a *generic.ValidationError naming the field, so the API can answer
  400 with something a human can act on.

JSON SCHEMA (quest):
  {
    "id": "dq-11",                  // optional, generated when empty
    "text": "Water the plants",     // required
    "icon": "🪴",                   // optional
    "category": "evening",          // morning|afternoon|evening|boss
    "penaltyMinutes": 10,
    "hasNextDayConsequence": true,
    "nextDayPenalty": 10,           // required > 0 when the flag is set
    "xpReward": 100,
    "assignedTo": ["all"]           // optional, defaults to everyone
  }

  Bonus missions and penalties follow the same shape with rewardMinutes /
  nextDayBonus / multiUse and penaltyMinutes / xpPenalty / multiUse.

SETTINGS:
  Settings documents are decoded on top of daylog.DefaultSettings(), so a
  partial document only changes what it names, then validated.

USAGE:
  f := factory.NewTemplateFactory()
  q, err := f.ParseQuest(body)
  set, err := f.ParseTemplateSet(body)
  settings, err := f.ParseSettings(body)

SEE ALSO:
  - daylog/types.go: Template and settings types
  - api/handlers.go: Callers
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/generic"
)

// Default icons for templates created without one.
const (
	DefaultQuestIcon   = "✅"
	DefaultBonusIcon   = "⭐"
	DefaultPenaltyIcon = "⚠️"
)

// TemplateFactory converts JSON documents to templates and settings.
type TemplateFactory struct{}

// NewTemplateFactory creates a new template factory.
func NewTemplateFactory() *TemplateFactory {
	return &TemplateFactory{}
}

// =============================================================================
// PARSERS
// =============================================================================

// ParseQuest parses and normalizes one quest template.
func (f *TemplateFactory) ParseQuest(data []byte) (daylog.QuestTemplate, error) {
	var q daylog.QuestTemplate
	if err := decode(data, &q); err != nil {
		return daylog.QuestTemplate{}, err
	}
	return f.Quest(q)
}

// ParseBonusMission parses and normalizes one bonus mission template.
func (f *TemplateFactory) ParseBonusMission(data []byte) (daylog.BonusMissionTemplate, error) {
	var m daylog.BonusMissionTemplate
	if err := decode(data, &m); err != nil {
		return daylog.BonusMissionTemplate{}, err
	}
	return f.BonusMission(m)
}

// ParsePenalty parses and normalizes one penalty template.
func (f *TemplateFactory) ParsePenalty(data []byte) (daylog.PenaltyTemplate, error) {
	var p daylog.PenaltyTemplate
	if err := decode(data, &p); err != nil {
		return daylog.PenaltyTemplate{}, err
	}
	return f.Penalty(p)
}

// ParseTemplateSet parses and normalizes a whole template table.
func (f *TemplateFactory) ParseTemplateSet(data []byte) (daylog.TemplateSet, error) {
	var t daylog.TemplateSet
	if err := decode(data, &t); err != nil {
		return daylog.TemplateSet{}, err
	}
	return f.TemplateSet(t)
}

// ParseSettings decodes a settings document over the defaults and
// validates the result.
func (f *TemplateFactory) ParseSettings(data []byte) (daylog.Settings, error) {
	s := daylog.DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return daylog.Settings{}, fmt.Errorf("%w: %v", generic.ErrInvalidSettings, err)
	}
	if s.OfflineDaysOverride == nil {
		s.OfflineDaysOverride = map[string]bool{}
	}
	if s.OfflineDaysSchedule == nil {
		s.OfflineDaysSchedule = []int{}
	}
	if err := s.Validate(); err != nil {
		return daylog.Settings{}, err
	}
	return s, nil
}

func decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrInvalidTemplate, err)
	}
	return nil
}

// =============================================================================
// NORMALIZERS
// =============================================================================

// Quest fills defaults into q and validates it.
func (f *TemplateFactory) Quest(q daylog.QuestTemplate) (daylog.QuestTemplate, error) {
	q.ID = idOrNew(q.ID, "dq")
	q.Text = strings.TrimSpace(q.Text)
	q.Icon = orDefault(q.Icon, DefaultQuestIcon)
	q.AssignedTo = normalizeAssignees(q.AssignedTo)
	if q.Category == "" {
		q.Category = daylog.CategoryMorning
	}

	switch {
	case q.Text == "":
		return q, invalid("text", "required")
	case !q.Category.Valid():
		return q, invalid("category", fmt.Sprintf("unknown category %q", q.Category))
	case q.PenaltyMinutes < 0:
		return q, invalid("penaltyMinutes", "must be >= 0")
	case q.XPReward < 0:
		return q, invalid("xpReward", "must be >= 0")
	case q.HasNextDayConsequence && q.NextDayPenalty <= 0:
		return q, invalid("nextDayPenalty", "must be > 0 when hasNextDayConsequence is set")
	}
	return q, nil
}

// BonusMission fills defaults into m and validates it.
func (f *TemplateFactory) BonusMission(m daylog.BonusMissionTemplate) (daylog.BonusMissionTemplate, error) {
	m.ID = idOrNew(m.ID, "bm")
	m.Text = strings.TrimSpace(m.Text)
	m.Icon = orDefault(m.Icon, DefaultBonusIcon)
	m.AssignedTo = normalizeAssignees(m.AssignedTo)

	switch {
	case m.Text == "":
		return m, invalid("text", "required")
	case m.RewardMinutes < 0:
		return m, invalid("rewardMinutes", "must be >= 0")
	case m.XPReward < 0:
		return m, invalid("xpReward", "must be >= 0")
	case m.HasNextDayConsequence && m.NextDayBonus <= 0:
		return m, invalid("nextDayBonus", "must be > 0 when hasNextDayConsequence is set")
	}
	return m, nil
}

// Penalty fills defaults into p and validates it.
func (f *TemplateFactory) Penalty(p daylog.PenaltyTemplate) (daylog.PenaltyTemplate, error) {
	p.ID = idOrNew(p.ID, "pn")
	p.Text = strings.TrimSpace(p.Text)
	p.Icon = orDefault(p.Icon, DefaultPenaltyIcon)
	p.AssignedTo = normalizeAssignees(p.AssignedTo)

	switch {
	case p.Text == "":
		return p, invalid("text", "required")
	case p.PenaltyMinutes < 0:
		return p, invalid("penaltyMinutes", "must be >= 0")
	case p.XPPenalty < 0:
		return p, invalid("xpPenalty", "must be >= 0")
	case p.HasNextDayConsequence && p.NextDayPenalty <= 0:
		return p, invalid("nextDayPenalty", "must be > 0 when hasNextDayConsequence is set")
	}
	return p, nil
}

// TemplateSet normalizes every entry and rejects duplicate ids per kind.
func (f *TemplateFactory) TemplateSet(t daylog.TemplateSet) (daylog.TemplateSet, error) {
	out := daylog.TemplateSet{
		DailyQuests:   make([]daylog.QuestTemplate, 0, len(t.DailyQuests)),
		BonusMissions: make([]daylog.BonusMissionTemplate, 0, len(t.BonusMissions)),
		Penalties:     make([]daylog.PenaltyTemplate, 0, len(t.Penalties)),
	}

	seen := map[string]bool{}
	for i, raw := range t.DailyQuests {
		q, err := f.Quest(raw)
		if err != nil {
			return daylog.TemplateSet{}, at(err, daylog.KindQuest, i)
		}
		if seen[q.ID] {
			return daylog.TemplateSet{}, invalid(fmt.Sprintf("%s[%d].id", daylog.KindQuest, i), "duplicate id "+q.ID)
		}
		seen[q.ID] = true
		out.DailyQuests = append(out.DailyQuests, q)
	}

	seen = map[string]bool{}
	for i, raw := range t.BonusMissions {
		m, err := f.BonusMission(raw)
		if err != nil {
			return daylog.TemplateSet{}, at(err, daylog.KindBonus, i)
		}
		if seen[m.ID] {
			return daylog.TemplateSet{}, invalid(fmt.Sprintf("%s[%d].id", daylog.KindBonus, i), "duplicate id "+m.ID)
		}
		seen[m.ID] = true
		out.BonusMissions = append(out.BonusMissions, m)
	}

	seen = map[string]bool{}
	for i, raw := range t.Penalties {
		p, err := f.Penalty(raw)
		if err != nil {
			return daylog.TemplateSet{}, at(err, daylog.KindPenalty, i)
		}
		if seen[p.ID] {
			return daylog.TemplateSet{}, invalid(fmt.Sprintf("%s[%d].id", daylog.KindPenalty, i), "duplicate id "+p.ID)
		}
		seen[p.ID] = true
		out.Penalties = append(out.Penalties, p)
	}

	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func idOrNew(id, prefix string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return prefix + "-" + generic.NewID()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// normalizeAssignees drops blanks and defaults to everyone.
func normalizeAssignees(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return []string{daylog.AssignAll}
	}
	return out
}

func invalid(field, msg string) error {
	return &generic.ValidationError{Field: field, Message: msg, Kind: generic.ErrInvalidTemplate}
}

// at prefixes a validation error's field with its list position.
func at(err error, kind daylog.TemplateKind, i int) error {
	if ve, ok := err.(*generic.ValidationError); ok {
		return &generic.ValidationError{
			Field:   fmt.Sprintf("%s[%d].%s", kind, i, ve.Field),
			Message: ve.Message,
			Kind:    ve.Kind,
		}
	}
	return err
}
