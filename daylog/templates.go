package daylog

// TemplateKind names one of the three template lists.
type TemplateKind string

const (
	KindQuest   TemplateKind = "dailyQuests"
	KindBonus   TemplateKind = "bonusMissions"
	KindPenalty TemplateKind = "penalties"
)

// Valid reports whether k is a known kind.
func (k TemplateKind) Valid() bool {
	return k == KindQuest || k == KindBonus || k == KindPenalty
}

// BonusMission looks up a bonus mission template by id.
func (t TemplateSet) BonusMission(id string) (BonusMissionTemplate, bool) {
	for _, m := range t.BonusMissions {
		if m.ID == id {
			return m, true
		}
	}
	return BonusMissionTemplate{}, false
}

// Penalty looks up a penalty template by id.
func (t TemplateSet) Penalty(id string) (PenaltyTemplate, bool) {
	for _, p := range t.Penalties {
		if p.ID == id {
			return p, true
		}
	}
	return PenaltyTemplate{}, false
}

// Clone returns a copy of t whose slices can be modified freely.
func (t TemplateSet) Clone() TemplateSet {
	return TemplateSet{
		DailyQuests:   append([]QuestTemplate(nil), t.DailyQuests...),
		BonusMissions: append([]BonusMissionTemplate(nil), t.BonusMissions...),
		Penalties:     append([]PenaltyTemplate(nil), t.Penalties...),
	}
}

// UpsertQuest replaces the quest with the same id or appends q.
func (t *TemplateSet) UpsertQuest(q QuestTemplate) {
	for i := range t.DailyQuests {
		if t.DailyQuests[i].ID == q.ID {
			t.DailyQuests[i] = q
			return
		}
	}
	t.DailyQuests = append(t.DailyQuests, q)
}

// UpsertBonusMission replaces the mission with the same id or appends m.
func (t *TemplateSet) UpsertBonusMission(m BonusMissionTemplate) {
	for i := range t.BonusMissions {
		if t.BonusMissions[i].ID == m.ID {
			t.BonusMissions[i] = m
			return
		}
	}
	t.BonusMissions = append(t.BonusMissions, m)
}

// UpsertPenalty replaces the penalty with the same id or appends p.
func (t *TemplateSet) UpsertPenalty(p PenaltyTemplate) {
	for i := range t.Penalties {
		if t.Penalties[i].ID == p.ID {
			t.Penalties[i] = p
			return
		}
	}
	t.Penalties = append(t.Penalties, p)
}

// Remove deletes the template of kind with id. Existing ledgers keep their
// stamped copies.
func (t *TemplateSet) Remove(kind TemplateKind, id string) bool {
	switch kind {
	case KindQuest:
		for i := range t.DailyQuests {
			if t.DailyQuests[i].ID == id {
				t.DailyQuests = append(t.DailyQuests[:i], t.DailyQuests[i+1:]...)
				return true
			}
		}
	case KindBonus:
		for i := range t.BonusMissions {
			if t.BonusMissions[i].ID == id {
				t.BonusMissions = append(t.BonusMissions[:i], t.BonusMissions[i+1:]...)
				return true
			}
		}
	case KindPenalty:
		for i := range t.Penalties {
			if t.Penalties[i].ID == id {
				t.Penalties = append(t.Penalties[:i], t.Penalties[i+1:]...)
				return true
			}
		}
	}
	return false
}
