package daylog

// Eligibility rules the child's board applies before offering an action.
// The mutators themselves never enforce these.

// AvailableBonusMissions filters missions assigned to childID.
func AvailableBonusMissions(templates TemplateSet, childID string) []BonusMissionTemplate {
	var out []BonusMissionTemplate
	for _, m := range templates.BonusMissions {
		if IsAssigned(m.AssignedTo, childID) {
			out = append(out, m)
		}
	}
	return out
}

// AvailablePenalties filters penalties assigned to childID.
func AvailablePenalties(templates TemplateSet, childID string) []PenaltyTemplate {
	var out []PenaltyTemplate
	for _, p := range templates.Penalties {
		if IsAssigned(p.AssignedTo, childID) {
			out = append(out, p)
		}
	}
	return out
}

// CanCompleteBonus reports whether m may be completed on l: single-use
// missions only once per day, and never once time is capped (offline days
// have no cap).
func CanCompleteBonus(l *DayLog, m BonusMissionTemplate) bool {
	if l.IsCompacted {
		return false
	}
	if !m.MultiUse {
		for _, b := range l.Bonuses {
			if b.TemplateID == m.ID {
				return false
			}
		}
	}
	return l.IsOfflineDay || l.CurrentTime < l.MaxTime
}

// CanApplyPenalty reports whether p may be applied on l: single-use
// penalties only once per day, and not when time is already zero on an
// online day.
func CanApplyPenalty(l *DayLog, p PenaltyTemplate) bool {
	if l.IsCompacted {
		return false
	}
	if !p.MultiUse {
		for _, x := range l.Penalties {
			if x.TemplateID == p.ID {
				return false
			}
		}
	}
	return l.IsOfflineDay || l.CurrentTime > 0
}

// IsTimeUnlocked reports whether screen time may start: every morning and
// afternoon quest has been resolved.
func IsTimeUnlocked(l *DayLog) bool {
	for _, q := range l.Quests {
		if (q.Category == CategoryMorning || q.Category == CategoryAfternoon) && q.Status == QuestPending {
			return false
		}
	}
	return true
}

// QuestGroup is the quests of one category.
type QuestGroup struct {
	Category Category `json:"category"`
	Quests   []Quest  `json:"quests"`
}

// QuestsByCategory groups l's quests in board order. Unknown categories
// come last in a group of their own, in first-seen order.
func QuestsByCategory(l *DayLog) []QuestGroup {
	byCat := make(map[Category][]Quest)
	var extra []Category
	for _, q := range l.Quests {
		if !q.Category.Valid() {
			if _, seen := byCat[q.Category]; !seen {
				extra = append(extra, q.Category)
			}
		}
		byCat[q.Category] = append(byCat[q.Category], q)
	}

	var groups []QuestGroup
	for _, c := range append(append([]Category(nil), CategoryOrder...), extra...) {
		if qs := byCat[c]; len(qs) > 0 {
			groups = append(groups, QuestGroup{Category: c, Quests: qs})
		}
	}
	return groups
}
