/*
mutations.go - Ledger events

PURPOSE:
  The six event operations a day can see, plus revert. Each takes a ledger
  and returns (next, changed). A change produces a fresh *DayLog with one
  event appended; a no-op returns the input pointer and false.

OPERATIONS:
  Operation            Precondition          currentTime          xpEarned
  CompleteQuest        quest pending         -                    + xpReward*mult
  FailQuest            quest pending         - penaltyMinutes     -
  RevertQuest          quest not pending     undo fail            undo complete
  CompleteBonusMission -                     + rewardMinutes      + xpReward*mult
  WithdrawBonus        bonus exists          - rewardMinutes      undo
  ApplyPenalty         -                     - penaltyMinutes     - xpPenalty*mult
  RemovePenalty        penalty exists        + penaltyMinutes     undo

CLAMPING:
  currentTime stays in [0, maxTime]. A failed quest records the minutes it
  actually removed (AppliedMinutes) so fail+revert is an exact round trip.

XP:
  xpEarned is not kept as a running total. Each done quest and bonus holds
  the XP it granted, each penalty the XP it charged, and xpEarned is
  max(0, granted - charged) over the live instances. Penalty XP beyond what
  was earned is a debt that later rewards pay off first, and undoing every
  event always lands back on 0.

COMPACTED LEDGERS:
  Every operation is a no-op on a compacted ledger.
*/
package daylog

import (
	"fmt"

	"github.com/warp/quest-engine/generic"
)

// Mutation is any ledger operation with its arguments bound.
type Mutation func(*DayLog) (*DayLog, bool)

// CompleteQuest marks a pending quest done and grants its XP.
func CompleteQuest(l *DayLog, questID string) (*DayLog, bool) {
	i := l.questIndex(questID)
	if l.IsCompacted || i < 0 || l.Quests[i].Status != QuestPending {
		return l, false
	}

	next := l.clone()
	q := &next.Quests[i]
	xp := q.XPReward * next.XPMultiplier
	q.Status = QuestDone
	q.AppliedXP = xp
	q.AppliedMinutes = 0
	next.recomputeXP()

	text := fmt.Sprintf("✅ Completed: %s", q.Text)
	if xp > 0 {
		text += fmt.Sprintf(" (+%d XP)", xp)
	}
	next.appendEvent(text, EventPositive)
	return next, true
}

// FailQuest marks a pending quest failed and deducts its penalty minutes.
func FailQuest(l *DayLog, questID string) (*DayLog, bool) {
	i := l.questIndex(questID)
	if l.IsCompacted || i < 0 || l.Quests[i].Status != QuestPending {
		return l, false
	}

	next := l.clone()
	q := &next.Quests[i]
	newTime := generic.ClampMinutes(next.CurrentTime-q.PenaltyMinutes, next.MaxTime)
	q.Status = QuestFailed
	q.AppliedMinutes = next.CurrentTime - newTime
	q.AppliedXP = 0
	next.CurrentTime = newTime

	next.appendEvent(fmt.Sprintf("❌ Not done: %s → −%d min", q.Text, q.PenaltyMinutes), EventNegative)
	return next, true
}

// RevertQuest returns a done or failed quest to pending, undoing its effect.
func RevertQuest(l *DayLog, questID string) (*DayLog, bool) {
	i := l.questIndex(questID)
	if l.IsCompacted || i < 0 || l.Quests[i].Status == QuestPending {
		return l, false
	}

	next := l.clone()
	q := &next.Quests[i]
	switch q.Status {
	case QuestFailed:
		next.CurrentTime = generic.ClampMinutes(next.CurrentTime+q.AppliedMinutes, next.MaxTime)
	}
	q.Status = QuestPending
	q.AppliedMinutes = 0
	q.AppliedXP = 0
	next.recomputeXP()

	next.appendEvent(fmt.Sprintf("↩️ Reverted: %s", q.Text), EventInfo)
	return next, true
}

// CompleteBonusMission records a bonus mission and adds its reward minutes.
//
// Eligibility (multi-use, time cap, assignment) is the caller's decision;
// see CanCompleteBonus.
func CompleteBonusMission(l *DayLog, m BonusMissionTemplate) (*DayLog, bool) {
	if l.IsCompacted {
		return l, false
	}

	next := l.clone()
	newTime := generic.ClampMinutes(next.CurrentTime+m.RewardMinutes, next.MaxTime)
	xp := m.XPReward * next.XPMultiplier
	next.Bonuses = append(next.Bonuses, Bonus{
		ID:                    generic.NewID(),
		TemplateID:            m.ID,
		Text:                  m.Text,
		Icon:                  m.Icon,
		RewardMinutes:         m.RewardMinutes,
		HasNextDayConsequence: m.HasNextDayConsequence,
		NextDayBonus:          m.NextDayBonus,
		XPReward:              m.XPReward,
		CompletedAt:           nowMillis(),
		AppliedXP:             xp,
	})
	next.CurrentTime = newTime
	next.recomputeXP()

	next.appendEvent(fmt.Sprintf("⭐ Bonus: %s → +%d min", m.Text, m.RewardMinutes), EventPositive)
	return next, true
}

// WithdrawBonus removes a bonus and takes back what it granted.
func WithdrawBonus(l *DayLog, bonusID string) (*DayLog, bool) {
	i := l.bonusIndex(bonusID)
	if l.IsCompacted || i < 0 {
		return l, false
	}

	next := l.clone()
	b := next.Bonuses[i]
	next.CurrentTime = generic.ClampMinutes(next.CurrentTime-b.RewardMinutes, next.MaxTime)
	next.Bonuses = append(next.Bonuses[:i], next.Bonuses[i+1:]...)
	next.recomputeXP()

	next.appendEvent(fmt.Sprintf("↩️ Bonus withdrawn: %s → −%d min", b.Text, b.RewardMinutes), EventInfo)
	return next, true
}

// ApplyPenalty records a penalty and deducts its minutes and XP.
//
// carryToNextDay only sticks when the template declares a next-day
// consequence.
func ApplyPenalty(l *DayLog, p PenaltyTemplate, carryToNextDay bool) (*DayLog, bool) {
	if l.IsCompacted {
		return l, false
	}

	next := l.clone()
	carry := carryToNextDay && p.HasNextDayConsequence
	newTime := generic.ClampMinutes(next.CurrentTime-p.PenaltyMinutes, next.MaxTime)
	next.Penalties = append(next.Penalties, Penalty{
		ID:                    generic.NewID(),
		TemplateID:            p.ID,
		Text:                  p.Text,
		Icon:                  p.Icon,
		PenaltyMinutes:        p.PenaltyMinutes,
		HasNextDayConsequence: p.HasNextDayConsequence,
		NextDayPenalty:        p.NextDayPenalty,
		XPPenalty:             p.XPPenalty,
		CarryToNextDay:        carry,
		AppliedAt:             nowMillis(),
		AppliedXP:             p.XPPenalty * next.XPMultiplier,
	})
	next.CurrentTime = newTime
	next.recomputeXP()

	text := fmt.Sprintf("⚠️ Penalty: %s → −%d min", p.Text, p.PenaltyMinutes)
	if carry {
		text += fmt.Sprintf(" (+ consequence tomorrow: −%d min)", p.NextDayPenalty)
	}
	next.appendEvent(text, EventNegative)
	return next, true
}

// RemovePenalty deletes a penalty and gives back what it took.
func RemovePenalty(l *DayLog, penaltyID string) (*DayLog, bool) {
	i := l.penaltyIndex(penaltyID)
	if l.IsCompacted || i < 0 {
		return l, false
	}

	next := l.clone()
	p := next.Penalties[i]
	next.CurrentTime = generic.ClampMinutes(next.CurrentTime+p.PenaltyMinutes, next.MaxTime)
	next.Penalties = append(next.Penalties[:i], next.Penalties[i+1:]...)
	next.recomputeXP()

	next.appendEvent(fmt.Sprintf("↩️ Penalty removed: %s → +%d min", p.Text, p.PenaltyMinutes), EventInfo)
	return next, true
}

// recomputeXP sets XPEarned from the live instances.
func (l *DayLog) recomputeXP() {
	total := 0
	for _, q := range l.Quests {
		if q.Status == QuestDone {
			total += q.AppliedXP
		}
	}
	for _, b := range l.Bonuses {
		total += b.AppliedXP
	}
	for _, p := range l.Penalties {
		total -= p.AppliedXP
	}
	l.XPEarned = max(0, total)
}

func (l *DayLog) appendEvent(text string, typ EventType) {
	l.Events = append(l.Events, Event{
		ID:        generic.NewID(),
		Timestamp: nowMillis(),
		Text:      text,
		Type:      typ,
	})
}
