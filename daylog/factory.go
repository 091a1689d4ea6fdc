/*
factory.go - Day ledger creation and carry-over

PURPOSE:
  Builds the ledger a child starts a day with: stamps quest instances from
  the templates assigned to the child, sets the base time, and applies (or
  defers) consequences inherited from the previous day.

CARRY-OVER RULES:
  Only a ledger dated exactly one day before the new date contributes.
  Candidates, in order:
    (a) penalties flagged carryToNextDay with nextDayPenalty > 0   cost
    (b) failed quests with a next-day consequence                  cost
    (c) bonuses with a next-day consequence                        gain
    (d) the previous ledger's deferred effects                     as-is

  Online day:  baseTime = clamp(settings.baseTime - sum(delta), 0, maxTime)
  Offline day: baseTime = settings.baseTime; every effect is deferred

  carryOverApplied records how far the clamped result actually moved
  baseTime, so SyncOfflineStatus can give back exactly that.

OFFLINE CHAIN EXAMPLE (offline Wed + Thu, penalty on Tue):
  Tue  penalty carryToNextDay, nextDayPenalty 10
  Wed  baseTime 60, deferred [10]
  Thu  baseTime 60, deferred [10]   (re-deferred)
  Fri  baseTime 50, deferred []     (applied)

  A gap of two or more days anywhere in the chain drops everything.
*/
package daylog

import (
	"fmt"

	"github.com/warp/quest-engine/generic"
)

// CreateDayLog builds the ledger for (childID, date).
//
// prev is the child's most recent earlier ledger, or nil. If prev is already
// the ledger for date it is returned unchanged.
func CreateDayLog(date string, templates TemplateSet, settings Settings, childID string, prev *DayLog) *DayLog {
	if prev != nil && prev.Date == date {
		return prev
	}

	offline := IsOfflineDay(date, settings)

	var effects []CarryOverEffect
	if prev != nil && generic.IsYesterday(prev.Date, date) {
		effects = collectCarryOvers(prev)
	}

	baseTime := generic.ClampMinutes(settings.BaseTime, settings.MaxTime)
	var deferred []CarryOverEffect
	applied := 0
	if offline {
		deferred = append(deferred, effects...)
	} else {
		total := 0
		for _, e := range effects {
			total += e.DeltaMinutes
		}
		charged := generic.ClampMinutes(baseTime-total, settings.MaxTime)
		applied, baseTime = baseTime-charged, charged
	}

	ts := nowMillis()
	events := make([]Event, 0, len(effects))
	for _, e := range effects {
		text := e.Text
		if offline {
			text += " (postponed to the next day with screens)"
		}
		events = append(events, Event{ID: generic.NewID(), Timestamp: ts, Text: text, Type: EventInfo})
	}

	return &DayLog{
		Date:               date,
		ChildID:            childID,
		BaseTime:           baseTime,
		MaxTime:            settings.MaxTime,
		CurrentTime:        baseTime,
		IsOfflineDay:       offline,
		XPMultiplier:       multiplierFor(offline, settings),
		Quests:             stampQuests(templates.DailyQuests, childID),
		Events:             events,
		CarryOverEffects:   effects,
		CarryOverApplied:   applied,
		DeferredCarryOvers: deferred,
	}
}

func collectCarryOvers(prev *DayLog) []CarryOverEffect {
	var out []CarryOverEffect

	for _, p := range prev.Penalties {
		if p.CarryToNextDay && p.NextDayPenalty > 0 {
			out = append(out, CarryOverEffect{
				Text:         fmt.Sprintf("Consequence from yesterday: %q → −%d min from base time", p.Text, p.NextDayPenalty),
				DeltaMinutes: p.NextDayPenalty,
				Source:       SourcePenalty,
				OriginDate:   prev.Date,
			})
		}
	}

	for _, q := range prev.Quests {
		if q.Status == QuestFailed && q.HasNextDayConsequence && q.NextDayPenalty > 0 {
			out = append(out, CarryOverEffect{
				Text:         fmt.Sprintf("Unfinished quest yesterday: %q → −%d min from base time", q.Text, q.NextDayPenalty),
				DeltaMinutes: q.NextDayPenalty,
				Source:       SourceQuest,
				OriginDate:   prev.Date,
			})
		}
	}

	for _, b := range prev.Bonuses {
		if b.HasNextDayConsequence && b.NextDayBonus > 0 {
			out = append(out, CarryOverEffect{
				Text:         fmt.Sprintf("Bonus from yesterday: %q → +%d min to base time", b.Text, b.NextDayBonus),
				DeltaMinutes: -b.NextDayBonus,
				Source:       SourceBonus,
				OriginDate:   prev.Date,
			})
		}
	}

	for _, d := range prev.DeferredCarryOvers {
		if d.Source != SourceDeferred {
			d.Text = "From previous days: " + d.Text
			d.Source = SourceDeferred
		}
		out = append(out, d)
	}

	return out
}

// IsAssigned reports whether a template with assignedTo applies to childID.
// Empty or containing "all" means everyone.
func IsAssigned(assignedTo []string, childID string) bool {
	if len(assignedTo) == 0 {
		return true
	}
	for _, a := range assignedTo {
		if a == AssignAll || (childID != "" && a == childID) {
			return true
		}
	}
	return false
}

func stampQuests(templates []QuestTemplate, childID string) []Quest {
	quests := make([]Quest, 0, len(templates))
	for _, t := range templates {
		if !IsAssigned(t.AssignedTo, childID) {
			continue
		}
		quests = append(quests, Quest{
			ID:                    generic.NewID(),
			TemplateID:            t.ID,
			Text:                  t.Text,
			Icon:                  t.Icon,
			Category:              t.Category,
			PenaltyMinutes:        t.PenaltyMinutes,
			HasNextDayConsequence: t.HasNextDayConsequence,
			NextDayPenalty:        t.NextDayPenalty,
			XPReward:              t.XPReward,
			Status:                QuestPending,
		})
	}
	return quests
}
