/*
defaults.go - Stock household configuration

PURPOSE:
  The settings and templates a new household starts with. A parent edits
  them afterwards; nothing in the engine depends on these exact values
  except the tests.

DEFAULTS:
  baseTime 60 min, maxTime 90 min, offline XP multiplier x2
  Levels:  500 / 1500 / 3000 / 5000 / 8000 XP
  Quests:  10 daily quests across morning, afternoon, evening, boss
  Bonus:   8 missions, 10 min each
  Penalty: 5 penalties, 10-40 min

SEE ALSO:
  - factory/template.go: JSON-based template creation
*/
package daylog

import "github.com/warp/quest-engine/generic"

// DefaultSettings returns a fresh copy of the stock settings.
func DefaultSettings() Settings {
	return Settings{
		BaseTime:            60,
		MaxTime:             90,
		TimeStep:            10,
		XPMultiplierOffline: 2,
		LevelThresholds: []generic.LevelThreshold{
			{Level: 1, XP: 500, Reward: "🍦 Ice cream"},
			{Level: 2, XP: 1500, Reward: "📖 A new book"},
			{Level: 3, XP: 3000, Reward: "🎮 An extra hour of gaming"},
			{Level: 4, XP: 5000, Reward: "🎬 Cinema with a parent"},
			{Level: 5, XP: 8000, Reward: "🎁 Surprise!"},
		},
		OfflineDaysSchedule: []int{},
		OfflineDaysOverride: map[string]bool{},
	}
}

func everyone() []string { return []string{AssignAll} }

func quest(id, text, icon string, cat Category, nextDay bool, xp int) QuestTemplate {
	q := QuestTemplate{
		ID: id, Text: text, Icon: icon, Category: cat,
		PenaltyMinutes: 10, XPReward: xp, AssignedTo: everyone(),
	}
	if nextDay {
		q.HasNextDayConsequence = true
		q.NextDayPenalty = 10
	}
	return q
}

func mission(id, text, icon string, multiUse bool) BonusMissionTemplate {
	return BonusMissionTemplate{
		ID: id, Text: text, Icon: icon, RewardMinutes: 10,
		MultiUse: multiUse, XPReward: 150, AssignedTo: everyone(),
	}
}

// DefaultTemplates returns a fresh copy of the stock template table.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		DailyQuests: []QuestTemplate{
			quest("dq-1", "Get up with the alarm (no grumbling!)", "⏰", CategoryMorning, false, 100),
			quest("dq-2", "Get dressed and wash up", "👕", CategoryMorning, false, 100),
			quest("dq-3", "Backpack packed", "🎒", CategoryMorning, false, 100),
			quest("dq-4", "Out of the house by 7:45", "🚪", CategoryMorning, false, 100),
			quest("dq-5", "Backpack back in its place", "🎒", CategoryAfternoon, false, 100),
			quest("dq-6", "Lunchbox and bottle to the kitchen", "🍱", CategoryAfternoon, false, 100),
			quest("dq-7", "Report on school and homework", "📋", CategoryAfternoon, false, 100),
			quest("dq-8", "Clean floor in the bedroom", "🧹", CategoryEvening, true, 100),
			quest("dq-9", "Dirty clothes in the basket, clean ones in the wardrobe", "👔", CategoryEvening, true, 100),
			quest("dq-10", "Go to bed on schedule", "🌙", CategoryBoss, true, 150),
		},
		BonusMissions: []BonusMissionTemplate{
			mission("bm-1", "Look after the gecko", "🦎", false),
			mission("bm-2", "Play with the cat", "🐈", false),
			mission("bm-3", "Fold the laundry", "👕", false),
			mission("bm-4", "Empty the dishwasher", "🍽️", false),
			mission("bm-5", "Vacuum the bedroom", "🌪️", false),
			mission("bm-6", "Mop the floor", "💦", false),
			mission("bm-7", "Take out the trash", "🗑️", false),
			mission("bm-8", "Read a book (20 min)", "📖", true),
		},
		Penalties: []PenaltyTemplate{
			{ID: "pn-1", Text: "Overran game time", Icon: "⏰", PenaltyMinutes: 10, AssignedTo: everyone()},
			{ID: "pn-2", Text: "Homework missing (owned up)", Icon: "🎒", PenaltyMinutes: 20, AssignedTo: everyone()},
			{ID: "pn-3", Text: "Note from the teacher", Icon: "📓", PenaltyMinutes: 40, HasNextDayConsequence: true, NextDayPenalty: 10, MultiUse: true, AssignedTo: everyone()},
			{ID: "pn-4", Text: "Messy room at bedtime", Icon: "🌪️", PenaltyMinutes: 10, HasNextDayConsequence: true, NextDayPenalty: 10, AssignedTo: everyone()},
			{ID: "pn-5", Text: "Arguing / bad behaviour", Icon: "🌩️", PenaltyMinutes: 10, MultiUse: true, AssignedTo: everyone()},
		},
	}
}
