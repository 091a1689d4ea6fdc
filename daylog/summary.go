package daylog

import (
	"sort"

	"github.com/warp/quest-engine/generic"
)

// DefaultRetentionDays is how long ledgers keep their detail.
const DefaultRetentionDays = 14

// =============================================================================
// SUMMARY
// =============================================================================

// DayStats are the count-level statistics that survive compaction.
type DayStats struct {
	CompletedQuests     int `json:"completedQuests"`
	FailedQuests        int `json:"failedQuests"`
	TotalQuests         int `json:"totalQuests"`
	BonusCount          int `json:"bonusCount"`
	PenaltyCount        int `json:"penaltyCount"`
	TotalBonusMinutes   int `json:"totalBonusMinutes"`
	TotalPenaltyMinutes int `json:"totalPenaltyMinutes"`
	QuestPenaltyMinutes int `json:"questPenaltyMinutes"`
}

// DaySummary is the end-of-day view of a ledger.
type DaySummary struct {
	DayStats
	XPEarned          int       `json:"xpEarned"`
	BaseTime          int       `json:"baseTime"`
	MaxTime           int       `json:"maxTime"`
	FinalTime         int       `json:"finalTime"`
	NextDayCarryOvers []Penalty `json:"nextDayCarryOvers"`
}

// CalculateDaySummary aggregates a ledger. For a compacted ledger the
// preserved stats are echoed and NextDayCarryOvers is empty.
func CalculateDaySummary(l *DayLog) DaySummary {
	s := DaySummary{
		XPEarned:          l.XPEarned,
		BaseTime:          l.BaseTime,
		MaxTime:           l.MaxTime,
		FinalTime:         l.CurrentTime,
		NextDayCarryOvers: []Penalty{},
	}
	if l.IsCompacted {
		if l.Stats != nil {
			s.DayStats = *l.Stats
		}
		return s
	}

	s.DayStats = computeStats(l)
	for _, p := range l.Penalties {
		if p.CarryToNextDay {
			s.NextDayCarryOvers = append(s.NextDayCarryOvers, p)
		}
	}
	return s
}

func computeStats(l *DayLog) DayStats {
	st := DayStats{
		TotalQuests:  len(l.Quests),
		BonusCount:   len(l.Bonuses),
		PenaltyCount: len(l.Penalties),
	}
	for _, q := range l.Quests {
		switch q.Status {
		case QuestDone:
			st.CompletedQuests++
		case QuestFailed:
			st.FailedQuests++
			st.QuestPenaltyMinutes += q.PenaltyMinutes
		}
	}
	for _, b := range l.Bonuses {
		st.TotalBonusMinutes += b.RewardMinutes
	}
	for _, p := range l.Penalties {
		st.TotalPenaltyMinutes += p.PenaltyMinutes
	}
	return st
}

// =============================================================================
// COMPACTION - one-way, lossy
// =============================================================================

// CompactDayLog projects l onto its terminal summary form. Quests, bonuses,
// penalties, events and carry-over lists are dropped permanently. An already
// compacted ledger is returned as-is.
func CompactDayLog(l *DayLog) *DayLog {
	if l.IsCompacted {
		return l
	}
	st := computeStats(l)
	return &DayLog{
		Date:         l.Date,
		ChildID:      l.ChildID,
		BaseTime:     l.BaseTime,
		MaxTime:      l.MaxTime,
		CurrentTime:  l.CurrentTime,
		IsOfflineDay: l.IsOfflineDay,
		XPMultiplier: l.XPMultiplier,
		XPEarned:     l.XPEarned,
		IsCompacted:  true,
		Stats:        &st,
	}
}

// CompactOldLogs compacts every ledger strictly older than
// today - retentionDays. See CompactOldLogsAsOf.
func CompactOldLogs(logs map[string]*DayLog, retentionDays int) (map[string]*DayLog, bool) {
	return CompactOldLogsAsOf(logs, retentionDays, generic.TodayString())
}

// CompactOldLogsAsOf is CompactOldLogs with an explicit "today".
//
// The result is a new map. Entries that are already compacted or still
// inside the window keep the same pointer. changed reports whether any
// entry was replaced.
func CompactOldLogsAsOf(logs map[string]*DayLog, retentionDays int, today string) (map[string]*DayLog, bool) {
	cutoff := generic.AddDays(today, -retentionDays)
	out := make(map[string]*DayLog, len(logs))
	changed := false
	for date, l := range logs {
		if l == nil || l.IsCompacted || !(date < cutoff) {
			out[date] = l
			continue
		}
		out[date] = CompactDayLog(l)
		changed = true
	}
	return out, changed
}

// SortedDates returns the keys of logs in ascending date order.
func SortedDates(logs map[string]*DayLog) []string {
	dates := make([]string, 0, len(logs))
	for d := range logs {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// LatestBefore returns the most recent ledger dated strictly before date.
func LatestBefore(logs map[string]*DayLog, date string) *DayLog {
	var best *DayLog
	bestDate := ""
	for d, l := range logs {
		if d < date && d > bestDate {
			best, bestDate = l, d
		}
	}
	return best
}
