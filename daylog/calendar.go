package daylog

import (
	"time"

	"github.com/warp/quest-engine/generic"
)

// IsOfflineDay reports whether date is a screen-free day.
//
// An explicit override for the date wins over the weekday schedule. Absent
// both, the day is online.
func IsOfflineDay(date string, s Settings) bool {
	if v, ok := s.OfflineDaysOverride[date]; ok {
		return v
	}
	wd, ok := generic.Weekday(date)
	if !ok {
		return false
	}
	for _, d := range s.OfflineDaysSchedule {
		if time.Weekday(d) == wd {
			return true
		}
	}
	return false
}

// multiplierFor is the XP multiplier a ledger gets at creation.
func multiplierFor(offline bool, s Settings) int {
	if !offline {
		return 1
	}
	if s.XPMultiplierOffline < 1 {
		return 1
	}
	return s.XPMultiplierOffline
}

// Timestamps on events and instances. Tests may pin it.
var nowMillis = func() int64 { return time.Now().UnixMilli() }
