package daylog

import "github.com/warp/quest-engine/generic"

// SyncOfflineStatus re-evaluates l's offline flag against settings, for when
// a parent toggles a date after its ledger was created.
//
// Going offline gives back the carry-over minutes actually charged to
// baseTime (CarryOverApplied, which accounts for clamping) and defers the
// effects. Coming back online charges the deferred effects, clamped, and
// records the new CarryOverApplied. currentTime moves by the same amount
// baseTime did. The XP multiplier follows the new flag; XP already granted
// stays.
func SyncOfflineStatus(l *DayLog, settings Settings) (*DayLog, bool) {
	if l.IsCompacted {
		return l, false
	}
	offline := IsOfflineDay(l.Date, settings)
	if offline == l.IsOfflineDay {
		return l, false
	}

	next := l.clone()
	next.IsOfflineDay = offline
	next.XPMultiplier = multiplierFor(offline, settings)

	var base int
	if offline {
		base = generic.ClampMinutes(next.BaseTime+next.CarryOverApplied, next.MaxTime)
		next.CarryOverApplied = 0
		next.DeferredCarryOvers = append([]CarryOverEffect(nil), next.CarryOverEffects...)
		next.appendEvent("📵 Day switched to offline; carry-over postponed to the next day with screens", EventInfo)
	} else {
		total := 0
		for _, e := range next.DeferredCarryOvers {
			total += e.DeltaMinutes
		}
		base = generic.ClampMinutes(next.BaseTime-total, next.MaxTime)
		next.CarryOverApplied = next.BaseTime - base
		next.DeferredCarryOvers = nil
		next.appendEvent("📱 Day switched back online; postponed carry-over applied", EventInfo)
	}

	if delta := base - next.BaseTime; delta != 0 {
		next.BaseTime = base
		next.CurrentTime = generic.ClampMinutes(next.CurrentTime+delta, next.MaxTime)
	}
	return next, true
}
