package daylog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/daylog"
)

// tuesdayWithCarry returns Tuesday's ledger with one carried penalty, and
// Wednesday's ledger built from it under settings.
func tuesdayWithCarry(t *testing.T, settings daylog.Settings) *daylog.DayLog {
	t.Helper()
	tue := daylog.CreateDayLog("2025-01-14", daylog.DefaultTemplates(), settings, "kid-1", nil)
	tue, _ = daylog.ApplyPenalty(tue, carryPenalty(15), true)
	return daylog.CreateDayLog("2025-01-15", daylog.DefaultTemplates(), settings, "kid-1", tue)
}

func TestSyncOfflineStatus_Unchanged(t *testing.T) {
	settings := daylog.DefaultSettings()
	wed := tuesdayWithCarry(t, settings)

	next, changed := daylog.SyncOfflineStatus(wed, settings)

	assert.False(t, changed)
	assert.Same(t, wed, next)
}

func TestSyncOfflineStatus_GoingOfflineRefundsCarryOver(t *testing.T) {
	// GIVEN: Wednesday online, base cut from 60 to 45
	settings := daylog.DefaultSettings()
	wed := tuesdayWithCarry(t, settings)
	require.Equal(t, 45, wed.BaseTime)
	wed, _ = daylog.ApplyPenalty(wed, penalty(5, 0), false)
	require.Equal(t, 40, wed.CurrentTime)

	// WHEN: The parent marks Wednesday offline
	settings.OfflineDaysOverride = map[string]bool{"2025-01-15": true}
	next, changed := daylog.SyncOfflineStatus(wed, settings)

	// THEN: The carry-over is refunded and deferred; today's penalty stays
	require.True(t, changed)
	assert.True(t, next.IsOfflineDay)
	assert.Equal(t, settings.XPMultiplierOffline, next.XPMultiplier)
	assert.Equal(t, 60, next.BaseTime)
	assert.Equal(t, 55, next.CurrentTime)
	require.Len(t, next.DeferredCarryOvers, 1)
	assert.Equal(t, 15, next.DeferredCarryOvers[0].DeltaMinutes)
	assert.Equal(t, daylog.EventInfo, next.Events[len(next.Events)-1].Type)
}

func TestSyncOfflineStatus_ComingOnlineCharges(t *testing.T) {
	// GIVEN: Wednesday created offline with a deferred 15
	settings := offlineMidweek()
	wed := tuesdayWithCarry(t, settings)
	require.True(t, wed.IsOfflineDay)
	require.Equal(t, 60, wed.BaseTime)

	// WHEN: Wednesday is forced online
	settings.OfflineDaysOverride = map[string]bool{"2025-01-15": false}
	next, changed := daylog.SyncOfflineStatus(wed, settings)

	// THEN
	require.True(t, changed)
	assert.False(t, next.IsOfflineDay)
	assert.Equal(t, 1, next.XPMultiplier)
	assert.Equal(t, 45, next.BaseTime)
	assert.Equal(t, 45, next.CurrentTime)
	assert.Empty(t, next.DeferredCarryOvers)
}

func TestSyncOfflineStatus_RoundTrip(t *testing.T) {
	settings := daylog.DefaultSettings()
	wed := tuesdayWithCarry(t, settings)

	settings.OfflineDaysOverride = map[string]bool{"2025-01-15": true}
	off, _ := daylog.SyncOfflineStatus(wed, settings)
	settings.OfflineDaysOverride["2025-01-15"] = false
	on, _ := daylog.SyncOfflineStatus(off, settings)

	assert.Equal(t, wed.BaseTime, on.BaseTime)
	assert.Equal(t, wed.CurrentTime, on.CurrentTime)
	assert.Empty(t, on.DeferredCarryOvers)
}

func TestSyncOfflineStatus_ClampedCarryOverRoundTripsExactly(t *testing.T) {
	// GIVEN: A 100 minute carry-over that clamps Wednesday's base from 60 to 0
	settings := daylog.DefaultSettings()
	tue := daylog.CreateDayLog("2025-01-14", daylog.DefaultTemplates(), settings, "kid-1", nil)
	tue, _ = daylog.ApplyPenalty(tue, carryPenalty(100), true)
	wed := daylog.CreateDayLog("2025-01-15", daylog.DefaultTemplates(), settings, "kid-1", tue)
	require.Equal(t, 0, wed.BaseTime)
	require.Equal(t, 60, wed.CarryOverApplied)

	// WHEN: The day goes offline
	settings.OfflineDaysOverride = map[string]bool{"2025-01-15": true}
	off, _ := daylog.SyncOfflineStatus(wed, settings)

	// THEN: The household base comes back, not base plus the full 100
	assert.Equal(t, 60, off.BaseTime)
	assert.Equal(t, 60, off.CurrentTime)
	assert.Zero(t, off.CarryOverApplied)

	// AND: Back online the clamp is charged again
	settings.OfflineDaysOverride["2025-01-15"] = false
	on, _ := daylog.SyncOfflineStatus(off, settings)
	assert.Equal(t, 0, on.BaseTime)
	assert.Equal(t, 60, on.CarryOverApplied)
}

func TestSyncOfflineStatus_CompactedIsNoOp(t *testing.T) {
	c := daylog.CompactDayLog(newLog(t, "2025-01-15"))
	settings := daylog.DefaultSettings()
	settings.OfflineDaysOverride = map[string]bool{"2025-01-15": true}

	next, changed := daylog.SyncOfflineStatus(c, settings)

	assert.False(t, changed)
	assert.Same(t, c, next)
}
