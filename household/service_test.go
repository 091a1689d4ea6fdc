package household_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/household"
	"github.com/warp/quest-engine/household/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newService(t *testing.T) (*household.Service, household.Child) {
	t.Helper()
	svc := household.NewService(store.NewMemory())
	child, err := svc.AddChild(context.Background(), "Ala", "🦊")
	require.NoError(t, err)
	return svc, child
}

func intPtr(v int) *int { return &v }

// =============================================================================
// CHILDREN
// =============================================================================

func TestAddChild(t *testing.T) {
	ctx := context.Background()
	svc, ala := newService(t)

	ola, err := svc.AddChild(ctx, "  Ola ", "🐱")
	require.NoError(t, err)

	assert.Equal(t, "Ola", ola.Name)
	assert.Equal(t, 0, ola.XP)
	assert.False(t, ola.Curse.IsActive)
	assert.NotEqual(t, ala.ID, ola.ID)

	children, err := svc.ListChildren(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, ala.ID, children[0].ID, "creation order")
}

func TestAddChild_RequiresName(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.AddChild(context.Background(), "   ", "")

	assert.ErrorIs(t, err, generic.ErrInvalidInput)
	assert.True(t, generic.IsClientError(err))
}

func TestUpdateChild_Limits(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	updated, err := svc.UpdateChild(ctx, child.ID, household.ChildPatch{BaseTime: intPtr(30), MaxTime: intPtr(45)})
	require.NoError(t, err)
	assert.Equal(t, 30, *updated.BaseTime)

	_, err = svc.UpdateChild(ctx, child.ID, household.ChildPatch{MaxTime: intPtr(10)})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	cleared, err := svc.UpdateChild(ctx, child.ID, household.ChildPatch{ClearLimits: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.BaseTime)
	assert.Nil(t, cleared.MaxTime)
}

func TestRemoveChild_DropsLedgers(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	_, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveChild(ctx, child.ID))

	_, err = svc.DayLogs(ctx, child.ID)
	assert.ErrorIs(t, err, generic.ErrChildNotFound)
	assert.True(t, generic.IsNotFound(svc.RemoveChild(ctx, child.ID)))
}

// =============================================================================
// DAY LEDGERS
// =============================================================================

func TestGetOrCreateDayLog_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	first, created, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Quests[0].ID, second.Quests[0].ID, "same ledger, not a new stamp")
}

func TestGetOrCreateDayLog_Errors(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	_, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "15/01/2025")
	assert.ErrorIs(t, err, generic.ErrInvalidDate)

	_, _, err = svc.GetOrCreateDayLog(ctx, "nobody", "2025-01-15")
	assert.ErrorIs(t, err, generic.ErrChildNotFound)
}

func TestGetOrCreateDayLog_PerChildLimits(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	_, err := svc.UpdateChild(ctx, child.ID, household.ChildPatch{BaseTime: intPtr(30), MaxTime: intPtr(45)})
	require.NoError(t, err)

	l, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)

	assert.Equal(t, 30, l.BaseTime)
	assert.Equal(t, 45, l.MaxTime)
}

func TestGetOrCreateDayLog_CarryOverFromYesterday(t *testing.T) {
	// GIVEN: A carried penalty on Tuesday
	ctx := context.Background()
	svc, child := newService(t)
	_, _, err := svc.ApplyPenalty(ctx, child.ID, "2025-01-14", "pn-4", true)
	require.NoError(t, err)

	// WHEN: Thursday is opened before Wednesday
	thu, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-16")
	require.NoError(t, err)
	wed, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)

	// THEN: Wednesday still sees Tuesday as its previous day
	assert.Equal(t, 60, thu.BaseTime, "Tuesday is not Thursday's yesterday")
	assert.Equal(t, 50, wed.BaseTime)
}

func TestMutate_TracksLifetimeXP(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	l, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	questID := l.Quests[0].ID

	_, changed, err := svc.CompleteQuest(ctx, child.ID, "2025-01-15", questID)
	require.NoError(t, err)
	require.True(t, changed)
	c, _ := svc.GetChild(ctx, child.ID)
	assert.Equal(t, 100, c.XP)

	_, changed, err = svc.CompleteQuest(ctx, child.ID, "2025-01-15", questID)
	require.NoError(t, err)
	assert.False(t, changed, "second completion is a no-op")
	c, _ = svc.GetChild(ctx, child.ID)
	assert.Equal(t, 100, c.XP)

	_, _, err = svc.RevertQuest(ctx, child.ID, "2025-01-15", questID)
	require.NoError(t, err)
	c, _ = svc.GetChild(ctx, child.ID)
	assert.Equal(t, 0, c.XP)
}

func TestMutate_FailAndPersist(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	l, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)

	_, _, err = svc.FailQuest(ctx, child.ID, "2025-01-15", l.Quests[0].ID)
	require.NoError(t, err)

	stored, err := svc.DayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 50, stored.CurrentTime)
	assert.Equal(t, daylog.QuestFailed, stored.Quests[0].Status)
}

func TestCompleteBonusMission_Eligibility(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	l, changed, err := svc.CompleteBonusMission(ctx, child.ID, "2025-01-15", "bm-1")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 70, l.CurrentTime)

	_, _, err = svc.CompleteBonusMission(ctx, child.ID, "2025-01-15", "bm-1")
	assert.ErrorIs(t, err, generic.ErrNotEligible, "single use")

	_, _, err = svc.CompleteBonusMission(ctx, child.ID, "2025-01-15", "bm-404")
	assert.ErrorIs(t, err, generic.ErrTemplateNotFound)

	_, err = svc.AddBonusMission(ctx, daylog.BonusMissionTemplate{ID: "bm-x", Text: "Only Ola", RewardMinutes: 5, AssignedTo: []string{"someone-else"}})
	require.NoError(t, err)
	_, _, err = svc.CompleteBonusMission(ctx, child.ID, "2025-01-15", "bm-x")
	assert.ErrorIs(t, err, generic.ErrNotEligible, "not assigned")
}

func TestCompleteBonusMission_WithdrawTakesBackXP(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	l, _, err := svc.CompleteBonusMission(ctx, child.ID, "2025-01-15", "bm-8")
	require.NoError(t, err)
	c, _ := svc.GetChild(ctx, child.ID)
	require.Equal(t, 150, c.XP)

	_, _, err = svc.WithdrawBonus(ctx, child.ID, "2025-01-15", l.Bonuses[0].ID)
	require.NoError(t, err)

	c, _ = svc.GetChild(ctx, child.ID)
	assert.Equal(t, 0, c.XP)
}

func TestApplyPenalty_IneligibleRollsBack(t *testing.T) {
	// GIVEN: A child whose days start at zero minutes
	ctx := context.Background()
	svc, child := newService(t)
	_, err := svc.UpdateChild(ctx, child.ID, household.ChildPatch{BaseTime: intPtr(0)})
	require.NoError(t, err)

	// WHEN: A penalty is applied to a day not yet opened
	_, _, err = svc.ApplyPenalty(ctx, child.ID, "2025-01-15", "pn-1", false)

	// THEN: Refused, and the ledger created on the way is rolled back
	assert.ErrorIs(t, err, generic.ErrNotEligible)
	_, err = svc.DayLog(ctx, child.ID, "2025-01-15")
	assert.ErrorIs(t, err, generic.ErrDayLogNotFound)
}

func TestOnLedgerCreated_FiresAfterCommit(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	var created []string
	svc.OnLedgerCreated = func(childID, date string) { created = append(created, childID+"/"+date) }

	// WHEN: A mutation opens a new day, then touches it again
	_, _, err := svc.CompleteBonusMission(ctx, child.ID, "2025-01-15", "bm-8")
	require.NoError(t, err)
	_, _, err = svc.CompleteBonusMission(ctx, child.ID, "2025-01-15", "bm-8")
	require.NoError(t, err)
	_, _, err = svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-16")
	require.NoError(t, err)

	// AND: A refused mutation creates a ledger that is rolled back
	_, err = svc.UpdateChild(ctx, child.ID, household.ChildPatch{BaseTime: intPtr(0)})
	require.NoError(t, err)
	_, _, err = svc.ApplyPenalty(ctx, child.ID, "2025-01-17", "pn-1", false)
	require.ErrorIs(t, err, generic.ErrNotEligible)

	// THEN: Only committed creations are reported
	assert.Equal(t, []string{child.ID + "/2025-01-15", child.ID + "/2025-01-16"}, created)
}

func TestRemovePenalty(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	l, _, err := svc.ApplyPenalty(ctx, child.ID, "2025-01-15", "pn-2", false)
	require.NoError(t, err)
	require.Equal(t, 40, l.CurrentTime)

	l, changed, err := svc.RemovePenalty(ctx, child.ID, "2025-01-15", l.Penalties[0].ID)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 60, l.CurrentTime)
}

func TestSyncOffline(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	_, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)

	settings := daylog.DefaultSettings()
	settings.OfflineDaysOverride["2025-01-15"] = true
	require.NoError(t, svc.UpdateSettings(ctx, settings))

	l, changed, err := svc.SyncOffline(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, l.IsOfflineDay)
	assert.Equal(t, 2, l.XPMultiplier)

	_, changed, err = svc.SyncOffline(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestLevel(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	l, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	for _, q := range l.Quests[:5] {
		_, _, err := svc.CompleteQuest(ctx, child.ID, "2025-01-15", q.ID)
		require.NoError(t, err)
	}

	info, err := svc.Level(ctx, child.ID)

	require.NoError(t, err)
	assert.Equal(t, 500, info.TotalXP)
	assert.Equal(t, 1, info.Level)
	assert.Equal(t, 1500, info.NextLevelXP)
}

// =============================================================================
// COMPACTION
// =============================================================================

func TestCompactAll(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	for _, d := range []string{"2025-01-01", "2025-01-02", "2025-01-18"} {
		_, _, err := svc.GetOrCreateDayLog(ctx, child.ID, d)
		require.NoError(t, err)
	}

	n, err := svc.CompactAll(ctx, 14, "2025-01-19")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.CompactAll(ctx, 14, "2025-01-19")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "idempotent")

	old, err := svc.DayLog(ctx, child.ID, "2025-01-01")
	require.NoError(t, err)
	assert.True(t, old.IsCompacted)

	_, _, err = svc.FailQuest(ctx, child.ID, "2025-01-01", "anything")
	assert.ErrorIs(t, err, generic.ErrDayLogCompacted)
}

// =============================================================================
// TEMPLATES & SETTINGS
// =============================================================================

func TestTemplates_DefaultsThenEdits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	tmpl, err := svc.Templates(ctx)
	require.NoError(t, err)
	assert.Len(t, tmpl.DailyQuests, 10)

	tmpl, err = svc.AddQuest(ctx, daylog.QuestTemplate{ID: "dq-new", Text: "Water plants", Category: daylog.CategoryEvening, PenaltyMinutes: 5})
	require.NoError(t, err)
	assert.Len(t, tmpl.DailyQuests, 11)

	tmpl, err = svc.RemoveTemplate(ctx, daylog.KindQuest, "dq-1")
	require.NoError(t, err)
	assert.Len(t, tmpl.DailyQuests, 10)

	_, err = svc.RemoveTemplate(ctx, daylog.KindQuest, "dq-1")
	assert.ErrorIs(t, err, generic.ErrTemplateNotFound)

	_, err = svc.RemoveTemplate(ctx, "chores", "x")
	assert.ErrorIs(t, err, generic.ErrInvalidTemplate)
}

func TestTemplates_RemovalKeepsStampedQuests(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)
	before, _, err := svc.GetOrCreateDayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)

	_, err = svc.RemoveTemplate(ctx, daylog.KindQuest, "dq-1")
	require.NoError(t, err)

	after, err := svc.DayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	assert.Len(t, after.Quests, len(before.Quests))
}

func TestUpdateSettings_Validates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	bad := daylog.DefaultSettings()
	bad.MaxTime = 10

	err := svc.UpdateSettings(ctx, bad)

	assert.ErrorIs(t, err, generic.ErrInvalidSettings)
	s, _ := svc.Settings(ctx)
	assert.Equal(t, 90, s.MaxTime, "unchanged")
}

// =============================================================================
// VOUCHERS & CURSES
// =============================================================================

func TestVouchers(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	v, err := svc.GiveVoucher(ctx, child.ID, household.VoucherSpec{Name: "Extra cartoon", Value: 15})
	require.NoError(t, err)
	assert.Equal(t, household.VoucherTimeBonus, v.Type)
	assert.NotZero(t, v.CreatedAt)

	c, _ := svc.GetChild(ctx, child.ID)
	require.Len(t, c.Inventory, 1)

	c, err = svc.RemoveVoucher(ctx, child.ID, v.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Inventory)

	_, err = svc.RemoveVoucher(ctx, child.ID, v.ID)
	assert.ErrorIs(t, err, generic.ErrVoucherNotFound)

	_, err = svc.GiveVoucher(ctx, child.ID, household.VoucherSpec{Name: "Nothing", Value: 0})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestVoucher_Expired(t *testing.T) {
	assert.False(t, household.Voucher{}.Expired(1_000))
	assert.False(t, household.Voucher{ExpiresAt: 2_000}.Expired(1_000))
	assert.True(t, household.Voucher{ExpiresAt: 2_000}.Expired(2_000))
}

func TestCurse(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	c, err := svc.UpdateCursePoints(ctx, child.ID, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Curse.GatheredPoints, "no curse, no points")

	c, err = svc.ApplyCurse(ctx, child.ID, 20, 0)
	require.NoError(t, err)
	assert.True(t, c.Curse.IsActive)
	assert.Equal(t, household.DefaultNegotiationThreshold, c.Curse.NegotiationThreshold)

	c, err = svc.UpdateCursePoints(ctx, child.ID, 8, -25)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Curse.GatheredPoints)
	assert.Equal(t, 0, c.Curse.RequiredPoints, "floored at zero")

	c, err = svc.LiftCurse(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, c.Curse.IsActive)
	assert.Equal(t, 0, c.Curse.GatheredPoints)

	_, err = svc.ApplyCurse(ctx, child.ID, 0, 0.5)
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

// =============================================================================
// CURSE NEGOTIATION
// =============================================================================

func cursedChild(t *testing.T, required, gathered int) (*household.Service, household.Child) {
	t.Helper()
	ctx := context.Background()
	svc, child := newService(t)
	_, err := svc.ApplyCurse(ctx, child.ID, required, 0)
	require.NoError(t, err)
	c, err := svc.UpdateCursePoints(ctx, child.ID, gathered, 0)
	require.NoError(t, err)
	return svc, c
}

func TestRequestNegotiation_NeedsThreshold(t *testing.T) {
	ctx := context.Background()

	// GIVEN: 6 of 10 points, below the 0.7 default
	svc, child := cursedChild(t, 10, 6)

	// WHEN/THEN: The request is refused until the seventh point
	_, err := svc.RequestNegotiation(ctx, child.ID)
	assert.ErrorIs(t, err, generic.ErrNotEligible)

	_, err = svc.UpdateCursePoints(ctx, child.ID, 1, 0)
	require.NoError(t, err)
	c, err := svc.RequestNegotiation(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, c.Negotiation)
	assert.Equal(t, household.NegotiationRequested, c.Negotiation.Status)
}

func TestRequestNegotiation_NoCurse(t *testing.T) {
	svc, child := newService(t)

	_, err := svc.RequestNegotiation(context.Background(), child.ID)

	assert.ErrorIs(t, err, generic.ErrNotEligible)
}

func TestContract_AcceptAndComplete(t *testing.T) {
	ctx := context.Background()
	svc, child := cursedChild(t, 10, 8)
	_, err := svc.RequestNegotiation(ctx, child.ID)
	require.NoError(t, err)

	// GIVEN: A parent offers a contract
	c, err := svc.OfferContract(ctx, child.ID, household.ContractOffer{Text: "  Wash the car  "})
	require.NoError(t, err)
	assert.Equal(t, household.NegotiationOffered, c.Negotiation.Status)
	assert.Equal(t, "Wash the car", c.Negotiation.Contract.Text)

	// WHEN: The child accepts
	c, l, err := svc.RespondToContract(ctx, child.ID, "2025-01-15", true)

	// THEN: The task sits on that day's ledger
	require.NoError(t, err)
	assert.Equal(t, household.NegotiationAccepted, c.Negotiation.Status)
	assert.Equal(t, "2025-01-15", c.Negotiation.ContractDate)
	require.NotNil(t, l.ContractTask)
	assert.Equal(t, "Wash the car", l.ContractTask.Text)
	assert.True(t, c.Curse.IsActive, "curse holds until the task is done")

	// AND: Completing it marks the task and lifts the curse
	c, err = svc.CompleteContract(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, c.Curse.IsActive)
	assert.Nil(t, c.Negotiation)
	stored, err := svc.DayLog(ctx, child.ID, "2025-01-15")
	require.NoError(t, err)
	assert.True(t, stored.ContractTask.Done())

	_, err = svc.CompleteContract(ctx, child.ID)
	assert.ErrorIs(t, err, generic.ErrNotEligible)
}

func TestContract_RejectKeepsCurse(t *testing.T) {
	ctx := context.Background()
	svc, child := cursedChild(t, 10, 0)

	_, _, err := svc.RespondToContract(ctx, child.ID, "2025-01-15", false)
	assert.ErrorIs(t, err, generic.ErrNotEligible, "nothing offered yet")

	_, err = svc.OfferContract(ctx, child.ID, household.ContractOffer{Text: "Tidy the garage"})
	require.NoError(t, err)
	c, l, err := svc.RespondToContract(ctx, child.ID, "2025-01-15", false)

	require.NoError(t, err)
	assert.Nil(t, l)
	assert.Nil(t, c.Negotiation)
	assert.True(t, c.Curse.IsActive)
	_, err = svc.DayLog(ctx, child.ID, "2025-01-15")
	assert.ErrorIs(t, err, generic.ErrDayLogNotFound, "rejecting opens no ledger")
}

func TestContract_InvalidOffers(t *testing.T) {
	ctx := context.Background()
	svc, child := newService(t)

	_, err := svc.OfferContract(ctx, child.ID, household.ContractOffer{Text: " "})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = svc.OfferContract(ctx, child.ID, household.ContractOffer{Text: "Wash the car"})
	assert.ErrorIs(t, err, generic.ErrNotEligible, "no curse")
}

func TestLiftCurse_DropsNegotiation(t *testing.T) {
	ctx := context.Background()
	svc, child := cursedChild(t, 10, 9)
	_, err := svc.RequestNegotiation(ctx, child.ID)
	require.NoError(t, err)

	c, err := svc.LiftCurse(ctx, child.ID)

	require.NoError(t, err)
	assert.Nil(t, c.Negotiation)
}
