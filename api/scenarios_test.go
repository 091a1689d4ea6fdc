/*
scenarios_test.go - Tests for the demo household loaders

PURPOSE:
	Each scenario must load cleanly through the service and leave the
	household in the state its description promises. Loading twice must
	not accumulate children.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/generic"
)

func TestScenarios_AllLoad(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			_, h := newTestRouter(t)

			res, err := h.loadScenario(context.Background(), s.ID)

			require.NoError(t, err)
			assert.Equal(t, s, res.Scenario)
			assert.NotEmpty(t, res.Children)
			_, ok := scenarioLoaders[s.ID]
			assert.True(t, ok)
		})
	}
}

func TestScenario_SchoolWeek(t *testing.T) {
	// GIVEN: The school week scenario
	_, h := newTestRouter(t)
	ctx := context.Background()

	// WHEN: Loading it
	res, err := h.loadScenario(ctx, "school-week")
	require.NoError(t, err)

	// THEN: Two children with a week of ledgers each
	require.Len(t, res.Children, 2)
	ala, olek := res.Children[0], res.Children[1]
	assert.Greater(t, ala.XP, olek.XP)

	logs, err := h.Service.DayLogs(ctx, ala.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 7)

	// AND: Ala's failed bedroom clean shortened the next day
	failedDay := logs[generic.AddDays(testToday, -4)]
	require.Len(t, failedDay.CarryOverEffects, 1)
	assert.Equal(t, 50, failedDay.BaseTime)

	// AND: Olek's carried penalty and personal limits apply today
	today, _, err := h.Service.GetOrCreateDayLog(ctx, olek.ID, testToday)
	require.NoError(t, err)
	assert.Equal(t, 35, today.BaseTime)
	assert.Equal(t, 75, today.MaxTime)
}

func TestScenario_OfflineWeekend(t *testing.T) {
	_, h := newTestRouter(t)
	ctx := context.Background()

	res, err := h.loadScenario(ctx, "offline-weekend")
	require.NoError(t, err)

	l, err := h.Service.DayLog(ctx, res.Children[0].ID, testToday)
	require.NoError(t, err)
	assert.True(t, l.IsOfflineDay)
	assert.Equal(t, 2, l.XPMultiplier)
	assert.Equal(t, 600+2*2*150, l.XPEarned, "three quests and two missions at double XP")
}

func TestScenario_Cursed(t *testing.T) {
	_, h := newTestRouter(t)

	res, err := h.loadScenario(context.Background(), "cursed")

	require.NoError(t, err)
	c := res.Children[0]
	assert.True(t, c.Curse.IsActive)
	assert.Equal(t, 5, c.Curse.GatheredPoints)
	require.Len(t, c.Inventory, 1)
	assert.Equal(t, "Movie night", c.Inventory[0].Name)
}

func TestScenario_ReloadReplacesHousehold(t *testing.T) {
	r, h := newTestRouter(t)
	addChild(t, r, "Extra")

	_, err := h.loadScenario(context.Background(), "first-day")
	require.NoError(t, err)
	_, err = h.loadScenario(context.Background(), "first-day")
	require.NoError(t, err)

	children, err := h.Service.ListChildren(context.Background())
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Ala", children[0].Name)
}

func TestScenarioEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	list := decode[[]ScenarioDTO](t, do(t, r, http.MethodGet, "/api/scenarios", nil))
	assert.Len(t, list, len(scenarios))
	assert.Equal(t, "null\n", do(t, r, http.MethodGet, "/api/scenarios/current", nil).Body.String())

	rec := do(t, r, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "cursed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	current := decode[ScenarioDTO](t, do(t, r, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "cursed", current.ID)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}).Code)

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/admin/reset", nil).Code)
	assert.Empty(t, decode[[]map[string]any](t, do(t, r, http.MethodGet, "/api/children", nil)))
	assert.Equal(t, "null\n", do(t, r, http.MethodGet, "/api/scenarios/current", nil).Body.String())
}
