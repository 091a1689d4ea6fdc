/*
scenarios.go - Demo household loaders for testing and demonstrations

PURPOSE:

	Provides pre-built households that populate the store with realistic
	data for demos and frontend development. Each scenario creates
	children and replays a few days of quests, bonuses and penalties
	through the same service calls the API uses.

AVAILABLE SCENARIOS:

	first-day:        One child, a fresh ledger for today
	school-week:      Two siblings, six days of history with carry-overs
	offline-weekend:  Weekends offline, today forced offline for double XP
	cursed:           A child under a curse holding a voucher

HOW SCENARIOS WORK:
 1. Reset the household (remove children, default templates and settings)
 2. Apply scenario settings
 3. Create children
 4. Replay each day plan, oldest first, so carry-overs chain naturally

USAGE VIA API:

	POST /api/scenarios/load
	{"scenarioId": "school-week"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a loader to 'scenarioLoaders'

NOTE:

	Scenarios wipe the household. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: The service calls the plans replay
  - daylog/defaults.go: Template ids used in the plans
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/household"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a demo household.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest names the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenarioId"`
}

// LoadScenarioResponse reports what a load created.
type LoadScenarioResponse struct {
	Scenario ScenarioDTO       `json:"scenario"`
	Children []household.Child `json:"children"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "first-day",
		Name:        "First Day",
		Description: "One child with a fresh ledger for today",
	},
	{
		ID:          "school-week",
		Name:        "School Week",
		Description: "Two siblings with six days of history, failed evening quests and carried penalties",
	},
	{
		ID:          "offline-weekend",
		Name:        "Offline Weekend",
		Description: "Weekends are offline days; today is forced offline with double XP",
	},
	{
		ID:          "cursed",
		Name:        "Cursed",
		Description: "A child under a curse, halfway to being freed, holding a movie voucher",
	},
}

type scenarioLoader func(ctx context.Context, svc *household.Service, today string) error

var scenarioLoaders = map[string]scenarioLoader{
	"first-day":       loadFirstDayScenario,
	"school-week":     loadSchoolWeekScenario,
	"offline-weekend": loadOfflineWeekendScenario,
	"cursed":          loadCursedScenario,
}

// scenarioState tracks the last loaded scenario.
type scenarioState struct {
	mu      sync.Mutex
	current string
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenario.mu.Lock()
	current := h.scenario.current
	h.scenario.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario wipes the household and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.loadScenario(r.Context(), req.ScenarioID)
	if err != nil {
		writeServiceError(w, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ResetHousehold wipes the household without loading anything.
func (h *Handler) ResetHousehold(w http.ResponseWriter, r *http.Request) {
	if err := resetHousehold(r.Context(), h.Service); err != nil {
		writeServiceError(w, "Failed to reset household", err)
		return
	}
	h.scenario.mu.Lock()
	h.scenario.current = ""
	h.scenario.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadScenario(ctx context.Context, id string) (LoadScenarioResponse, error) {
	load, ok := scenarioLoaders[id]
	if !ok {
		return LoadScenarioResponse{}, &generic.ValidationError{
			Field: "scenarioId", Message: fmt.Sprintf("unknown scenario %q", id), Kind: generic.ErrInvalidInput,
		}
	}

	h.scenario.mu.Lock()
	defer h.scenario.mu.Unlock()

	if err := resetHousehold(ctx, h.Service); err != nil {
		return LoadScenarioResponse{}, err
	}
	if err := load(ctx, h.Service, h.today()); err != nil {
		return LoadScenarioResponse{}, fmt.Errorf("scenario %s: %w", id, err)
	}
	h.scenario.current = id

	children, err := h.Service.ListChildren(ctx)
	if err != nil {
		return LoadScenarioResponse{}, err
	}
	for _, s := range scenarios {
		if s.ID == id {
			return LoadScenarioResponse{Scenario: s, Children: children}, nil
		}
	}
	return LoadScenarioResponse{Scenario: ScenarioDTO{ID: id, Name: id}, Children: children}, nil
}

func resetHousehold(ctx context.Context, svc *household.Service) error {
	children, err := svc.ListChildren(ctx)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := svc.RemoveChild(ctx, c.ID); err != nil {
			return err
		}
	}
	if err := svc.ReplaceTemplates(ctx, daylog.DefaultTemplates()); err != nil {
		return err
	}
	return svc.UpdateSettings(ctx, daylog.DefaultSettings())
}

// =============================================================================
// DAY PLANS
// =============================================================================

type penaltyStep struct {
	templateID string
	carry      bool
}

// dayPlan is what happened on one day, offset days before today.
// Quests and missions are named by template id.
type dayPlan struct {
	offset    int
	complete  []string
	fail      []string
	bonuses   []string
	penalties []penaltyStep
}

var morningAndAfternoon = []string{"dq-1", "dq-2", "dq-3", "dq-4", "dq-5", "dq-6", "dq-7"}

// replay applies plans to childID oldest first.
func replay(ctx context.Context, svc *household.Service, childID, today string, plans []dayPlan) error {
	for _, p := range plans {
		date := generic.AddDays(today, -p.offset)
		l, _, err := svc.GetOrCreateDayLog(ctx, childID, date)
		if err != nil {
			return err
		}
		for _, tid := range p.complete {
			if qid, ok := questInstance(l, tid); ok {
				if l, _, err = svc.CompleteQuest(ctx, childID, date, qid); err != nil {
					return err
				}
			}
		}
		for _, tid := range p.fail {
			if qid, ok := questInstance(l, tid); ok {
				if l, _, err = svc.FailQuest(ctx, childID, date, qid); err != nil {
					return err
				}
			}
		}
		for _, mid := range p.bonuses {
			if l, _, err = svc.CompleteBonusMission(ctx, childID, date, mid); err != nil {
				return err
			}
		}
		for _, ps := range p.penalties {
			if l, _, err = svc.ApplyPenalty(ctx, childID, date, ps.templateID, ps.carry); err != nil {
				return err
			}
		}
	}
	return nil
}

func questInstance(l *daylog.DayLog, templateID string) (string, bool) {
	for _, q := range l.Quests {
		if q.TemplateID == templateID {
			return q.ID, true
		}
	}
	return "", false
}

// =============================================================================
// LOADERS
// =============================================================================

func loadFirstDayScenario(ctx context.Context, svc *household.Service, today string) error {
	c, err := svc.AddChild(ctx, "Ala", "🦊")
	if err != nil {
		return err
	}
	_, _, err = svc.GetOrCreateDayLog(ctx, c.ID, today)
	return err
}

func loadSchoolWeekScenario(ctx context.Context, svc *household.Service, today string) error {
	ala, err := svc.AddChild(ctx, "Ala", "🦊")
	if err != nil {
		return err
	}
	olek, err := svc.AddChild(ctx, "Olek", "🐻")
	if err != nil {
		return err
	}
	base, maxTime := 45, 75
	if _, err := svc.UpdateChild(ctx, olek.ID, household.ChildPatch{BaseTime: &base, MaxTime: &maxTime}); err != nil {
		return err
	}

	// Ala: steady, one missed bedroom clean mid-week.
	alaWeek := []dayPlan{
		{offset: 6, complete: append(morningAndAfternoon, "dq-8", "dq-9", "dq-10"), bonuses: []string{"bm-1"}},
		{offset: 5, complete: append(morningAndAfternoon, "dq-9", "dq-10"), fail: []string{"dq-8"}},
		{offset: 4, complete: append(morningAndAfternoon, "dq-8", "dq-9", "dq-10"), bonuses: []string{"bm-8", "bm-8"}},
		{offset: 3, complete: morningAndAfternoon},
		{offset: 2, complete: append(morningAndAfternoon, "dq-8", "dq-9", "dq-10"), bonuses: []string{"bm-4"}},
		{offset: 1, complete: append(morningAndAfternoon, "dq-8", "dq-9", "dq-10")},
		{offset: 0, complete: []string{"dq-1", "dq-2"}},
	}
	if err := replay(ctx, svc, ala.ID, today, alaWeek); err != nil {
		return err
	}

	// Olek: rougher week, a carried penalty into today.
	olekWeek := []dayPlan{
		{offset: 6, complete: []string{"dq-1", "dq-2", "dq-3"}, fail: []string{"dq-4"}},
		{offset: 5, complete: morningAndAfternoon, fail: []string{"dq-9"}, penalties: []penaltyStep{{"pn-5", false}}},
		{offset: 4, complete: append(morningAndAfternoon, "dq-8", "dq-10"), bonuses: []string{"bm-2"}},
		{offset: 3, complete: morningAndAfternoon, fail: []string{"dq-10"}},
		{offset: 2, complete: append(morningAndAfternoon, "dq-8", "dq-9", "dq-10")},
		{offset: 1, complete: morningAndAfternoon, penalties: []penaltyStep{{"pn-4", true}}},
		{offset: 0},
	}
	return replay(ctx, svc, olek.ID, today, olekWeek)
}

func loadOfflineWeekendScenario(ctx context.Context, svc *household.Service, today string) error {
	settings := daylog.DefaultSettings()
	settings.OfflineDaysSchedule = []int{0, 6}
	settings.OfflineDaysOverride[today] = true
	if err := svc.UpdateSettings(ctx, settings); err != nil {
		return err
	}

	c, err := svc.AddChild(ctx, "Ala", "🦊")
	if err != nil {
		return err
	}
	return replay(ctx, svc, c.ID, today, []dayPlan{
		{offset: 1, complete: morningAndAfternoon},
		{offset: 0, complete: []string{"dq-1", "dq-2", "dq-3"}, bonuses: []string{"bm-5", "bm-6"}},
	})
}

func loadCursedScenario(ctx context.Context, svc *household.Service, today string) error {
	c, err := svc.AddChild(ctx, "Olek", "🐻")
	if err != nil {
		return err
	}
	if _, err := svc.ApplyCurse(ctx, c.ID, 10, 0); err != nil {
		return err
	}
	if _, err := svc.UpdateCursePoints(ctx, c.ID, 5, 0); err != nil {
		return err
	}
	if _, err := svc.GiveVoucher(ctx, c.ID, household.VoucherSpec{Name: "Movie night", Value: 30}); err != nil {
		return err
	}
	return replay(ctx, svc, c.ID, today, []dayPlan{
		{offset: 0, complete: []string{"dq-1"}, penalties: []penaltyStep{{"pn-1", false}}},
	})
}
