/*
handlers.go - HTTP API handlers for the household quest engine

PURPOSE:
  Exposes the household service via REST API. Handles HTTP request and
  response, JSON serialization, and delegates to household.Service.

ENDPOINTS:
  Children:
    GET    /api/children                         List children
    POST   /api/children                         Add child
    GET    /api/children/{id}                    Get child
    PUT    /api/children/{id}                    Partial update
    DELETE /api/children/{id}                    Remove child and ledgers
    GET    /api/children/{id}/level              Level from lifetime XP

  Day ledgers ({date} is YYYY-MM-DD or "today"):
    GET    /api/children/{id}/days               History with summaries
    GET    /api/children/{id}/days/{date}        Get or create ledger
    GET    .../days/{date}/summary               Day summary
    GET    .../days/{date}/available             Child's board
    POST   .../days/{date}/sync-offline          Re-apply offline schedule
    POST   .../days/{date}/quests/{qid}/{action} complete | fail | revert
    POST   .../days/{date}/bonuses               {templateId}
    DELETE .../days/{date}/bonuses/{bonusID}     Withdraw bonus
    POST   .../days/{date}/penalties             {templateId, carryToNextDay}
    DELETE .../days/{date}/penalties/{penaltyID} Remove penalty

  Vouchers and curses:
    POST   /api/children/{id}/vouchers
    DELETE /api/children/{id}/vouchers/{voucherID}
    POST   /api/children/{id}/curse
    DELETE /api/children/{id}/curse
    POST   /api/children/{id}/curse/points
    POST   /api/children/{id}/curse/negotiation        Child asks for a contract
    POST   /api/children/{id}/curse/contract           Parent offers {text, icon}
    POST   /api/children/{id}/curse/contract/respond   {accept, date?}
    POST   /api/children/{id}/curse/contract/complete  Fulfil and lift the curse

  Household:
    GET    /api/templates                        Template table
    PUT    /api/templates                        Replace table
    POST   /api/templates/{kind}                 Add or replace one entry
    DELETE /api/templates/{kind}/{id}            Remove one entry
    GET    /api/settings
    PUT    /api/settings

  Admin:
    POST   /api/admin/compact                    Compact old ledgers now
    POST   /api/admin/reset                      Wipe the household

  Scenarios (scenarios.go):
    GET    /api/scenarios                        List demo households
    GET    /api/scenarios/current                Last loaded scenario
    POST   /api/scenarios/load                   Wipe and load a scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, ineligible actions, compacted ledgers
  - 404: Child, ledger, template or voucher not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The parent PIN lives in the client.

SEE ALSO:
  - dto.go:       Request/response data structures
  - scenarios.go: Demo household loaders
  - server.go:    Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/factory"
	"github.com/warp/quest-engine/generic"
	"github.com/warp/quest-engine/household"
	"github.com/warp/quest-engine/logging"
)

// todayAlias may be used in place of a date in day routes.
const todayAlias = "today"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service         *household.Service
	TemplateFactory *factory.TemplateFactory

	// RetentionDays is used by /api/admin/compact when the request names none.
	RetentionDays int

	today    func() string
	scenario scenarioState
}

// NewHandler creates a new handler over svc. Ledgers the service creates,
// including on first mutation of a day, are counted in LedgersCreated.
func NewHandler(svc *household.Service, retentionDays int) *Handler {
	svc.OnLedgerCreated = func(childID, date string) { LedgersCreated.Inc() }
	return &Handler{
		Service:         svc,
		TemplateFactory: factory.NewTemplateFactory(),
		RetentionDays:   retentionDays,
		today:           generic.TodayString,
	}
}

// date resolves the {date} URL parameter, expanding the "today" alias.
func (h *Handler) date(r *http.Request) string {
	d := chi.URLParam(r, "date")
	if d == todayAlias {
		return h.today()
	}
	return d
}

// =============================================================================
// CHILD HANDLERS
// =============================================================================

// ListChildren returns all children.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.Service.ListChildren(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to list children", err)
		return
	}
	if children == nil {
		children = []household.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

// CreateChild adds a child.
func (h *Handler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var req CreateChildRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.Service.AddChild(r.Context(), req.Name, req.Avatar)
	if err != nil {
		writeServiceError(w, "Failed to add child", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetChild returns a single child.
func (h *Handler) GetChild(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetChild(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to get child", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateChild applies a partial update.
func (h *Handler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	var req UpdateChildRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.Service.UpdateChild(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, "Failed to update child", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteChild removes a child and every ledger they own.
func (h *Handler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveChild(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to remove child", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLevel returns the child's level.
func (h *Handler) GetLevel(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.Level(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to compute level", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// =============================================================================
// DAY LEDGER HANDLERS
// =============================================================================

// ListDays returns the child's ledger history, oldest first.
func (h *Handler) ListDays(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Service.DayLogs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to load history", err)
		return
	}

	out := make([]HistoryEntryDTO, 0, len(logs))
	for _, d := range daylog.SortedDates(logs) {
		l := logs[d]
		out = append(out, HistoryEntryDTO{
			Date:        d,
			IsCompacted: l.IsCompacted,
			IsOffline:   l.IsOfflineDay,
			Summary:     daylog.CalculateDaySummary(l),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDay returns the ledger for the date, creating it on first access.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	l, created, err := h.Service.GetOrCreateDayLog(r.Context(), chi.URLParam(r, "id"), h.date(r))
	if err != nil {
		writeServiceError(w, "Failed to load day", err)
		return
	}
	writeJSON(w, http.StatusOK, DayLogResponse{DayLog: l, Created: created})
}

// GetDaySummary returns the end-of-day summary of a ledger.
func (h *Handler) GetDaySummary(w http.ResponseWriter, r *http.Request) {
	l, _, err := h.Service.GetOrCreateDayLog(r.Context(), chi.URLParam(r, "id"), h.date(r))
	if err != nil {
		writeServiceError(w, "Failed to load day", err)
		return
	}
	writeJSON(w, http.StatusOK, daylog.CalculateDaySummary(l))
}

// GetAvailable returns the child's board: quests by category and which
// bonuses and penalties may be used right now.
func (h *Handler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	childID := chi.URLParam(r, "id")

	l, _, err := h.Service.GetOrCreateDayLog(ctx, childID, h.date(r))
	if err != nil {
		writeServiceError(w, "Failed to load day", err)
		return
	}
	templates, err := h.Service.Templates(ctx)
	if err != nil {
		writeServiceError(w, "Failed to load templates", err)
		return
	}

	out := AvailableDTO{
		Date:          l.Date,
		TimeUnlocked:  daylog.IsTimeUnlocked(l),
		QuestGroups:   daylog.QuestsByCategory(l),
		BonusMissions: []AvailableBonusDTO{},
		Penalties:     []AvailablePenaltyDTO{},
	}
	if out.QuestGroups == nil {
		out.QuestGroups = []daylog.QuestGroup{}
	}
	for _, m := range daylog.AvailableBonusMissions(templates, childID) {
		out.BonusMissions = append(out.BonusMissions, AvailableBonusDTO{m, daylog.CanCompleteBonus(l, m)})
	}
	for _, p := range daylog.AvailablePenalties(templates, childID) {
		out.Penalties = append(out.Penalties, AvailablePenaltyDTO{p, daylog.CanApplyPenalty(l, p)})
	}
	writeJSON(w, http.StatusOK, out)
}

// SyncOffline re-applies the offline schedule to the ledger.
func (h *Handler) SyncOffline(w http.ResponseWriter, r *http.Request) {
	l, changed, err := h.Service.SyncOffline(r.Context(), chi.URLParam(r, "id"), h.date(r))
	h.writeMutation(w, "sync_offline", l, changed, err)
}

// QuestAction completes, fails or reverts a quest.
func (h *Handler) QuestAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	childID, date, questID := chi.URLParam(r, "id"), h.date(r), chi.URLParam(r, "questID")

	var (
		l       *daylog.DayLog
		changed bool
		err     error
	)
	action := chi.URLParam(r, "action")
	switch action {
	case "complete":
		l, changed, err = h.Service.CompleteQuest(ctx, childID, date, questID)
	case "fail":
		l, changed, err = h.Service.FailQuest(ctx, childID, date, questID)
	case "revert":
		l, changed, err = h.Service.RevertQuest(ctx, childID, date, questID)
	default:
		writeError(w, http.StatusNotFound, "Unknown quest action", errors.New(action))
		return
	}
	h.writeMutation(w, "quest_"+action, l, changed, err)
}

// CompleteBonus records a completed bonus mission.
func (h *Handler) CompleteBonus(w http.ResponseWriter, r *http.Request) {
	var req CompleteBonusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	l, changed, err := h.Service.CompleteBonusMission(r.Context(), chi.URLParam(r, "id"), h.date(r), req.TemplateID)
	h.writeMutation(w, "bonus_complete", l, changed, err)
}

// WithdrawBonus removes a bonus instance.
func (h *Handler) WithdrawBonus(w http.ResponseWriter, r *http.Request) {
	l, changed, err := h.Service.WithdrawBonus(r.Context(), chi.URLParam(r, "id"), h.date(r), chi.URLParam(r, "bonusID"))
	h.writeMutation(w, "bonus_withdraw", l, changed, err)
}

// ApplyPenalty records a penalty.
func (h *Handler) ApplyPenalty(w http.ResponseWriter, r *http.Request) {
	var req ApplyPenaltyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	l, changed, err := h.Service.ApplyPenalty(r.Context(), chi.URLParam(r, "id"), h.date(r), req.TemplateID, req.CarryToNextDay)
	h.writeMutation(w, "penalty_apply", l, changed, err)
}

// RemovePenalty removes a penalty instance.
func (h *Handler) RemovePenalty(w http.ResponseWriter, r *http.Request) {
	l, changed, err := h.Service.RemovePenalty(r.Context(), chi.URLParam(r, "id"), h.date(r), chi.URLParam(r, "penaltyID"))
	h.writeMutation(w, "penalty_remove", l, changed, err)
}

func (h *Handler) writeMutation(w http.ResponseWriter, action string, l *daylog.DayLog, changed bool, err error) {
	observeMutation(action, changed, err)
	if err != nil {
		writeServiceError(w, "Failed to update day", err)
		return
	}
	writeJSON(w, http.StatusOK, DayLogResponse{DayLog: l, Changed: changed})
}

// =============================================================================
// VOUCHER & CURSE HANDLERS
// =============================================================================

// GiveVoucher adds a voucher to the child's inventory.
func (h *Handler) GiveVoucher(w http.ResponseWriter, r *http.Request) {
	var req GiveVoucherRequest
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := h.Service.GiveVoucher(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, "Failed to give voucher", err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// RemoveVoucher takes a voucher out of the inventory.
func (h *Handler) RemoveVoucher(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.RemoveVoucher(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "voucherID"))
	if err != nil {
		writeServiceError(w, "Failed to remove voucher", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ApplyCurse starts a curse.
func (h *Handler) ApplyCurse(w http.ResponseWriter, r *http.Request) {
	var req ApplyCurseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.Service.ApplyCurse(r.Context(), chi.URLParam(r, "id"), req.RequiredPoints, req.NegotiationThreshold)
	if err != nil {
		writeServiceError(w, "Failed to apply curse", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// LiftCurse ends a curse.
func (h *Handler) LiftCurse(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.LiftCurse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to lift curse", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCursePoints moves the curse counters.
func (h *Handler) UpdateCursePoints(w http.ResponseWriter, r *http.Request) {
	var req CursePointsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.Service.UpdateCursePoints(r.Context(), chi.URLParam(r, "id"), req.GatheredDelta, req.RequiredDelta)
	if err != nil {
		writeServiceError(w, "Failed to update curse", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// RequestNegotiation records the child's request for a contract.
func (h *Handler) RequestNegotiation(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.RequestNegotiation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to request negotiation", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// OfferContract proposes a contract task.
func (h *Handler) OfferContract(w http.ResponseWriter, r *http.Request) {
	var req OfferContractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.Service.OfferContract(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, "Failed to offer contract", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// RespondToContract accepts or rejects the offered contract.
func (h *Handler) RespondToContract(w http.ResponseWriter, r *http.Request) {
	var req RespondContractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date := req.Date
	if date == "" || date == todayAlias {
		date = h.today()
	}
	c, l, err := h.Service.RespondToContract(r.Context(), chi.URLParam(r, "id"), date, req.Accept)
	if err != nil {
		writeServiceError(w, "Failed to answer contract", err)
		return
	}
	writeJSON(w, http.StatusOK, ContractResponse{Child: c, DayLog: l})
}

// CompleteContract fulfils the accepted contract and lifts the curse.
func (h *Handler) CompleteContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.CompleteContract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "Failed to complete contract", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// =============================================================================
// TEMPLATE & SETTINGS HANDLERS
// =============================================================================

// GetTemplates returns the template table.
func (h *Handler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.Templates(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to load templates", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ReplaceTemplates replaces the whole template table.
func (h *Handler) ReplaceTemplates(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	t, err := h.TemplateFactory.ParseTemplateSet(body)
	if err != nil {
		writeServiceError(w, "Invalid templates", err)
		return
	}
	if err := h.Service.ReplaceTemplates(r.Context(), t); err != nil {
		writeServiceError(w, "Failed to save templates", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AddTemplate adds or replaces one entry of the given kind.
func (h *Handler) AddTemplate(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var (
		t   daylog.TemplateSet
		err error
	)
	kind := daylog.TemplateKind(chi.URLParam(r, "kind"))
	switch kind {
	case daylog.KindQuest:
		var q daylog.QuestTemplate
		if q, err = h.TemplateFactory.ParseQuest(body); err == nil {
			t, err = h.Service.AddQuest(ctx, q)
		}
	case daylog.KindBonus:
		var m daylog.BonusMissionTemplate
		if m, err = h.TemplateFactory.ParseBonusMission(body); err == nil {
			t, err = h.Service.AddBonusMission(ctx, m)
		}
	case daylog.KindPenalty:
		var p daylog.PenaltyTemplate
		if p, err = h.TemplateFactory.ParsePenalty(body); err == nil {
			t, err = h.Service.AddPenalty(ctx, p)
		}
	default:
		writeError(w, http.StatusNotFound, "Unknown template kind", errors.New(string(kind)))
		return
	}
	if err != nil {
		writeServiceError(w, "Failed to add template", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// DeleteTemplate removes one entry.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	kind := daylog.TemplateKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "Unknown template kind", errors.New(string(kind)))
		return
	}
	t, err := h.Service.RemoveTemplate(r.Context(), kind, chi.URLParam(r, "templateID"))
	if err != nil {
		writeServiceError(w, "Failed to remove template", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetSettings returns the household settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.Settings(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSettings replaces the settings. Omitted fields take their defaults.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	s, err := h.TemplateFactory.ParseSettings(body)
	if err != nil {
		writeServiceError(w, "Invalid settings", err)
		return
	}
	if err := h.Service.UpdateSettings(r.Context(), s); err != nil {
		writeServiceError(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Compact compacts ledgers older than the retention window.
func (h *Handler) Compact(w http.ResponseWriter, r *http.Request) {
	var req CompactRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	retention := h.RetentionDays
	if req.RetentionDays != nil {
		retention = *req.RetentionDays
	}
	if retention < 0 {
		writeError(w, http.StatusBadRequest, "retentionDays must be >= 0", nil)
		return
	}
	asOf := req.AsOf
	if asOf == "" {
		asOf = h.today()
	}

	n, err := h.Service.CompactAll(r.Context(), retention, asOf)
	if err != nil {
		writeServiceError(w, "Compaction failed", err)
		return
	}
	LedgersCompacted.Add(float64(n))
	writeJSON(w, http.StatusOK, CompactResponse{Compacted: n, RetentionDays: retention, AsOf: asOf})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps a service error to its HTTP status.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		logging.Error(message, "err", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	return body, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
