/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types that
  already carry the wire format (household.Child, daylog.DayLog,
  daylog.TemplateSet, daylog.Settings) are returned as they are; the types
  here wrap them or carry request bodies.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Validation is done by the service and the template factory, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/household"
)

// =============================================================================
// CHILDREN
// =============================================================================

// CreateChildRequest is the request to add a child.
type CreateChildRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// UpdateChildRequest is a partial child update.
type UpdateChildRequest = household.ChildPatch

// GiveVoucherRequest is the request to hand a voucher to a child.
type GiveVoucherRequest = household.VoucherSpec

// ApplyCurseRequest starts a curse. A threshold of 0 means the default.
type ApplyCurseRequest struct {
	RequiredPoints       int     `json:"requiredPoints"`
	NegotiationThreshold float64 `json:"negotiationThreshold,omitempty"`
}

// CursePointsRequest moves curse counters by the given deltas.
type CursePointsRequest struct {
	GatheredDelta int `json:"gatheredDelta"`
	RequiredDelta int `json:"requiredDelta"`
}

// OfferContractRequest is the task a parent proposes to a cursed child.
type OfferContractRequest = household.ContractOffer

// RespondContractRequest is the child's answer. Date picks the ledger an
// accepted task goes on; empty means today.
type RespondContractRequest struct {
	Accept bool   `json:"accept"`
	Date   string `json:"date,omitempty"`
}

// ContractResponse is the child after a contract answer, plus the ledger
// the task was put on when accepted.
type ContractResponse struct {
	Child  household.Child `json:"child"`
	DayLog *daylog.DayLog  `json:"dayLog,omitempty"`
}

// =============================================================================
// DAY LEDGERS
// =============================================================================

// DayLogResponse wraps a ledger with whether the request changed it.
type DayLogResponse struct {
	DayLog  *daylog.DayLog `json:"dayLog"`
	Created bool           `json:"created,omitempty"`
	Changed bool           `json:"changed"`
}

// HistoryEntryDTO is one row of a child's ledger history.
type HistoryEntryDTO struct {
	Date        string            `json:"date"`
	IsCompacted bool              `json:"isCompacted"`
	IsOffline   bool              `json:"isOfflineDay"`
	Summary     daylog.DaySummary `json:"summary"`
}

// CompleteBonusRequest names the mission template to complete.
type CompleteBonusRequest struct {
	TemplateID string `json:"templateId"`
}

// ApplyPenaltyRequest names the penalty template to apply.
type ApplyPenaltyRequest struct {
	TemplateID     string `json:"templateId"`
	CarryToNextDay bool   `json:"carryToNextDay"`
}

// AvailableBonusDTO is a mission the child may see, with whether it can be
// completed right now.
type AvailableBonusDTO struct {
	daylog.BonusMissionTemplate
	Eligible bool `json:"eligible"`
}

// AvailablePenaltyDTO is a penalty the parent may apply, with whether it
// can be applied right now.
type AvailablePenaltyDTO struct {
	daylog.PenaltyTemplate
	Eligible bool `json:"eligible"`
}

// AvailableDTO is the child's board for one day.
type AvailableDTO struct {
	Date          string                `json:"date"`
	TimeUnlocked  bool                  `json:"timeUnlocked"`
	QuestGroups   []daylog.QuestGroup   `json:"questGroups"`
	BonusMissions []AvailableBonusDTO   `json:"bonusMissions"`
	Penalties     []AvailablePenaltyDTO `json:"penalties"`
}

// =============================================================================
// ADMIN
// =============================================================================

// CompactRequest overrides the configured retention for one run.
type CompactRequest struct {
	RetentionDays *int   `json:"retentionDays,omitempty"`
	AsOf          string `json:"asOf,omitempty"`
}

// CompactResponse reports a compaction run.
type CompactResponse struct {
	Compacted     int    `json:"compacted"`
	RetentionDays int    `json:"retentionDays"`
	AsOf          string `json:"asOf"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
