/*
types.go - Household entities around the day-log engine

PURPOSE:
  A household is a set of children sharing one template table and one
  settings document. Each child owns a lifetime XP counter, optional
  per-child time limits, a voucher inventory and at most one curse.

CURSE NEGOTIATION:
  A cursed child who has gathered enough points may ask to negotiate. The
  parent offers a contract task; the child accepts or rejects it. Accepting
  puts the task on that day's ledger. Fulfilling it lifts the curse.

    (none) -> requested -> offered -> accepted -> (curse lifted)
                 \____________/  rejected -> (none)

  Day ledgers are stored per child, keyed by date. The engine in package
  daylog computes them; this package decides when to create, mutate,
  persist and compact them.

SEE ALSO:
  - service.go: The operations
  - store.go:   The persistence contract
*/
package household

// Child is one participant.
//
// BaseTime and MaxTime override the household settings when set.
type Child struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	XP        int       `json:"xp"`
	BaseTime  *int      `json:"baseTime,omitempty"`
	MaxTime   *int      `json:"maxTime,omitempty"`
	Inventory   []Voucher    `json:"inventory"`
	Curse       Curse        `json:"activeCurse"`
	Negotiation *Negotiation `json:"negotiation"`
}

// Clone returns a deep copy of c.
func (c Child) Clone() Child {
	out := c
	out.Inventory = append([]Voucher{}, c.Inventory...)
	if c.BaseTime != nil {
		v := *c.BaseTime
		out.BaseTime = &v
	}
	if c.MaxTime != nil {
		v := *c.MaxTime
		out.MaxTime = &v
	}
	if c.Negotiation != nil {
		n := *c.Negotiation
		if n.Contract != nil {
			offer := *n.Contract
			n.Contract = &offer
		}
		out.Negotiation = &n
	}
	return out
}

// VoucherTimeBonus is the only voucher type so far.
const VoucherTimeBonus = "time_bonus"

// Voucher is a redeemable reward handed out by a parent.
type Voucher struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Value     int    `json:"value"`
	ExpiresAt int64  `json:"expiresAt,omitempty"` // unix ms, 0 = never
	CreatedAt int64  `json:"createdAt"`
}

// Expired reports whether v has expired at nowMillis.
func (v Voucher) Expired(nowMillis int64) bool {
	return v.ExpiresAt > 0 && nowMillis >= v.ExpiresAt
}

// DefaultNegotiationThreshold is the gathered/required ratio at which a
// cursed child may ask to negotiate.
const DefaultNegotiationThreshold = 0.7

// Curse is a points target the child has to reach to be freed.
type Curse struct {
	IsActive             bool    `json:"isActive"`
	RequiredPoints       int     `json:"requiredPoints"`
	GatheredPoints       int     `json:"gatheredPoints"`
	NegotiationThreshold float64 `json:"negotiationThreshold"`
}

func inactiveCurse() Curse {
	return Curse{NegotiationThreshold: DefaultNegotiationThreshold}
}

// CanNegotiate reports whether enough points were gathered to ask for a
// contract: gathered/required >= threshold.
func (c Curse) CanNegotiate() bool {
	if !c.IsActive {
		return false
	}
	if c.RequiredPoints <= 0 {
		return true
	}
	return float64(c.GatheredPoints)/float64(c.RequiredPoints) >= c.NegotiationThreshold
}

// NegotiationStatus is the stage of a curse negotiation.
type NegotiationStatus string

const (
	NegotiationRequested NegotiationStatus = "requested"
	NegotiationOffered   NegotiationStatus = "offered"
	NegotiationAccepted  NegotiationStatus = "accepted"
)

// ContractOffer is the task a parent proposes in exchange for the curse.
type ContractOffer struct {
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
}

// Negotiation is an open curse negotiation. ContractDate is the ledger the
// accepted task was put on.
type Negotiation struct {
	Status       NegotiationStatus `json:"status"`
	Contract     *ContractOffer    `json:"contractTask,omitempty"`
	ContractDate string            `json:"contractDate,omitempty"`
	Timestamp    int64             `json:"timestamp"`
}

// ChildPatch carries the editable fields of a child. Nil leaves a field
// alone; ClearLimits drops both per-child limits.
type ChildPatch struct {
	Name        *string `json:"name,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	BaseTime    *int    `json:"baseTime,omitempty"`
	MaxTime     *int    `json:"maxTime,omitempty"`
	ClearLimits bool    `json:"clearLimits,omitempty"`
}

// VoucherSpec is what a parent fills in when giving a voucher.
type VoucherSpec struct {
	Name      string `json:"name"`
	Value     int    `json:"value"`
	ExpiresAt int64  `json:"expiresAt,omitempty"`
}
