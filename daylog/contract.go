package daylog

import (
	"fmt"

	"github.com/warp/quest-engine/generic"
)

// DefaultContractIcon is used when a contract task names no icon.
const DefaultContractIcon = "⚔️"

// ContractTask is the task a cursed child accepted to be freed. It sits on
// the ledger of the day it was accepted and moves neither time nor XP.
type ContractTask struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Icon        string `json:"icon"`
	AcceptedAt  int64  `json:"acceptedAt"`
	CompletedAt int64  `json:"completedAt,omitempty"`
}

// Done reports whether the task was fulfilled.
func (c *ContractTask) Done() bool { return c != nil && c.CompletedAt != 0 }

// AttachContract puts a contract task on the ledger, replacing an open one.
func AttachContract(l *DayLog, text, icon string) (*DayLog, bool) {
	if l.IsCompacted {
		return l, false
	}
	if icon == "" {
		icon = DefaultContractIcon
	}

	next := l.clone()
	next.ContractTask = &ContractTask{
		ID:         generic.NewID(),
		Text:       text,
		Icon:       icon,
		AcceptedAt: nowMillis(),
	}
	next.appendEvent(fmt.Sprintf("📜 Contract accepted: %s", text), EventInfo)
	return next, true
}

// CompleteContract marks the ledger's contract task fulfilled.
func CompleteContract(l *DayLog) (*DayLog, bool) {
	if l.IsCompacted || l.ContractTask == nil || l.ContractTask.Done() {
		return l, false
	}

	next := l.clone()
	next.ContractTask.CompletedAt = nowMillis()
	next.appendEvent(fmt.Sprintf("🏆 Contract fulfilled: %s", next.ContractTask.Text), EventPositive)
	return next, true
}
