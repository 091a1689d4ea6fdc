package daylog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/daylog"
)

func TestAttachContract(t *testing.T) {
	log := newLog(t, "2025-01-15")

	next, changed := daylog.AttachContract(log, "Wash the car", "")

	require.True(t, changed)
	require.NotNil(t, next.ContractTask)
	assert.Equal(t, "Wash the car", next.ContractTask.Text)
	assert.Equal(t, daylog.DefaultContractIcon, next.ContractTask.Icon)
	assert.False(t, next.ContractTask.Done())
	assert.Equal(t, log.CurrentTime, next.CurrentTime, "contracts move no time")
	assert.Equal(t, log.XPEarned, next.XPEarned, "contracts move no XP")
	assert.Nil(t, log.ContractTask, "input untouched")
}

func TestCompleteContract(t *testing.T) {
	// GIVEN: A ledger with an open contract
	log := newLog(t, "2025-01-15")
	withContract, _ := daylog.AttachContract(log, "Wash the car", "🚗")

	// WHEN: It is completed twice
	done, changed := daylog.CompleteContract(withContract)
	again, changedAgain := daylog.CompleteContract(done)

	// THEN: Only the first completion counts
	require.True(t, changed)
	assert.True(t, done.ContractTask.Done())
	assert.False(t, withContract.ContractTask.Done(), "previous snapshot still open")
	assert.False(t, changedAgain)
	assert.Same(t, done, again)
	assert.Equal(t, daylog.EventPositive, done.Events[len(done.Events)-1].Type)
}

func TestContract_NoOps(t *testing.T) {
	log := newLog(t, "2025-01-15")

	next, changed := daylog.CompleteContract(log)
	assert.False(t, changed, "no contract on the ledger")
	assert.Same(t, log, next)

	compacted := daylog.CompactDayLog(log)
	next, changed = daylog.AttachContract(compacted, "Wash the car", "")
	assert.False(t, changed)
	assert.Same(t, compacted, next)
}
