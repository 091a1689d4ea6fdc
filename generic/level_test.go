package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/quest-engine/generic"
)

func testThresholds() []generic.LevelThreshold {
	return []generic.LevelThreshold{
		{Level: 1, XP: 500, Reward: "A"},
		{Level: 2, XP: 1500, Reward: "B"},
		{Level: 3, XP: 3000, Reward: "C"},
	}
}

func TestComputeLevel_EmptyTable(t *testing.T) {
	info := generic.ComputeLevel(1234, nil)

	assert.Equal(t, 0, info.Level)
	assert.Equal(t, 0.0, info.Progress)
	assert.Empty(t, info.CurrentReward)
}

func TestComputeLevel_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		xp       int
		level    int
		reward   string
		next     int
		progress float64
	}{
		{"no xp", 0, 0, "", 500, 0},
		{"just below first", 250, 0, "", 500, 0.5},
		{"exactly first", 500, 1, "A", 1500, 0},
		{"halfway to second", 1000, 1, "A", 1500, 0.5},
		{"exactly second", 1500, 2, "B", 3000, 0},
		{"exactly last", 3000, 3, "C", 3000, 1},
		{"beyond last", 5000, 3, "C", 3000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := generic.ComputeLevel(tt.xp, testThresholds())

			assert.Equal(t, tt.level, info.Level)
			assert.Equal(t, tt.reward, info.CurrentReward)
			assert.Equal(t, tt.next, info.NextLevelXP)
			assert.InDelta(t, tt.progress, info.Progress, 0.0001)
		})
	}
}

func TestComputeLevel_MaxLevelFlag(t *testing.T) {
	assert.True(t, generic.ComputeLevel(9999, testThresholds()).MaxLevel)
	assert.False(t, generic.ComputeLevel(2000, testThresholds()).MaxLevel)
}

func TestComputeLevel_ProgressIsRounded(t *testing.T) {
	// 1/3 of the way from 1500 to 3000
	info := generic.ComputeLevel(2000, testThresholds())

	assert.Equal(t, 0.3333, info.Progress)
}
