/*
level.go - XP to level conversion

PURPOSE:
  Maps a child's lifetime XP onto an ordered threshold table and reports
  the level reached, the reward attached to it, and how far the child is
  towards the next level.

ALGORITHM:
  thresholds: [{1, 500, "A"}, {2, 1500, "B"}, {3, 3000, "C"}]

  xp=0     -> level 0, next 500,  progress 0
  xp=500   -> level 1, reward A, next 1500, progress 0
  xp=1000  -> level 1, next 1500, progress 0.5
  xp=5000  -> level 3, next 3000 (max reached), progress 1

  Progress interpolates linearly between the last met threshold (0 when
  none) and the first unmet one, clamped to [0, 1].

ASSUMPTIONS:
  Thresholds are strictly ascending by XP. A malformed table is a data
  problem upstream; it is not repaired here.
*/
package generic

import "github.com/shopspring/decimal"

// LevelThreshold is one row of the level table.
type LevelThreshold struct {
	Level  int    `json:"level"`
	XP     int    `json:"xp"`
	Reward string `json:"reward"`
}

// LevelInfo is the derived level state for an XP total.
type LevelInfo struct {
	Level         int     `json:"level"`
	TotalXP       int     `json:"totalXp"`
	CurrentReward string  `json:"currentReward,omitempty"`
	PrevLevelXP   int     `json:"prevLevelXp"`
	NextLevelXP   int     `json:"nextLevelXp"`
	Progress      float64 `json:"progress"`
	MaxLevel      bool    `json:"maxLevel"`
}

var progressPlaces int32 = 4

// ComputeLevel converts totalXP into a LevelInfo using thresholds.
func ComputeLevel(totalXP int, thresholds []LevelThreshold) LevelInfo {
	info := LevelInfo{TotalXP: totalXP}
	if len(thresholds) == 0 {
		return info
	}

	var met *LevelThreshold
	var next *LevelThreshold
	for i := range thresholds {
		t := &thresholds[i]
		if t.XP <= totalXP {
			met = t
			continue
		}
		next = t
		break
	}

	if met != nil {
		info.Level = met.Level
		info.CurrentReward = met.Reward
		info.PrevLevelXP = met.XP
	}

	if next == nil {
		// Max level reached: next collapses onto the last met threshold.
		info.NextLevelXP = met.XP
		info.Progress = 1
		info.MaxLevel = true
		return info
	}

	info.NextLevelXP = next.XP
	span := next.XP - info.PrevLevelXP
	if span <= 0 {
		info.Progress = 1
		return info
	}

	p := decimal.NewFromInt(int64(totalXP - info.PrevLevelXP)).
		Div(decimal.NewFromInt(int64(span))).
		Round(progressPlaces)
	if p.IsNegative() {
		p = decimal.Zero
	}
	if p.GreaterThan(decimal.NewFromInt(1)) {
		p = decimal.NewFromInt(1)
	}
	info.Progress = p.InexactFloat64()
	return info
}
