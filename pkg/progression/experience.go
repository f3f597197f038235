// Package progression implements character levelling, stat allocation and
// the skill tree. Every operation validates fully before it mutates.
package progression

import (
	"fmt"
	"math"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

const (
	MaxLevel            = 200
	StatPointsPerLevel  = 5
	SkillPointsPerLevel = 1
	HealthPerLevel      = 10
	ManaPerLevel        = 5
)

// ExperienceToNext is the experience needed to advance from level to level+1:
// floor(100 × 1.15^(next-1)), so level 1 -> 2 costs 115.
func ExperienceToNext(level int) int {
	// The epsilon absorbs float error, e.g. 100*1.15 == 114.99999999999999.
	return int(math.Floor(100*math.Pow(1.15, float64(level)) + 1e-9))
}

// LevelUpResult summarises what an experience grant changed.
type LevelUpResult struct {
	Source            string `json:"source,omitempty"`
	Gained            int    `json:"experience_gained"`
	FromLevel         int    `json:"from_level"`
	ToLevel           int    `json:"to_level"`
	StatPointsGained  int    `json:"stat_points_gained"`
	SkillPointsGained int    `json:"skill_points_gained"`
	Experience        int    `json:"experience"`
	ExperienceToNext  int    `json:"experience_to_next"`
}

// LevelsGained is the number of levels crossed.
func (r LevelUpResult) LevelsGained() int {
	return r.ToLevel - r.FromLevel
}

// AddExperience grants amount and levels up as many times as the pool allows.
// Remainder experience carries into the new level.
func AddExperience(gs *state.GameState, amount int, source string) (LevelUpResult, error) {
	if amount < 0 {
		return LevelUpResult{}, apperr.Newf(apperr.CodeInvalidArgument, "experience amount cannot be negative: %d", amount)
	}
	res := LevelUpResult{Source: source, Gained: amount, FromLevel: gs.Level}

	gs.Experience += amount
	for gs.Level < MaxLevel && gs.Experience >= ExperienceToNext(gs.Level) {
		gs.Experience -= ExperienceToNext(gs.Level)
		applyLevel(gs)
	}

	res.ToLevel = gs.Level
	res.StatPointsGained = res.LevelsGained() * StatPointsPerLevel
	res.SkillPointsGained = res.LevelsGained() * SkillPointsPerLevel
	res.Experience = gs.Experience
	res.ExperienceToNext = ExperienceToNext(gs.Level)
	return res, nil
}

// LevelUp advances exactly one level, spending the canonical threshold.
func LevelUp(gs *state.GameState) (LevelUpResult, error) {
	if gs.Level >= MaxLevel {
		return LevelUpResult{}, apperr.Newf(apperr.CodeAtCapacity, "level is capped at %d", MaxLevel)
	}
	need := ExperienceToNext(gs.Level)
	if gs.Experience < need {
		return LevelUpResult{}, apperr.WithMetadata(apperr.CodeInsufficientResource,
			fmt.Sprintf("need %d experience to level up, have %d", need, gs.Experience),
			map[string]string{"resource": "experience"})
	}

	res := LevelUpResult{Source: "manual", FromLevel: gs.Level}
	gs.Experience -= need
	applyLevel(gs)

	res.ToLevel = gs.Level
	res.StatPointsGained = StatPointsPerLevel
	res.SkillPointsGained = SkillPointsPerLevel
	res.Experience = gs.Experience
	res.ExperienceToNext = ExperienceToNext(gs.Level)
	return res, nil
}

func applyLevel(gs *state.GameState) {
	gs.Level++
	gs.StatPoints += StatPointsPerLevel
	gs.SkillPoints += SkillPointsPerLevel
	gs.RaiseMaxHealth(HealthPerLevel)
	gs.RaiseMaxMana(ManaPerLevel)
}
