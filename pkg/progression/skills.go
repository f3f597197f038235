package progression

import (
	"fmt"
	"math"
	"strings"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// UnlockCost is the skill-point price of taking a skill from level to level+1
// through the unlock path.
func UnlockCost(def SkillDef, level int) int {
	return def.Tier + int(math.Floor(float64(level)*1.5))
}

// missingPrerequisites lists prerequisites not yet held at level >= 1 or unlocked.
func missingPrerequisites(gs *state.GameState, prereqs []string) []string {
	var missing []string
	for _, p := range prereqs {
		held := gs.SkillByID(p)
		if held == nil || (held.Level < 1 && !held.Unlocked) {
			missing = append(missing, p)
		}
	}
	return missing
}

func prerequisiteError(id string, missing []string) error {
	return apperr.WithMetadata(apperr.CodePrerequisiteUnmet,
		fmt.Sprintf("skill %s requires %s", id, strings.Join(missing, ", ")),
		map[string]string{"skill_id": id, "missing": strings.Join(missing, ",")})
}

// UpgradeSkill spends exactly one skill point to add a level to a held skill.
func UpgradeSkill(gs *state.GameState, id string) (*state.Skill, error) {
	held := gs.SkillByID(id)
	if held == nil {
		return nil, apperr.NotFound("skill", id)
	}
	if missing := missingPrerequisites(gs, held.Prerequisites); len(missing) > 0 {
		return nil, prerequisiteError(id, missing)
	}
	if held.MaxLevel > 0 && held.Level >= held.MaxLevel {
		return nil, apperr.Newf(apperr.CodeAtCapacity, "skill %s is already at max level %d", id, held.MaxLevel)
	}
	if gs.SkillPoints < 1 {
		return nil, apperr.WithMetadata(apperr.CodeInsufficientResource, "no skill points available",
			map[string]string{"resource": "skill_points"})
	}

	gs.SkillPoints--
	held.Level++
	held.Unlocked = true
	return held, nil
}

// UnlockSkill takes a skill from the static tree up one level at the tiered
// cost, inserting it when the session does not hold it yet.
func UnlockSkill(gs *state.GameState, id string) (*state.Skill, error) {
	def, ok := LookupSkill(id)
	if !ok {
		return nil, apperr.NotFound("skill", id)
	}
	if missing := missingPrerequisites(gs, def.Prerequisites); len(missing) > 0 {
		return nil, prerequisiteError(id, missing)
	}

	level := gs.SkillLevel(id)
	if level >= def.MaxLevel {
		return nil, apperr.Newf(apperr.CodeAtCapacity, "skill %s is already at max level %d", id, def.MaxLevel)
	}
	cost := UnlockCost(def, level)
	if gs.SkillPoints < cost {
		return nil, apperr.WithMetadata(apperr.CodeInsufficientResource,
			fmt.Sprintf("skill %s costs %d skill points, have %d", id, cost, gs.SkillPoints),
			map[string]string{"resource": "skill_points", "cost": fmt.Sprint(cost)})
	}

	gs.SkillPoints -= cost
	if held := gs.SkillByID(id); held != nil {
		held.Level++
		held.Unlocked = true
		return held, nil
	}
	gs.Skills = append(gs.Skills, def.instance(1))
	return &gs.Skills[len(gs.Skills)-1], nil
}

// SkillNode is a static definition overlaid with one session's progress.
type SkillNode struct {
	SkillDef
	Level      int  `json:"level"`
	Unlocked   bool `json:"unlocked"`
	Available  bool `json:"available"` // Prerequisites met and not maxed
	UnlockCost int  `json:"unlock_cost"`
}

// SkillTree returns the static tree annotated with the session's state.
func SkillTree(gs *state.GameState) []SkillNode {
	defs := SkillDefs()
	nodes := make([]SkillNode, 0, len(defs))
	for _, d := range defs {
		n := SkillNode{SkillDef: d}
		if held := gs.SkillByID(d.ID); held != nil {
			n.Level = held.Level
			n.Unlocked = held.Unlocked || held.Level > 0
		}
		n.Available = len(missingPrerequisites(gs, d.Prerequisites)) == 0 && n.Level < d.MaxLevel
		n.UnlockCost = UnlockCost(d, n.Level)
		nodes = append(nodes, n)
	}
	return nodes
}
