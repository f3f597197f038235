package progression

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/gatebound/pkg/state"
)

// Skill branches.
const (
	BranchAssassin   = "assassin"
	BranchArcane     = "arcane"
	BranchJob        = "job"
	BranchLeadership = "leadership"
	BranchUltimate   = "ultimate"
)

// SkillDef is a static skill-tree entry.
type SkillDef struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Tier          int      `json:"tier"`
	Branch        string   `json:"branch"`
	MaxLevel      int      `json:"max_level"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

var skillTree = []SkillDef{
	{ID: "dagger_mastery", Name: "Dagger Mastery", Description: "Faster, surer strikes with short blades.", Tier: 1, Branch: BranchAssassin, MaxLevel: 10},
	{ID: "mana_sense", Name: "Mana Sense", Description: "Read the flow of mana around gates and monsters.", Tier: 1, Branch: BranchArcane, MaxLevel: 10},
	{ID: "shadow_step", Name: "Shadow Step", Description: "Close distance through the shadows.", Tier: 2, Branch: BranchAssassin, MaxLevel: 5, Prerequisites: []string{"dagger_mastery"}},
	{ID: "mana_shield", Name: "Mana Shield", Description: "Absorb damage with a layer of mana.", Tier: 2, Branch: BranchArcane, MaxLevel: 5, Prerequisites: []string{"mana_sense"}},
	{ID: "blade_dance", Name: "Blade Dance", Description: "A flurry of strikes against every nearby enemy.", Tier: 3, Branch: BranchAssassin, MaxLevel: 5, Prerequisites: []string{"shadow_step"}},
	{ID: "arcane_pulse", Name: "Arcane Pulse", Description: "Release stored mana as a shockwave.", Tier: 3, Branch: BranchArcane, MaxLevel: 5, Prerequisites: []string{"mana_shield"}},
	{ID: "phantom_strike", Name: "Phantom Strike", Description: "Strike from every shadow at once.", Tier: 4, Branch: BranchAssassin, MaxLevel: 3, Prerequisites: []string{"blade_dance"}},
	{ID: "spell_weave", Name: "Spell Weave", Description: "Chain spells without pause.", Tier: 4, Branch: BranchArcane, MaxLevel: 3, Prerequisites: []string{"arcane_pulse"}},
	{ID: "monarchs_domain", Name: "Monarch's Domain", Description: "Bend the battlefield to your will.", Tier: 5, Branch: BranchUltimate, MaxLevel: 1, Prerequisites: []string{"phantom_strike", "spell_weave"}},
	{ID: "stealth", Name: "Stealth", Description: "Vanish from monster senses.", Tier: 2, Branch: BranchJob, MaxLevel: 5, Prerequisites: []string{"dagger_mastery"}},
	{ID: "bloodlust", Name: "Bloodlust", Description: "Freeze weaker monsters with killing intent.", Tier: 3, Branch: BranchJob, MaxLevel: 3, Prerequisites: []string{"stealth"}},
	{ID: "rally", Name: "Rally", Description: "Steady the hunters fighting beside you.", Tier: 2, Branch: BranchLeadership, MaxLevel: 5, Prerequisites: []string{"mana_sense"}},
	{ID: "command_presence", Name: "Command Presence", Description: "Raid members follow your lead without hesitation.", Tier: 4, Branch: BranchLeadership, MaxLevel: 3, Prerequisites: []string{"rally", "blade_dance"}},
}

// StartingSkills are granted to every new session at level 1.
var StartingSkills = []string{"dagger_mastery"}

// SkillDefs returns a copy of the static tree.
func SkillDefs() []SkillDef {
	out := make([]SkillDef, len(skillTree))
	for i, d := range skillTree {
		d.Prerequisites = slices.Clone(d.Prerequisites)
		out[i] = d
	}
	return out
}

// LookupSkill finds a static definition by id.
func LookupSkill(id string) (SkillDef, bool) {
	for _, d := range skillTree {
		if d.ID == id {
			d.Prerequisites = slices.Clone(d.Prerequisites)
			return d, true
		}
	}
	return SkillDef{}, false
}

func (d SkillDef) instance(level int) state.Skill {
	return state.Skill{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Tier:          d.Tier,
		Branch:        d.Branch,
		Level:         level,
		MaxLevel:      d.MaxLevel,
		Prerequisites: slices.Clone(d.Prerequisites),
		Unlocked:      level > 0,
	}
}

// SeedSkills gives a new session its starting skills.
func SeedSkills(gs *state.GameState) {
	for _, id := range StartingSkills {
		if gs.SkillByID(id) != nil {
			continue
		}
		if d, ok := LookupSkill(id); ok {
			gs.Skills = append(gs.Skills, d.instance(1))
		}
	}
}

// ValidateTree checks that every prerequisite exists and the graph is acyclic.
func ValidateTree(defs []SkillDef) error {
	byID := make(map[string]SkillDef, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[string]int, len(defs))
	var visit func(id string) error
	visit = func(id string) error {
		switch marks[id] {
		case visiting:
			return fmt.Errorf("skill tree cycle through %s", id)
		case done:
			return nil
		}
		marks[id] = visiting
		for _, p := range byID[id].Prerequisites {
			if _, ok := byID[p]; !ok {
				return fmt.Errorf("skill %s requires unknown skill %s", id, p)
			}
			if err := visit(p); err != nil {
				return err
			}
		}
		marks[id] = done
		return nil
	}
	for _, d := range defs {
		if err := visit(d.ID); err != nil {
			return err
		}
	}
	return nil
}
