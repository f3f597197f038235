package progression

import (
	"fmt"
	"slices"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

const (
	VitalityHealthBonus   = 15
	IntelligenceManaBonus = 8
)

// AllocateStatPoint spends one stat point on stat.
func AllocateStatPoint(gs *state.GameState, stat string) error {
	if !slices.Contains(state.StatNames, stat) {
		return apperr.WithMetadata(apperr.CodeInvalidArgument,
			fmt.Sprintf("unknown stat: %q", stat),
			map[string]string{"stat": stat})
	}
	if gs.StatPoints < 1 {
		return apperr.WithMetadata(apperr.CodeInsufficientResource,
			"no stat points available",
			map[string]string{"resource": "stat_points"})
	}

	if err := gs.Stats.Add(stat, 1); err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, "allocate stat", err)
	}
	gs.StatPoints--

	switch stat {
	case state.StatVitality:
		gs.RaiseMaxHealth(VitalityHealthBonus)
	case state.StatIntelligence:
		gs.RaiseMaxMana(IntelligenceManaBonus)
	}
	return nil
}
