package progression

import (
	"testing"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState() *state.GameState {
	gs := state.NewGameState("", "Jin", nil)
	SeedSkills(gs)
	return gs
}

func TestExperienceToNext(t *testing.T) {
	assert.Equal(t, 115, ExperienceToNext(1))
	assert.Equal(t, 132, ExperienceToNext(2))
	assert.Equal(t, 152, ExperienceToNext(3))

	for level := 1; level < MaxLevel; level++ {
		assert.Greater(t, ExperienceToNext(level+1), ExperienceToNext(level), "level %d", level)
	}
}

func TestAddExperience(t *testing.T) {
	tests := []struct {
		name        string
		amount      int
		wantLevel   int
		wantExp     int
		wantStatPts int
		wantSkill   int
	}{
		{"below threshold", 100, 1, 100, 0, 0},
		{"exact threshold", 115, 2, 0, 5, 1},
		{"single level with remainder", 200, 2, 85, 5, 1},
		{"just short of the second level", 246, 2, 131, 5, 1},
		{"two levels in one grant", 250, 3, 3, 10, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newState()
			res, err := AddExperience(gs, tt.amount, "quest")
			require.NoError(t, err)

			assert.Equal(t, tt.wantLevel, gs.Level)
			assert.Equal(t, tt.wantExp, gs.Experience)
			assert.Equal(t, tt.wantStatPts, gs.StatPoints)
			assert.Equal(t, tt.wantSkill, gs.SkillPoints)
			assert.Equal(t, tt.wantLevel-1, res.LevelsGained())
			assert.Equal(t, 100+HealthPerLevel*(tt.wantLevel-1), gs.MaxHealth)
			assert.Equal(t, 50+ManaPerLevel*(tt.wantLevel-1), gs.MaxMana)
		})
	}
}

func TestAddExperience_SplitInvariance(t *testing.T) {
	totals := []int{0, 114, 115, 250, 1000, 12345, 250000}
	for _, total := range totals {
		whole := newState()
		_, err := AddExperience(whole, total, "test")
		require.NoError(t, err)

		for _, first := range []int{0, 1, total / 3, total / 2, total} {
			split := newState()
			_, err := AddExperience(split, first, "test")
			require.NoError(t, err)
			_, err = AddExperience(split, total-first, "test")
			require.NoError(t, err)

			assert.Equal(t, whole.Level, split.Level, "total %d split %d", total, first)
			assert.Equal(t, whole.Experience, split.Experience, "total %d split %d", total, first)
			assert.Equal(t, whole.StatPoints, split.StatPoints)
			assert.Equal(t, whole.SkillPoints, split.SkillPoints)
			assert.Equal(t, whole.MaxHealth, split.MaxHealth)
		}
	}
}

func TestAddExperience_Cap(t *testing.T) {
	gs := newState()
	_, err := AddExperience(gs, 1<<40, "test")
	require.NoError(t, err)
	assert.Equal(t, MaxLevel, gs.Level)
	assert.Equal(t, (MaxLevel-1)*StatPointsPerLevel, gs.StatPoints)
}

func TestAddExperience_Negative(t *testing.T) {
	gs := newState()
	_, err := AddExperience(gs, -5, "test")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	assert.Equal(t, 0, gs.Experience)
}

func TestLevelUp(t *testing.T) {
	gs := newState()
	gs.Experience = 114

	_, err := LevelUp(gs)
	assert.ErrorIs(t, err, apperr.ErrInsufficientResource)
	assert.Equal(t, 1, gs.Level)
	assert.Equal(t, 114, gs.Experience)

	gs.Experience = 400
	res, err := LevelUp(gs)
	require.NoError(t, err)
	assert.Equal(t, 2, gs.Level)
	assert.Equal(t, 285, gs.Experience, "only one level is taken")
	assert.Equal(t, 1, res.LevelsGained())
	assert.Equal(t, StatPointsPerLevel, gs.StatPoints)

	gs.Level = MaxLevel
	_, err = LevelUp(gs)
	assert.ErrorIs(t, err, apperr.ErrAtCapacity)
}

func TestAllocateStatPoint(t *testing.T) {
	t.Run("no points", func(t *testing.T) {
		gs := newState()
		before, err := gs.Clone()
		require.NoError(t, err)

		err = AllocateStatPoint(gs, state.StatVitality)
		assert.ErrorIs(t, err, apperr.ErrInsufficientResource)
		assert.Equal(t, before.Health, gs.Health)
		assert.Equal(t, before.MaxHealth, gs.MaxHealth)
		assert.Equal(t, before.Stats, gs.Stats)
	})

	t.Run("vitality", func(t *testing.T) {
		gs := newState()
		gs.StatPoints = 1
		require.NoError(t, AllocateStatPoint(gs, state.StatVitality))
		assert.Equal(t, 11, gs.Stats.Vitality)
		assert.Equal(t, 115, gs.MaxHealth)
		assert.Equal(t, 115, gs.Health)
		assert.Equal(t, 0, gs.StatPoints)
	})

	t.Run("intelligence", func(t *testing.T) {
		gs := newState()
		gs.StatPoints = 2
		require.NoError(t, AllocateStatPoint(gs, state.StatIntelligence))
		assert.Equal(t, 58, gs.MaxMana)
		assert.Equal(t, 58, gs.Mana)
		assert.Equal(t, 1, gs.StatPoints)
	})

	t.Run("strength has no derived bonus", func(t *testing.T) {
		gs := newState()
		gs.StatPoints = 1
		require.NoError(t, AllocateStatPoint(gs, state.StatStrength))
		assert.Equal(t, 11, gs.Stats.Strength)
		assert.Equal(t, 100, gs.MaxHealth)
		assert.Equal(t, 50, gs.MaxMana)
	})

	t.Run("unknown stat", func(t *testing.T) {
		gs := newState()
		gs.StatPoints = 1
		assert.ErrorIs(t, AllocateStatPoint(gs, "charm"), apperr.ErrInvalidArgument)
		assert.Equal(t, 1, gs.StatPoints)
	})
}
