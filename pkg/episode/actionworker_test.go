package episode

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatebound/pkg/state"
)

func TestActionWorker_Apply(t *testing.T) {
	gs := state.NewGameState("s", "Jin", nil)
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	w := NewActionWorker(gs, testLogger()).WithEpisode(DefaultEpisodeID).WithClock(func() time.Time { return now })

	ep := defaultEpisode()
	var all []EpisodeAction
	for _, b := range ep.Beats {
		all = append(all, b.Actions...)
	}
	require.NoError(t, w.ApplyAll(all))

	require.Len(t, gs.Communicator, 1)
	assert.Equal(t, now, gs.Communicator[0].ReceivedAt)
	assert.Equal(t, "guild_hall", gs.CompanionLocation("Hae-In", "home"))
	assert.Equal(t, "focused", gs.CompanionMoods["Hae-In"])
	require.NotNil(t, gs.ActiveQuest("red_echo"))
	require.Len(t, gs.UnlockedLocations, 1)
	assert.Equal(t, "red_gate_depths", gs.UnlockedLocations[0].ID)

	gold, affection := gs.Gold, gs.AffectionLevel
	require.NoError(t, w.ApplyAll(append(ep.OnComplete, EpisodeAction{CompleteEpisode{}})))

	assert.Equal(t, "home", gs.CompanionLocation("Hae-In", "home"))
	require.Len(t, gs.Memories, 1)
	assert.Equal(t, DefaultEpisodeID, gs.Memories[0].EpisodeID)
	assert.Equal(t, gold+300, gs.Gold)
	assert.Equal(t, affection+5, gs.AffectionLevel)
	assert.Contains(t, gs.UnlockedActivities, "post_raid_dinner")
	assert.Equal(t, []string{DefaultEpisodeID}, gs.CompletedEpisodes)

	// 150 xp from level 1 crosses the 115 threshold once.
	assert.Equal(t, 2, gs.Level)
	assert.Equal(t, 35, gs.Experience)
	require.Len(t, w.LevelUps(), 1)
	assert.Equal(t, "episode:"+DefaultEpisodeID, w.LevelUps()[0].Source)
}

func TestActionWorker_UnknownIsNoop(t *testing.T) {
	gs := state.NewGameState("s", "Jin", nil)
	before, err := json.Marshal(gs)
	require.NoError(t, err)

	w := NewActionWorker(gs, testLogger())
	require.NoError(t, w.Apply(Unknown{Name: "summon_dragon"}))
	after, err := json.Marshal(gs)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}
