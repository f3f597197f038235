package episode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

func newTestEngine(eps ...EpisodeData) (*Engine, *memStore) {
	store := newMemStore()
	return NewEngine(NewLibrary(eps...), store, testLogger()), store
}

func commands(actions []EpisodeAction) []Command {
	out := make([]Command, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Command())
	}
	return out
}

var redEcho = map[string]any{"episodeId": DefaultEpisodeID}

func TestTrackGameplayEvent_RedEchoScenario(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine()
	player := state.NewGameState("profileX", "Jin", nil)

	// First event auto-starts the episode on beat 1.1.
	res, err := engine.TrackGameplayEvent(ctx, "profileX", "meet_companion", redEcho, player)
	require.NoError(t, err)
	assert.True(t, res.Started)
	assert.True(t, res.Advanced)
	assert.Equal(t, BeatID("1.1"), res.FromBeat)
	assert.Equal(t, BeatID("1.2"), res.ToBeat)
	assert.Equal(t, []Command{
		CommandDeliverMessage, CommandSetCompanionLocation, CommandSetQuestObjective,
		CommandSetCompanionMood, CommandSetQuestObjective,
	}, commands(res.Actions))

	res, err = engine.TrackGameplayEvent(ctx, "profileX", "player_enters_dungeon", redEcho, player)
	require.NoError(t, err)
	assert.True(t, res.Advanced)
	assert.Equal(t, BeatID("1.3"), res.Progress.CurrentBeatID)
	assert.False(t, res.Progress.Completed)

	// Repeating the event at 1.3 does nothing.
	res, err = engine.TrackGameplayEvent(ctx, "profileX", "player_enters_dungeon", redEcho, player)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, BeatID("1.3"), res.Progress.CurrentBeatID)
	assert.Empty(t, res.Actions)

	res, err = engine.TrackGameplayEvent(ctx, "profileX", "end_episode", nil, player)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, CommandCompleteEpisode, res.Actions[len(res.Actions)-1].Command())
	require.NotNil(t, res.Progress.CompletedAt)
	assert.Len(t, res.Progress.History, 3)

	// Completed episodes ignore further events.
	res, err = engine.TrackGameplayEvent(ctx, "profileX", "end_episode", nil, player)
	require.NoError(t, err)
	assert.False(t, res.Changed())
}

func TestTrackGameplayEvent_OnlyCurrentBeatAdvances(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine()

	res, err := engine.TrackGameplayEvent(ctx, "p1", "end_episode", nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Started)
	assert.False(t, res.Advanced)
	assert.Equal(t, BeatID("1.1"), res.Progress.CurrentBeatID)

	res, err = engine.TrackGameplayEvent(ctx, "p1", "player_enters_dungeon", nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Equal(t, BeatID("1.1"), res.Progress.CurrentBeatID)
}

func TestTrackGameplayEvent_ProgressIsPerProfile(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine()

	_, err := engine.TrackGameplayEvent(ctx, "a", "meet_companion", nil, nil)
	require.NoError(t, err)
	_, err = engine.TrackGameplayEvent(ctx, "b", "noise", nil, nil)
	require.NoError(t, err)

	pa, _ := store.LoadProgress(ctx, "a", DefaultEpisodeID)
	pb, _ := store.LoadProgress(ctx, "b", DefaultEpisodeID)
	assert.Equal(t, BeatID("1.2"), pa.CurrentBeatID)
	assert.Equal(t, BeatID("1.1"), pb.CurrentBeatID)
}

func triggeredEpisode() EpisodeData {
	return EpisodeData{
		ID:    "EP09_Triggered",
		Title: "Triggered",
		Beats: []StoryBeat{
			{
				ID:                  "9.1",
				Title:               "Wait for the bell",
				Trigger:             "bell_rings",
				Actions:             []EpisodeAction{{UnlockActivity{ActivityID: "stargazing"}}},
				CompletionCondition: CompletionCondition{Event: "bell_rings"},
			},
			{
				ID:                  "9.2",
				Title:               "Finale",
				Actions:             []EpisodeAction{{CompleteEpisode{}}},
				CompletionCondition: CompletionCondition{Event: "never"},
			},
		},
		OnComplete: []EpisodeAction{{CreateMemory{Title: "Bells"}}},
	}
}

func TestTrackGameplayEvent_NamedTrigger(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(triggeredEpisode())
	data := map[string]any{"episode_id": "EP09_Triggered"}

	res, err := engine.StartEpisode(ctx, "p", "EP09_Triggered", nil)
	require.NoError(t, err)
	assert.True(t, res.Started)
	assert.Empty(t, res.Actions)
	assert.False(t, res.Progress.Triggered)

	// The trigger fires 9.1's actions, completes it, and 9.2's explicit
	// complete_episode finishes the episode.
	res, err = engine.TrackGameplayEvent(ctx, "p", "bell_rings", data, nil)
	require.NoError(t, err)
	assert.True(t, res.Triggered)
	assert.True(t, res.Advanced)
	assert.True(t, res.Completed)
	assert.Equal(t, []Command{CommandUnlockActivity, CommandCreateMemory, CommandCompleteEpisode}, commands(res.Actions))
}

func TestStartEpisode(t *testing.T) {
	ctx := context.Background()
	gated := EpisodeData{
		ID:           "EP02_Gated",
		Title:        "Gated",
		Prerequisite: Prerequisite{MinLevel: 5, RequiredEpisodes: []string{DefaultEpisodeID}},
		Beats:        []StoryBeat{{ID: "2.1", Title: "Only", CompletionCondition: CompletionCondition{Event: "end_episode"}}},
	}
	engine, _ := newTestEngine(gated)
	player := state.NewGameState("p", "Jin", nil)

	_, err := engine.StartEpisode(ctx, "p", "EP02_Gated", player)
	require.Error(t, err)
	assert.Equal(t, apperr.CodePrerequisiteUnmet, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "level 5")
	assert.Contains(t, err.Error(), "episode EP01_Red_Echo")

	player.Level = 5
	player.MarkEpisodeComplete(DefaultEpisodeID)
	res, err := engine.StartEpisode(ctx, "p", "EP02_Gated", player)
	require.NoError(t, err)
	assert.True(t, res.Started)
	assert.Equal(t, BeatID("2.1"), res.ToBeat)

	// Starting again while in progress is a no-op.
	res, err = engine.StartEpisode(ctx, "p", "EP02_Gated", player)
	require.NoError(t, err)
	assert.False(t, res.Started)

	_, err = engine.StartEpisode(ctx, "p", "EP404", player)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestDeleteAndRestoreEpisode(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine(triggeredEpisode())

	eps, err := engine.AvailableEpisodes(ctx)
	require.NoError(t, err)
	assert.Len(t, eps, 2)

	require.NoError(t, engine.DeleteEpisode(ctx, "p", DefaultEpisodeID))
	require.NoError(t, engine.DeleteEpisode(ctx, "p", DefaultEpisodeID))

	eps, err = engine.AvailableEpisodes(ctx)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "EP09_Triggered", eps[0].ID)

	_, err = engine.Episode(ctx, DefaultEpisodeID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	_, err = engine.TrackGameplayEvent(ctx, "p", "meet_companion", nil, nil)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	require.NoError(t, engine.RestoreEpisode(ctx, DefaultEpisodeID))
	_, err = engine.Episode(ctx, DefaultEpisodeID)
	assert.NoError(t, err)

	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(engine.DeleteEpisode(ctx, "p", "EP404")))
}

func TestResolveAction(t *testing.T) {
	ctx := context.Background()
	engine, _ := newTestEngine()

	act, err := engine.ResolveAction(ctx, DefaultEpisodeID, "1.1", 1)
	require.NoError(t, err)
	assert.Equal(t, SetCompanionLocation{Companion: "Hae-In", Location: "guild_hall"}, act)

	tests := []struct {
		name    string
		episode string
		beat    BeatID
		index   int
	}{
		{name: "unknown episode", episode: "EP404", beat: "1.1"},
		{name: "unknown beat", episode: DefaultEpisodeID, beat: "9.9"},
		{name: "index out of range", episode: DefaultEpisodeID, beat: "1.1", index: 3},
		{name: "negative index", episode: DefaultEpisodeID, beat: "1.1", index: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ResolveAction(ctx, tt.episode, tt.beat, tt.index)
			assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
		})
	}
}

func TestTrackGameplayEvent_StoredBeatMissingFromContent(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine()
	// Saved against a longer revision of the episode.
	require.NoError(t, store.SaveProgress(ctx, &Progress{
		ProfileID:     "p",
		EpisodeID:     DefaultEpisodeID,
		CurrentBeat:   5,
		CurrentBeatID: "1.6",
	}))

	res, err := engine.TrackGameplayEvent(ctx, "p", "end_episode", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Actions, "closing a stale episode grants nothing")
	assert.False(t, res.Completed)
	assert.True(t, res.Progress.Completed)

	stored, err := store.LoadProgress(ctx, "p", DefaultEpisodeID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, 3, stored.CurrentBeat)

	res, err = engine.TrackGameplayEvent(ctx, "p", "end_episode", nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Changed())
}

func TestTrackGameplayEvent_BeatFoundByIDAfterReorder(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine()
	require.NoError(t, store.SaveProgress(ctx, &Progress{
		ProfileID:     "p",
		EpisodeID:     DefaultEpisodeID,
		CurrentBeat:   7,
		CurrentBeatID: "1.2",
		Triggered:     true,
	}))

	res, err := engine.TrackGameplayEvent(ctx, "p", "player_enters_dungeon", nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Advanced)
	assert.Equal(t, BeatID("1.2"), res.FromBeat)
	assert.Equal(t, BeatID("1.3"), res.ToBeat)
	assert.Equal(t, 2, res.Progress.CurrentBeat)
}

func TestStaged_HoldsProgressUntilCommit(t *testing.T) {
	ctx := context.Background()
	engine, store := newTestEngine()
	staged, batch := engine.Staged()

	_, err := staged.TrackGameplayEvent(ctx, "p", "meet_companion", nil, nil)
	require.NoError(t, err)
	res, err := staged.TrackGameplayEvent(ctx, "p", "player_enters_dungeon", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, BeatID("1.3"), res.ToBeat, "second event sees the first")
	assert.Equal(t, 1, batch.Len())

	stored, err := store.LoadProgress(ctx, "p", DefaultEpisodeID)
	require.NoError(t, err)
	assert.Nil(t, stored, "nothing reaches the store before Commit")

	require.NoError(t, batch.Commit(ctx))
	assert.Equal(t, 0, batch.Len())
	stored, err = store.LoadProgress(ctx, "p", DefaultEpisodeID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, BeatID("1.3"), stored.CurrentBeatID)
	assert.Len(t, stored.History, 2)
}
