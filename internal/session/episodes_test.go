package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatebound/internal/services"
	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/chat"
	"github.com/jwebster45206/gatebound/pkg/episode"
)

var redEcho = map[string]any{"episodeId": episode.DefaultEpisodeID}

func TestTrackEpisodeEvent_CompletesRedEcho(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "s1")

	for _, event := range []string{"meet_companion", "player_enters_dungeon", "end_episode"} {
		_, err := env.svc.TrackEpisodeEvent(ctx, "s1", event, redEcho)
		require.NoError(t, err, event)
	}

	gs := env.stored(t, "s1")
	assert.Contains(t, gs.CompletedEpisodes, episode.DefaultEpisodeID)
	assert.Equal(t, created.Gold+300, gs.Gold)
	assert.Equal(t, 2, gs.Level, "150 experience crosses the 115 threshold")
	assert.Equal(t, 35, gs.Experience)
	assert.Equal(t, created.AffectionLevel+5, gs.AffectionLevel)
	assert.Contains(t, gs.UnlockedActivities, "post_raid_dinner")
	assert.NotContains(t, gs.CompanionOverrides, "Hae-In")
	require.Len(t, gs.Memories, 1)
	assert.Equal(t, "Red Echo", gs.Memories[0].Title)

	types := env.bus.Types()
	assert.Contains(t, types, events.EventTypeEpisodeCompleted)
	assert.Contains(t, types, events.EventTypeLeveledUp)
}

func TestTrackEpisodeEvent_BeatThreeIsStable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.create(t, "profileX")

	_, err := env.svc.TrackEpisodeEvent(ctx, "profileX", "meet_companion", redEcho)
	require.NoError(t, err)

	out, err := env.svc.TrackEpisodeEvent(ctx, "profileX", "player_enters_dungeon", redEcho)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, episode.BeatID("1.2"), out.Results[0].FromBeat)
	assert.Equal(t, episode.BeatID("1.3"), out.Results[0].ToBeat)
	after := storedJSON(t, env.stored(t, "profileX"))

	out, err = env.svc.TrackEpisodeEvent(ctx, "profileX", "player_enters_dungeon", redEcho)
	require.NoError(t, err)
	assert.Empty(t, out.Results)

	prog, err := env.svc.Engine().Progress(ctx, "profileX", episode.DefaultEpisodeID)
	require.NoError(t, err)
	assert.Equal(t, episode.BeatID("1.3"), prog.CurrentBeatID)
	assert.False(t, prog.Completed)

	assert.JSONEq(t, after, storedJSON(t, env.stored(t, "profileX")))

	_, err = env.svc.TrackEpisodeEvent(ctx, "profileX", "", redEcho)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func gatedEpisode() episode.EpisodeData {
	return episode.EpisodeData{
		ID:           "EP02_Night_Market",
		Title:        "Night Market",
		Companion:    "Hae-In",
		Prerequisite: episode.Prerequisite{MinLevel: 3},
		Beats: []episode.StoryBeat{
			{
				ID:      "2.1",
				Title:   "Lanterns",
				Trigger: episode.TriggerEpisodeStart,
				Actions: []episode.EpisodeAction{
					{Action: episode.SetCompanionLocation{Companion: "Hae-In", Location: "night_market"}},
				},
				CompletionCondition: episode.CompletionCondition{Event: "meet_companion"},
			},
		},
	}
}

func TestStartEpisode_Prerequisites(t *testing.T) {
	env := newTestEnv(t, gatedEpisode())
	ctx := context.Background()
	env.create(t, "s1")
	before := storedJSON(t, env.stored(t, "s1"))

	_, err := env.svc.StartEpisode(ctx, "s1", "EP02_Night_Market")
	assert.Equal(t, apperr.CodePrerequisiteUnmet, apperr.CodeOf(err))
	assert.JSONEq(t, before, storedJSON(t, env.stored(t, "s1")))

	_, err = env.svc.AddExperience(ctx, "s1", 300, "test")
	require.NoError(t, err)

	out, err := env.svc.StartEpisode(ctx, "s1", "EP02_Night_Market")
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.True(t, out.Results[0].Started)
	assert.Equal(t, "night_market", out.State.CompanionOverrides["Hae-In"])

	_, err = env.svc.StartEpisode(ctx, "s1", "EP99_Missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestProcessChoice_RoutesToActiveEpisodes(t *testing.T) {
	env := newTestEnv(t, gatedEpisode())
	ctx := context.Background()
	env.create(t, "s1")

	_, err := env.svc.Engine().SetActiveEpisodes(ctx, "s1", []episode.ActiveEpisode{
		{EpisodeID: "EP02_Night_Market", Priority: episode.PriorityPrimary},
	})
	require.NoError(t, err)

	// The only active episode is gated on level 3, so the event is skipped
	// and the default episode is not touched either.
	res, err := env.svc.ProcessChoice(ctx, "s1", ChoiceInput{ChoiceID: "call-companion"})
	require.NoError(t, err)
	assert.Empty(t, res.Results)

	prog, err := env.svc.Engine().Progress(ctx, "s1", episode.DefaultEpisodeID)
	require.NoError(t, err)
	assert.Nil(t, prog)
}

func TestExecuteEpisodeAction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.create(t, "s1")

	out, err := env.svc.ExecuteEpisodeAction(ctx, "s1", episode.DefaultEpisodeID, "1.1", 0)
	require.NoError(t, err)
	require.Len(t, out.State.Communicator, 1)
	assert.Equal(t, "Hae-In", out.State.Communicator[0].From)

	_, err = env.svc.ExecuteEpisodeAction(ctx, "s1", episode.DefaultEpisodeID, "1.1", 9)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	_, err = env.svc.ExecuteEpisodeAction(ctx, "s1", episode.DefaultEpisodeID, "4.2", 0)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestContextualGuidance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.create(t, "s1")

	g, err := env.svc.ContextualGuidance(ctx, "s1", "", "")
	require.NoError(t, err)
	assert.Nil(t, g)

	_, err = env.svc.Engine().SetActiveEpisodes(ctx, "s1", []episode.ActiveEpisode{
		{EpisodeID: episode.DefaultEpisodeID, Priority: episode.PriorityPrimary},
	})
	require.NoError(t, err)

	g, err = env.svc.ContextualGuidance(ctx, "s1", "guild_hall", "")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "Red Echo: Hae-In is waiting for you at Guild Hall this evening.", g.Text)

	// Chat passes the same guidance to the dialogue provider.
	_, err = env.svc.Chat(ctx, "s1", chat.ChatRequest{Message: "Where to?"})
	require.NoError(t, err)
	require.Equal(t, 1, env.dialogue.CallCount())
	assert.Contains(t, env.dialogue.Calls[0].Guidance, "Red Echo")
}

func TestMediaAndVoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.create(t, "s1")

	res, err := env.svc.GenerateMedia(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "https://images.test/entrance.png", res.ImageURL)
	assert.NotEmpty(t, res.Audio)
	assert.Equal(t, res.ImageURL, env.stored(t, "s1").SceneData.ImageURL)
	assert.Equal(t, 1, env.image.CallCount())
	require.Equal(t, 1, env.voice.CallCount())
	assert.Contains(t, env.voice.Calls[0], "narrator:")

	audio, err := env.svc.Synthesize(ctx, "Hello", "")
	require.NoError(t, err)
	assert.NotEmpty(t, audio)
	_, err = env.svc.Synthesize(ctx, "", "companion")
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	text, err := env.svc.Transcribe(ctx, []byte("audio"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	_, err = env.svc.Transcribe(ctx, nil)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
}

func TestMedia_ImageFailureKeepsState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.create(t, "s1")
	before := storedJSON(t, env.stored(t, "s1"))
	env.image.GenerateFunc = func(ctx context.Context, d services.ImageDescriptor) (string, error) {
		return "", context.DeadlineExceeded
	}

	res, err := env.svc.GenerateMedia(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, res.ImageURL)
	assert.JSONEq(t, before, storedJSON(t, env.stored(t, "s1")))
}
