package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

func TestQuests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "s1")

	quests, err := json.Marshal([]state.Quest{{
		ID:         "gate_cleanup",
		Title:      "Gate Cleanup",
		Rank:       state.RankD,
		Type:       "daily",
		Objectives: []state.Objective{{ID: "clear", Description: "Clear the D-rank gate"}},
		Rewards:    state.Rewards{Gold: 120, Experience: 20, Affection: 2},
		Status:     state.QuestReceived,
		TimeLimit:  60,
	}})
	require.NoError(t, err)
	_, err = env.svc.UpdateGameState(ctx, "s1", map[string]json.RawMessage{"active_quests": quests})
	require.NoError(t, err)

	_, err = env.svc.AcceptQuest(ctx, "s1", "missing")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	accepted, err := env.svc.AcceptQuest(ctx, "s1", "gate_cleanup")
	require.NoError(t, err)
	assert.Equal(t, state.QuestAccepted, accepted.Quest.Status)
	require.NotNil(t, accepted.Quest.ExpiresAt)
	assert.Equal(t, testNow.Add(60*time.Minute), *accepted.Quest.ExpiresAt)

	_, err = env.svc.AcceptQuest(ctx, "s1", "gate_cleanup")
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	done, err := env.svc.CompleteQuest(ctx, "s1", "gate_cleanup")
	require.NoError(t, err)
	assert.Equal(t, state.QuestCompleted, done.Quest.Status)
	assert.True(t, done.Quest.Objectives[0].Completed)
	assert.Equal(t, created.Gold+120, done.State.Gold)
	assert.Equal(t, 20, done.State.Experience)
	assert.Equal(t, created.AffectionLevel+2, done.State.AffectionLevel)
	assert.Empty(t, done.State.ActiveQuests)
	assert.True(t, done.State.HasCompletedQuest("gate_cleanup"))
}

func TestActivities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "s1")

	_, err := env.svc.ScheduleActivity(ctx, "s1", "stargazing", time.Time{})
	assert.Equal(t, apperr.CodePrerequisiteUnmet, apperr.CodeOf(err))
	_, err = env.svc.ScheduleActivity(ctx, "s1", "", time.Time{})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

	res, err := env.svc.ScheduleActivity(ctx, "s1", "coffee_date", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, state.ActivityProposed, res.Activity.Status)
	assert.Equal(t, testNow, res.Activity.ScheduledFor)
	id := res.Activity.ID

	_, err = env.svc.TransitionActivity(ctx, "s1", id, state.ActivityCompleted)
	assert.Equal(t, apperr.CodeInvalidTransition, apperr.CodeOf(err))

	for _, to := range []state.ActivityStatus{state.ActivityConfirmed, state.ActivityActive, state.ActivityCompleted} {
		res, err = env.svc.TransitionActivity(ctx, "s1", id, to)
		require.NoError(t, err, to)
	}
	assert.Equal(t, created.Energy-10, res.State.Energy)
	assert.Equal(t, created.AffectionLevel+5, res.State.AffectionLevel)

	_, err = env.svc.TransitionActivity(ctx, "s1", "nope", state.ActivityConfirmed)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
