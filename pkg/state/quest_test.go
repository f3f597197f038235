package state

import (
	"testing"
	"time"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gs := NewGameState("", "", nil)
	gs.ReceiveQuest(Quest{ID: "wolf_hunt", Title: "Wolf Hunt", Rank: RankD, Type: "raid", TimeLimit: 30}, now)

	require.NoError(t, gs.AcceptQuest("wolf_hunt", now))
	q := gs.ActiveQuest("wolf_hunt")
	require.NotNil(t, q)
	assert.Equal(t, QuestAccepted, q.Status)
	require.NotNil(t, q.ExpiresAt)

	// Accepting twice is not a valid transition.
	err := gs.AcceptQuest("wolf_hunt", now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	done, err := gs.FinishQuest("wolf_hunt", QuestCompleted)
	require.NoError(t, err)
	assert.Equal(t, QuestCompleted, done.Status)
	assert.Nil(t, gs.ActiveQuest("wolf_hunt"))
	assert.True(t, gs.HasCompletedQuest("wolf_hunt"))

	_, err = gs.FinishQuest("wolf_hunt", QuestCompleted)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestExpireQuests(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gs := NewGameState("", "", nil)
	gs.ReceiveQuest(Quest{ID: "timed", TimeLimit: 10}, now)
	gs.ReceiveQuest(Quest{ID: "untimed"}, now)
	require.NoError(t, gs.AcceptQuest("timed", now))
	require.NoError(t, gs.AcceptQuest("untimed", now))

	assert.Empty(t, gs.ExpireQuests(now.Add(5*time.Minute)))
	assert.Equal(t, []string{"timed"}, gs.ExpireQuests(now.Add(11*time.Minute)))
	assert.Len(t, gs.ActiveQuests, 1)
	assert.Equal(t, QuestExpired, gs.CompletedQuests[0].Status)
}

func TestSetQuestObjective(t *testing.T) {
	now := time.Now()
	gs := NewGameState("", "", nil)

	gs.SetQuestObjective("red_echo", "Red Echo", "reach_gate", "Meet Hae-In at the gate", now)
	gs.SetQuestObjective("red_echo", "Red Echo", "reach_gate", "Find Hae-In inside the gate", now)
	gs.SetQuestObjective("red_echo", "Red Echo", "clear", "Clear the dungeon", now)

	q := gs.ActiveQuest("red_echo")
	require.NotNil(t, q)
	assert.Equal(t, QuestInProgress, q.Status)
	require.Len(t, q.Objectives, 2)
	assert.Equal(t, "Find Hae-In inside the gate", q.Objectives[0].Description)
}
