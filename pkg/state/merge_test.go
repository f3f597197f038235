package state

import (
	"encoding/json"
	"testing"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patchOf(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var p map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestMergePatch(t *testing.T) {
	gs := NewGameState("", "Jin", story.DefaultGraph())
	gs.SetFlag(story.FlagCombatReady)
	gs.ChoiceHistory = []string{"draw-weapon"}

	out, err := MergePatch(gs, patchOf(t, `{
		"gold": 900,
		"health": 400,
		"affection_level": 70,
		"choice_history": ["draw-weapon", "examine-runes"],
		"story_flags": {"magicalKnowledge": true}
	}`))
	require.NoError(t, err)

	assert.Equal(t, 900, out.Gold)
	assert.Equal(t, out.MaxHealth, out.Health, "health is clamped")
	assert.Equal(t, RelationshipDating, out.RelationshipStatus)
	assert.True(t, out.StoryFlags[story.FlagCombatReady], "existing flags survive replacement")
	assert.True(t, out.StoryFlags[story.FlagMagicalKnowledge])
	assert.Equal(t, "Jin", out.PlayerName)

	assert.Equal(t, 500, gs.Gold, "input is not mutated")
}

func TestMergePatch_Rejects(t *testing.T) {
	gs := NewGameState("", "", story.DefaultGraph())
	gs.ChoiceHistory = []string{"draw-weapon", "enter-gate"}

	tests := []struct {
		name  string
		patch string
	}{
		{"identity", `{"session_id": "other"}`},
		{"shrinking history", `{"choice_history": ["draw-weapon"]}`},
		{"rewritten history", `{"choice_history": ["retreat", "enter-gate"]}`},
		{"unknown field", `{"mana_crystals": 3}`},
		{"negative points", `{"stat_points": -1}`},
		{"level zero", `{"level": 0}`},
		{"wrong type", `{"gold": "lots"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MergePatch(gs, patchOf(t, tt.patch))
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}
}

func TestDialogueDelta_Apply(t *testing.T) {
	gs := NewGameState("", "", nil)
	d := &DialogueDelta{
		AffectionDelta: 40,
		IntimacyDelta:  2,
		Mood:           "flustered",
		SetFlags:       []string{"sharedSecret"},
		AddItems:       []InventoryItem{{ID: "pressed_flower", Name: "Pressed Flower", Type: ItemGift}},
	}
	d.Apply(gs, "hae-in")

	assert.Equal(t, StartingAffection+MaxDialogueSwing, gs.AffectionLevel)
	assert.Equal(t, 2, gs.IntimacyLevel)
	assert.Equal(t, "flustered", gs.CompanionMoods["hae-in"])
	assert.True(t, gs.StoryFlags["sharedSecret"])
	assert.Equal(t, "pressed_flower", gs.Inventory[len(gs.Inventory)-1].ID)

	var empty *DialogueDelta
	assert.True(t, empty.IsEmpty())
	empty.Apply(gs, "hae-in")
}

func TestToPromptState(t *testing.T) {
	gs := NewGameState("", "Jin", story.DefaultGraph())
	gs.SetFlag("b")
	gs.SetFlag("a")
	gs.PinCompanion("hae-in", "training_hall")

	ps := ToPromptState(gs, "hae-in")
	assert.Equal(t, []string{"a", "b"}, ps.Flags)
	assert.Equal(t, "training_hall", ps.Location)
	assert.Equal(t, "Jin", ps.PlayerName)
}
