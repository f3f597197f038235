package state

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gatebound/pkg/chat"
	"github.com/jwebster45206/gatebound/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameState(t *testing.T) {
	gs := NewGameState("", "Jin", story.DefaultGraph())

	assert.NotEqual(t, uuid.Nil, gs.ID)
	assert.Equal(t, gs.ID.String(), gs.SessionID)
	assert.Equal(t, 1, gs.Level)
	assert.Equal(t, 100, gs.Health)
	assert.Equal(t, 100, gs.MaxHealth)
	assert.Equal(t, 10, gs.Stats.Vitality)
	assert.Equal(t, StartingGold, gs.Gold)
	assert.Equal(t, story.StartNodeID, gs.StoryPath)
	assert.Equal(t, "dungeon_gate", gs.CurrentScene)
	assert.NotEmpty(t, gs.Narration)
	assert.Len(t, gs.Choices, 5)
	assert.Empty(t, gs.ChoiceHistory)
	assert.Equal(t, RelationshipNone, gs.RelationshipStatus)
	assert.NotEmpty(t, gs.SceneData.Runes)
}

func TestNewGameState_KeepsSessionID(t *testing.T) {
	gs := NewGameState("session-42", "", nil)
	assert.Equal(t, "session-42", gs.SessionID)
	assert.Empty(t, gs.StoryPath)
}

func TestGameState_CloneIsDeep(t *testing.T) {
	gs := NewGameState("", "", story.DefaultGraph())
	gs.SetFlag(story.FlagCombatReady)

	cp, err := gs.Clone()
	require.NoError(t, err)

	cp.SetFlag(story.FlagMagicalKnowledge)
	cp.Inventory[0].Quantity = 99
	cp.ChoiceHistory = append(cp.ChoiceHistory, "draw-weapon")

	assert.False(t, gs.StoryFlags[story.FlagMagicalKnowledge])
	assert.Equal(t, 3, gs.Inventory[0].Quantity)
	assert.Empty(t, gs.ChoiceHistory)
	assert.True(t, cp.StoryFlags[story.FlagCombatReady])
}

func TestGameState_EnterEnding(t *testing.T) {
	g := story.DefaultGraph()
	gs := NewGameState("", "", g)
	node, err := g.Node("ending_victory")
	require.NoError(t, err)

	gs.EnterNode(g, node)

	assert.True(t, gs.IsEnded())
	assert.Equal(t, story.EndingVictory, gs.EndingType)
	assert.Empty(t, gs.Choices)
}

func TestGameState_AppendChatBounded(t *testing.T) {
	gs := NewGameState("", "", nil)
	for i := 0; i < ChatHistoryLimit+7; i++ {
		gs.AppendChat(chat.ChatMessage{Role: chat.ChatRoleUser, Content: "hi"})
	}
	assert.Len(t, gs.ChatHistory, ChatHistoryLimit)
}

func TestVitals_ClampProperty(t *testing.T) {
	deltas := [][]int{
		{-500, 20, 30},
		{1000, -1},
		{-1, -1, -1, -1000, 5000},
		{0},
		{37, -12, 999, -999, 3},
	}
	for _, seq := range deltas {
		v := Vitals{Health: 100, MaxHealth: 100, Mana: 50, MaxMana: 50, Energy: 100, MaxEnergy: 100}
		for _, d := range seq {
			v.AdjustHealth(d)
			v.AdjustMana(d)
			v.AdjustEnergy(d)
			assert.True(t, v.Health >= 0 && v.Health <= v.MaxHealth)
			assert.True(t, v.Mana >= 0 && v.Mana <= v.MaxMana)
			assert.True(t, v.Energy >= 0 && v.Energy <= v.MaxEnergy)
		}
	}
}

func TestVitals_RaiseMax(t *testing.T) {
	v := Vitals{Health: 40, MaxHealth: 100, Mana: 50, MaxMana: 50}
	v.RaiseMaxHealth(15)
	v.RaiseMaxMana(8)
	assert.Equal(t, 115, v.MaxHealth)
	assert.Equal(t, 55, v.Health)
	assert.Equal(t, 58, v.MaxMana)
	assert.Equal(t, 58, v.Mana)
}

func TestRelationship(t *testing.T) {
	tests := []struct {
		affection int
		want      RelationshipStatus
		hearts    int
	}{
		{0, RelationshipNone, 0},
		{59, RelationshipNone, 2},
		{60, RelationshipDating, 3},
		{85, RelationshipEngaged, 4},
		{95, RelationshipMarried, 4},
		{100, RelationshipMarried, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForAffection(tt.affection), "affection %d", tt.affection)
		assert.Equal(t, tt.hearts, Hearts(tt.affection), "affection %d", tt.affection)
	}

	gs := NewGameState("", "", nil)
	gs.AdjustAffection(500)
	assert.Equal(t, AffectionMax, gs.AffectionLevel)
	assert.Equal(t, RelationshipMarried, gs.RelationshipStatus)
	gs.AdjustAffection(-500)
	assert.Equal(t, 0, gs.AffectionLevel)
}

func TestCharacterStats(t *testing.T) {
	cs := CharacterStats{Vitality: 10}
	require.NoError(t, cs.Add(StatVitality, 2))
	v, err := cs.Get(StatVitality)
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	assert.Error(t, cs.Add("charisma", 1))
	_, err = cs.Get("luck")
	assert.Error(t, err)
}

func TestInventory(t *testing.T) {
	gs := NewGameState("", "", nil)
	gs.AddItem(InventoryItem{ID: "health_potion", Quantity: 2})
	gs.AddItem(InventoryItem{ID: "gate_shard", Name: "Gate Shard", Type: ItemMaterial})

	assert.Equal(t, 5, gs.Inventory[0].Quantity)
	assert.Equal(t, "gate_shard", gs.Inventory[len(gs.Inventory)-1].ID)
	assert.Equal(t, 1, gs.Inventory[len(gs.Inventory)-1].Quantity)

	require.NoError(t, gs.SpendGold(200))
	assert.Equal(t, 300, gs.Gold)
	assert.Error(t, gs.SpendGold(301))
	assert.Equal(t, 300, gs.Gold)
}

func TestTimeOfDay(t *testing.T) {
	tests := map[int]string{0: "night", 5: "morning", 11: "morning", 12: "afternoon", 17: "evening", 20: "evening", 21: "night"}
	for hour, want := range tests {
		at := time.Date(2026, 3, 1, hour, 30, 0, 0, time.UTC)
		if got := TimeOfDay(at); got != want {
			t.Errorf("TimeOfDay(%02d:30) = %q, want %q", hour, got, want)
		}
	}
}
