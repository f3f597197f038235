package episode

import "github.com/jwebster45206/gatebound/pkg/state"

// DefaultEpisodeID receives gameplay events that name no episode.
const DefaultEpisodeID = "EP01_Red_Echo"

// Trigger values that fire a beat's actions as soon as the beat is entered.
const (
	TriggerEpisodeStart = "episode_start"
	TriggerBeatStart    = "beat_start"
)

const defaultCompanion = "Hae-In"

// defaultEpisode is the built-in first episode. A file with the same id in
// the content directory replaces it.
func defaultEpisode() EpisodeData {
	return EpisodeData{
		ID:          DefaultEpisodeID,
		Title:       "Red Echo",
		Description: "A red gate tears open above the old quarter and the guild sends its newest hunter in.",
		Companion:   defaultCompanion,
		Beats: []StoryBeat{
			{
				ID:      "1.1",
				Title:   "The Summons",
				Trigger: TriggerEpisodeStart,
				Actions: []EpisodeAction{
					{DeliverMessage{From: defaultCompanion, Subject: "Red gate", Body: "A red gate opened near the old quarter. Meet me at the guild hall."}},
					{SetCompanionLocation{Companion: defaultCompanion, Location: "guild_hall"}},
					{SetQuestObjective{QuestID: "red_echo", QuestTitle: "Red Echo", ObjectiveID: "meet", Text: "Meet Hae-In at the guild hall"}},
				},
				CompletionCondition: CompletionCondition{Event: "meet_companion"},
			},
			{
				ID:      "1.2",
				Title:   "Into the Red Gate",
				Trigger: TriggerBeatStart,
				Actions: []EpisodeAction{
					{SetCompanionMood{Companion: defaultCompanion, Mood: "focused"}},
					{SetQuestObjective{QuestID: "red_echo", ObjectiveID: "enter", Text: "Enter the dungeon beyond the red gate"}},
				},
				CompletionCondition: CompletionCondition{Event: "player_enters_dungeon"},
			},
			{
				ID:      "1.3",
				Title:   "Echoes Below",
				Trigger: TriggerBeatStart,
				Actions: []EpisodeAction{
					{SpawnLocation{LocationID: "red_gate_depths", Name: "Red Gate Depths", Description: "Crimson light pulses through the stone."}},
					{SetQuestObjective{QuestID: "red_echo", ObjectiveID: "survive", Text: "Find a way out of the depths"}},
				},
				CompletionCondition: CompletionCondition{Event: "end_episode"},
			},
		},
		OnComplete: []EpisodeAction{
			{ReleaseCompanionLocation{Companion: defaultCompanion}},
			{CreateMemory{Title: "Red Echo", Description: "We walked out of the red gate together.", Emotion: "relief"}},
			{GiveReward{Gold: 300, Experience: 150, Affection: 5, Items: []state.InventoryItem{
				{ID: "red_gate_shard", Name: "Red Gate Shard", Type: state.ItemMaterial, Quantity: 1, Value: 400, Rarity: state.RarityRare},
			}}},
			{UnlockActivity{ActivityID: "post_raid_dinner"}},
		},
		Source: "builtin",
	}
}
