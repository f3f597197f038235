package state

import (
	"slices"

	"github.com/jwebster45206/gatebound/pkg/chat"
)

// PromptState is the reduced view of a session handed to the dialogue provider.
type PromptState struct {
	PlayerName         string             `json:"player_name,omitempty"`
	Level              int                `json:"level"`
	Health             int                `json:"health"`
	MaxHealth          int                `json:"max_health"`
	Energy             int                `json:"energy"`
	Affection          int                `json:"affection"`
	RelationshipStatus RelationshipStatus `json:"relationship_status"`
	CompanionMood      string             `json:"companion_mood,omitempty"`
	Location           string             `json:"location"`
	StoryPath          string             `json:"story_path"`
	Flags              []string           `json:"flags,omitempty"`
	ActiveQuests       []string           `json:"active_quests,omitempty"`
	RecentChat         []chat.ChatMessage `json:"recent_chat,omitempty"`
}

// PromptHistoryLimit is the number of chat messages included in a prompt.
const PromptHistoryLimit = 10

func ToPromptState(gs *GameState, companion string) *PromptState {
	ps := &PromptState{
		PlayerName:         gs.PlayerName,
		Level:              gs.Level,
		Health:             gs.Health,
		MaxHealth:          gs.MaxHealth,
		Energy:             gs.Energy,
		Affection:          gs.AffectionLevel,
		RelationshipStatus: gs.RelationshipStatus,
		CompanionMood:      gs.CompanionMoods[companion],
		Location:           gs.CompanionLocation(companion, gs.CurrentScene),
		StoryPath:          gs.StoryPath,
		RecentChat:         slices.Clone(chat.Tail(gs.ChatHistory, PromptHistoryLimit)),
	}
	for k, v := range gs.StoryFlags {
		if v {
			ps.Flags = append(ps.Flags, k)
		}
	}
	slices.Sort(ps.Flags)
	for _, q := range gs.ActiveQuests {
		ps.ActiveQuests = append(ps.ActiveQuests, q.Title)
	}
	return ps
}
