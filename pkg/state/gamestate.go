package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/gatebound/pkg/chat"
	"github.com/jwebster45206/gatebound/pkg/story"
)

const (
	StartingHealth = 100
	StartingMana   = 50
	StartingEnergy = 100
	StartingGold   = 500
	StartingStat   = 10

	StartingAffection = 25

	// ChatHistoryLimit bounds the stored chat history per session.
	ChatHistoryLimit = 50
)

// GameState is the aggregate root of one play session.
type GameState struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	PlayerName string    `json:"player_name,omitempty"`

	Vitals

	Level       int `json:"level"`
	Experience  int `json:"experience"`
	StatPoints  int `json:"stat_points"`
	SkillPoints int `json:"skill_points"`

	AffectionLevel     int                `json:"affection_level"` // 0-100
	IntimacyLevel      int                `json:"intimacy_level"`  // 0-100
	RelationshipStatus RelationshipStatus `json:"relationship_status"`

	StoryPath     string           `json:"story_path"`    // Current story node id
	CurrentScene  string           `json:"current_scene"` // Location id of the current node
	Narration     string           `json:"narration"`
	Choices       []story.Choice   `json:"choices"`
	ChoiceHistory []string         `json:"choice_history"`
	StoryFlags    story.Flags      `json:"story_flags"`
	EndingType    story.EndingType `json:"ending_type,omitempty"`

	Inventory []InventoryItem `json:"inventory"`
	Gold      int             `json:"gold"`

	Stats  CharacterStats `json:"stats"`
	Skills []Skill        `json:"skills"`

	ActiveQuests        []Quest             `json:"active_quests"`
	CompletedQuests     []Quest             `json:"completed_quests"`
	ScheduledActivities []ScheduledActivity `json:"scheduled_activities"`
	UnlockedActivities  []string            `json:"unlocked_activities,omitempty"`

	Communicator       []Message         `json:"communicator,omitempty"`
	Memories           []Memory          `json:"memories,omitempty"`
	UnlockedLocations  []Location        `json:"unlocked_locations,omitempty"`
	CompanionOverrides map[string]string `json:"companion_overrides,omitempty"` // companion -> pinned location
	CompanionMoods     map[string]string `json:"companion_moods,omitempty"`
	CompletedEpisodes  []string          `json:"completed_episodes,omitempty"`

	ChatHistory []chat.ChatMessage `json:"chat_history,omitempty"`
	SceneData   SceneData          `json:"scene_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Skill is a session's held level in one skill of the skill tree.
type Skill struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Tier          int      `json:"tier"`
	Branch        string   `json:"branch,omitempty"`
	Level         int      `json:"level"`
	MaxLevel      int      `json:"max_level"`
	Prerequisites []string `json:"prerequisites,omitempty"`
	Unlocked      bool     `json:"unlocked"`
}

// NewGameState returns a fresh session positioned at the graph's start node.
func NewGameState(sessionID, playerName string, graph *story.Graph) *GameState {
	id := uuid.New()
	if sessionID == "" {
		sessionID = id.String()
	}
	now := time.Now()

	gs := &GameState{
		ID:         id,
		SessionID:  sessionID,
		PlayerName: playerName,
		Vitals: Vitals{
			Health: StartingHealth, MaxHealth: StartingHealth,
			Mana: StartingMana, MaxMana: StartingMana,
			Energy: StartingEnergy, MaxEnergy: StartingEnergy,
		},
		Level:          1,
		AffectionLevel: StartingAffection,
		ChoiceHistory:  []string{},
		StoryFlags:     story.Flags{},
		Inventory: []InventoryItem{
			{ID: "health_potion", Name: "Health Potion", Type: ItemConsumable, Quantity: 3, Value: 50, Rarity: RarityCommon},
			{ID: "mana_potion", Name: "Mana Potion", Type: ItemConsumable, Quantity: 2, Value: 60, Rarity: RarityCommon},
			{ID: "hunters_dagger", Name: "Hunter's Dagger", Type: ItemWeapon, Quantity: 1, Value: 200, Rarity: RarityUncommon},
		},
		Gold: StartingGold,
		Stats: CharacterStats{
			Strength:     StartingStat,
			Agility:      StartingStat,
			Intelligence: StartingStat,
			Vitality:     StartingStat,
			Sense:        StartingStat,
		},
		Skills:              []Skill{},
		ActiveQuests:        []Quest{},
		CompletedQuests:     []Quest{},
		ScheduledActivities: []ScheduledActivity{},
		CompanionOverrides:  map[string]string{},
		CompanionMoods:      map[string]string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	gs.RelationshipStatus = StatusForAffection(gs.AffectionLevel)
	if graph != nil {
		gs.EnterNode(graph, graph.Start())
	}
	return gs
}

// EnterNode positions the session on node and refreshes narration, choices and decor.
func (gs *GameState) EnterNode(graph *story.Graph, node *story.Node) {
	if gs.StoryFlags == nil {
		gs.StoryFlags = story.Flags{}
	}
	gs.StoryPath = node.ID
	gs.CurrentScene = node.Location
	gs.Narration = node.Narrate(gs.StoryFlags)
	gs.Choices = graph.AvailableChoices(node, gs.StoryFlags, gs.ChoiceHistory)
	if node.IsEnding {
		gs.EndingType = node.EndingType
	}
	gs.SceneData.Location = node.Location
	gs.SceneData.Decor = story.SceneDecor(node.ID, len(gs.ChoiceHistory))
}

// IsEnded reports whether the session sits on an ending node.
func (gs *GameState) IsEnded() bool {
	return gs.EndingType != ""
}

// AppendChat records a chat message, keeping at most ChatHistoryLimit entries.
func (gs *GameState) AppendChat(msg chat.ChatMessage) {
	gs.ChatHistory = append(gs.ChatHistory, msg)
	if len(gs.ChatHistory) > ChatHistoryLimit {
		gs.ChatHistory = append([]chat.ChatMessage(nil), gs.ChatHistory[len(gs.ChatHistory)-ChatHistoryLimit:]...)
	}
}

// Clone returns a deep copy. Mutations are staged on a clone and only
// persisted when the whole operation succeeds.
func (gs *GameState) Clone() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	var out GameState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &out, nil
}

// SkillByID returns a pointer into Skills for the given id.
func (gs *GameState) SkillByID(id string) *Skill {
	for i := range gs.Skills {
		if gs.Skills[i].ID == id {
			return &gs.Skills[i]
		}
	}
	return nil
}

// SkillLevel returns the held level of a skill, 0 when absent.
func (gs *GameState) SkillLevel(id string) int {
	if s := gs.SkillByID(id); s != nil {
		return s.Level
	}
	return 0
}

// SetFlag sets a story flag. Flags are never cleared.
func (gs *GameState) SetFlag(name string) {
	if gs.StoryFlags == nil {
		gs.StoryFlags = story.Flags{}
	}
	gs.StoryFlags[name] = true
}
