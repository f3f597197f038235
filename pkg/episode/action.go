package episode

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/gatebound/pkg/state"
)

// Command names an episode action on the wire.
type Command string

const (
	CommandDeliverMessage           Command = "deliver_message"
	CommandSetQuestObjective        Command = "set_quest_objective"
	CommandSetCompanionLocation     Command = "set_companion_location"
	CommandReleaseCompanionLocation Command = "release_companion_location"
	CommandSetCompanionMood         Command = "set_companion_mood"
	CommandSpawnLocation            Command = "spawn_location"
	CommandUnlockActivity           Command = "unlock_activity"
	CommandCreateMemory             Command = "create_memory"
	CommandGiveReward               Command = "give_reward"
	CommandCompleteEpisode          Command = "complete_episode"
)

// Action is a declarative world mutation fired by a beat. The set of
// implementations is closed; unrecognised commands decode to Unknown.
type Action interface {
	Command() Command
	isAction()
}

type DeliverMessage struct {
	From    string `json:"from"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

type SetQuestObjective struct {
	QuestID     string `json:"quest_id"`
	QuestTitle  string `json:"quest_title,omitempty"`
	ObjectiveID string `json:"objective_id"`
	Text        string `json:"text"`
}

type SetCompanionLocation struct {
	Companion string `json:"companion"`
	Location  string `json:"location"`
}

type ReleaseCompanionLocation struct {
	Companion string `json:"companion"`
}

type SetCompanionMood struct {
	Companion string `json:"companion"`
	Mood      string `json:"mood"`
}

type SpawnLocation struct {
	LocationID  string `json:"location_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UnlockActivity struct {
	ActivityID string `json:"activity_id"`
}

type CreateMemory struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Emotion     string `json:"emotion,omitempty"`
}

type GiveReward struct {
	Gold       int                   `json:"gold,omitempty"`
	Experience int                   `json:"experience,omitempty"`
	Affection  int                   `json:"affection,omitempty"`
	Items      []state.InventoryItem `json:"items,omitempty"`
}

type CompleteEpisode struct{}

// Unknown preserves a command this build does not understand.
type Unknown struct {
	Name   Command
	Params json.RawMessage
}

func (DeliverMessage) Command() Command           { return CommandDeliverMessage }
func (SetQuestObjective) Command() Command        { return CommandSetQuestObjective }
func (SetCompanionLocation) Command() Command     { return CommandSetCompanionLocation }
func (ReleaseCompanionLocation) Command() Command { return CommandReleaseCompanionLocation }
func (SetCompanionMood) Command() Command         { return CommandSetCompanionMood }
func (SpawnLocation) Command() Command            { return CommandSpawnLocation }
func (UnlockActivity) Command() Command           { return CommandUnlockActivity }
func (CreateMemory) Command() Command             { return CommandCreateMemory }
func (GiveReward) Command() Command               { return CommandGiveReward }
func (CompleteEpisode) Command() Command          { return CommandCompleteEpisode }
func (u Unknown) Command() Command                { return u.Name }

func (DeliverMessage) isAction()           {}
func (SetQuestObjective) isAction()        {}
func (SetCompanionLocation) isAction()     {}
func (ReleaseCompanionLocation) isAction() {}
func (SetCompanionMood) isAction()         {}
func (SpawnLocation) isAction()            {}
func (UnlockActivity) isAction()           {}
func (CreateMemory) isAction()             {}
func (GiveReward) isAction()               {}
func (CompleteEpisode) isAction()          {}
func (Unknown) isAction()                  {}

// EpisodeAction is the {command, params} envelope around an Action.
type EpisodeAction struct {
	Action
}

type actionEnvelope struct {
	Command Command         `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (a *EpisodeAction) UnmarshalJSON(data []byte) error {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Command == "" {
		return fmt.Errorf("action has no command")
	}
	act, err := decodeAction(env.Command, env.Params)
	if err != nil {
		return fmt.Errorf("action %s: %w", env.Command, err)
	}
	a.Action = act
	return nil
}

func (a EpisodeAction) MarshalJSON() ([]byte, error) {
	if a.Action == nil {
		return []byte("null"), nil
	}
	env := actionEnvelope{Command: a.Command()}
	if u, ok := a.Action.(Unknown); ok {
		env.Params = u.Params
		return json.Marshal(env)
	}
	params, err := json.Marshal(a.Action)
	if err != nil {
		return nil, err
	}
	if string(params) != "{}" {
		env.Params = params
	}
	return json.Marshal(env)
}

func decodeAction(cmd Command, params json.RawMessage) (Action, error) {
	switch cmd {
	case CommandDeliverMessage:
		return decodeParams[DeliverMessage](params)
	case CommandSetQuestObjective:
		return decodeParams[SetQuestObjective](params)
	case CommandSetCompanionLocation:
		return decodeParams[SetCompanionLocation](params)
	case CommandReleaseCompanionLocation:
		return decodeParams[ReleaseCompanionLocation](params)
	case CommandSetCompanionMood:
		return decodeParams[SetCompanionMood](params)
	case CommandSpawnLocation:
		return decodeParams[SpawnLocation](params)
	case CommandUnlockActivity:
		return decodeParams[UnlockActivity](params)
	case CommandCreateMemory:
		return decodeParams[CreateMemory](params)
	case CommandGiveReward:
		return decodeParams[GiveReward](params)
	case CommandCompleteEpisode:
		return CompleteEpisode{}, nil
	default:
		return Unknown{Name: cmd, Params: params}, nil
	}
}

func decodeParams[T Action](params json.RawMessage) (Action, error) {
	var v T
	if len(params) == 0 || string(params) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return nil, err
	}
	return v, nil
}
