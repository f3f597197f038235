package services

import (
	"context"

	"github.com/jwebster45206/gatebound/pkg/actor"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// DialogueRequest carries a free-form message and a snapshot of the session.
type DialogueRequest struct {
	Message   string
	Companion string
	State     *state.GameState // Read-only snapshot
	Player    *actor.Player    // Optional
	Context   string           // Activity or scene context from the client
	Guidance  string           // Episode guidance for the companion
}

// DialogueReply is the companion's answer and any state change it implies.
type DialogueReply struct {
	Text       string               `json:"text"`
	Expression string               `json:"expression,omitempty"`
	Delta      *state.DialogueDelta `json:"game_state_delta,omitempty"`
	Fallback   bool                 `json:"fallback,omitempty"`
}

// ImageDescriptor describes the scene an image should depict.
type ImageDescriptor struct {
	Scene             string `json:"scene"` // Story node or activity id
	Location          string `json:"location,omitempty"`
	TimeOfDay         string `json:"time_of_day,omitempty"`
	Expression        string `json:"expression,omitempty"`
	RelationshipStage string `json:"relationship_stage,omitempty"`
	Narration         string `json:"narration,omitempty"`
	Companion         string `json:"companion,omitempty"`
}

type DialogueProvider interface {
	Respond(ctx context.Context, req DialogueRequest) (*DialogueReply, error)
}

type ImageProvider interface {
	Generate(ctx context.Context, d ImageDescriptor) (string, error)
}

type VoiceProvider interface {
	Synthesize(ctx context.Context, text, speakerID string) ([]byte, error)
}

type SpeechToTextProvider interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
