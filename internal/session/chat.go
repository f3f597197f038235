package session

import (
	"context"
	"strings"

	"github.com/jwebster45206/gatebound/internal/services"
	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/pkg/actor"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/chat"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// ChatResult is the companion's reply and the session state after it.
type ChatResult struct {
	Reply *services.DialogueReply `json:"reply"`
	State *state.GameState        `json:"state"`
}

// Chat sends a free-form message to the companion. The provider is called
// without holding the session lock; the reply and its delta are then applied
// to a freshly loaded state. A fallback reply leaves the state untouched.
func (s *Service) Chat(ctx context.Context, id string, req chat.ChatRequest) (*ChatResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "invalid chat request", err)
	}
	snapshot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	player, err := actor.NewPlayer(snapshot)
	if err != nil {
		s.logger.Warn("Failed to build player for dialogue", "session_id", id, "error", err)
		player = nil
	}
	var guidance string
	if g, err := s.engine.ContextualGuidance(ctx, id, snapshot.CurrentScene, snapshot.SceneData.TimeOfDay); err != nil {
		s.logger.Warn("Failed to rank episode guidance", "session_id", id, "error", err)
	} else if g != nil {
		guidance = g.Text
	}

	message := strings.TrimSpace(req.Message)
	reply := s.providers.Respond(ctx, services.DialogueRequest{
		Message:   message,
		Companion: s.companion,
		State:     snapshot,
		Player:    player,
		Context:   req.Context,
		Guidance:  guidance,
	})
	if reply.Fallback {
		return &ChatResult{Reply: reply, State: snapshot}, nil
	}

	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		now := s.now()
		gs.AppendChat(chat.ChatMessage{Role: chat.ChatRoleUser, Content: message, At: now})
		gs.AppendChat(chat.ChatMessage{Role: chat.ChatRoleCompanion, Content: reply.Text, Expression: reply.Expression, At: now})
		gs.SceneData.Expression = reply.Expression
		reply.Delta.Apply(gs, s.companion)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, id, events.EventTypeChatReplied, map[string]any{
		"message":    reply.Text,
		"expression": reply.Expression,
	})
	if !reply.Delta.IsEmpty() {
		s.publishStateUpdated(ctx, gs)
	}
	return &ChatResult{Reply: reply, State: gs}, nil
}
