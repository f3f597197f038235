package session

import (
	"context"
	"slices"
	"strings"

	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/progression"
	"github.com/jwebster45206/gatebound/pkg/state"
	"github.com/jwebster45206/gatebound/pkg/story"
)

// ChoiceInput is one player decision. Text is only read for free-text choices.
type ChoiceInput struct {
	ChoiceID string `json:"choice_id"`
	Text     string `json:"text,omitempty"`
}

// ChoiceResult is the outcome of ProcessChoice.
type ChoiceResult struct {
	EpisodeOutcome
	FreeText *story.Reply  `json:"free_text,omitempty"`
	Effect   *story.Effect `json:"effect,omitempty"`
}

// ProcessChoice advances the story for one choice, applies its resource
// effects, recomputes the scene and feeds any gameplay events to the
// session's episodes. Free-text choices bypass the graph. A session on an
// ending node is returned unchanged.
func (s *Service) ProcessChoice(ctx context.Context, id string, in ChoiceInput) (*ChoiceResult, error) {
	choiceID := strings.TrimSpace(in.ChoiceID)
	if choiceID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "choice_id is required")
	}

	res := &ChoiceResult{}
	var ended *state.GameState
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		if gs.IsEnded() {
			ended = gs
			return errEnded
		}
		if story.IsFreeText(choiceID) {
			return s.freeTextChoice(ctx, gs, choiceID, in.Text, res)
		}
		return s.structuredChoice(ctx, gs, choiceID, res)
	})
	if err == errEnded {
		// Ending nodes are terminal: nothing is saved and nothing is published.
		res.State = ended
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.State = gs
	if err := s.commitEpisodes(ctx, id, &res.EpisodeOutcome); err != nil {
		return nil, err
	}

	s.logger.Info("Choice processed",
		"session_id", id,
		"choice_id", choiceID,
		"story_path", gs.StoryPath,
		"episodes_changed", len(res.Results))
	s.publish(ctx, id, events.EventTypeChoiceProcessed, map[string]any{
		"choice_id":  choiceID,
		"story_path": gs.StoryPath,
		"ended":      gs.IsEnded(),
	})
	s.publishEpisodes(ctx, id, &res.EpisodeOutcome)
	s.publishStateUpdated(ctx, gs)
	return res, nil
}

var errEnded = apperr.New(apperr.CodeInvalidTransition, "story has ended")

func (s *Service) freeTextChoice(ctx context.Context, gs *state.GameState, choiceID, text string, res *ChoiceResult) error {
	if story.SanitizeText(text) == "" {
		return apperr.New(apperr.CodeInvalidArgument, "text is required for a free-text choice")
	}
	reply := s.narrator.Respond(text)
	res.FreeText = &reply

	gs.ChoiceHistory = append(gs.ChoiceHistory, choiceID)
	gs.Narration = reply.Narration
	gs.SceneData.Decor = story.SceneDecor(gs.StoryPath, len(gs.ChoiceHistory))
	return s.routeGameplayEvent(ctx, gs, reply.Event, &res.EpisodeOutcome)
}

func (s *Service) structuredChoice(ctx context.Context, gs *state.GameState, choiceID string, res *ChoiceResult) error {
	if !slices.ContainsFunc(gs.Choices, func(c story.Choice) bool { return c.ID == choiceID }) {
		return apperr.WithMetadata(apperr.CodeInvalidArgument,
			"choice "+choiceID+" is not available here",
			map[string]string{"choice_id": choiceID, "story_path": gs.StoryPath})
	}
	current, err := s.graph.Node(gs.StoryPath)
	if err != nil {
		return err
	}
	chosen, _ := current.Choice(choiceID)

	next, flags, err := s.graph.Advance(gs.StoryPath, choiceID, gs.StoryFlags, gs.ChoiceHistory)
	if err != nil {
		return err
	}
	gs.ChoiceHistory = append(gs.ChoiceHistory, choiceID)
	gs.StoryFlags = flags

	if eff, ok := s.effects.Lookup(choiceID); ok {
		res.Effect = &eff
		gs.AdjustHealth(eff.HealthDelta)
		gs.AdjustMana(eff.ManaDelta)
		if eff.Experience > 0 {
			lu, err := progression.AddExperience(gs, eff.Experience, "choice:"+choiceID)
			if err != nil {
				return err
			}
			res.LevelUps = append(res.LevelUps, lu)
		}
	}
	gs.EnterNode(s.graph, next)

	if err := s.routeGameplayEvent(ctx, gs, chosen.Event, &res.EpisodeOutcome); err != nil {
		return err
	}
	if next.ID != current.ID && next.Event != chosen.Event {
		return s.routeGameplayEvent(ctx, gs, next.Event, &res.EpisodeOutcome)
	}
	return nil
}
