package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/progression"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// CreateRequest seeds a new session. Both fields are optional.
type CreateRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
}

// GetGameState returns the stored state of a session.
func (s *Service) GetGameState(ctx context.Context, id string) (*state.GameState, error) {
	return s.load(ctx, id)
}

// CreateGameState seeds inventory, stats and skills and positions the
// session on the entrance node.
func (s *Service) CreateGameState(ctx context.Context, req CreateRequest) (*state.GameState, error) {
	id := strings.TrimSpace(req.SessionID)
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		name = "Hunter"
	}

	gs := state.NewGameState(id, name, s.graph)
	progression.SeedSkills(gs)
	now := s.now()
	gs.CreatedAt, gs.UpdatedAt = now, now
	gs.SceneData.TimeOfDay = state.TimeOfDay(now)
	id = gs.SessionID

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	existing, err := s.storage.LoadGameState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if existing != nil {
		return nil, apperr.Newf(apperr.CodeAlreadyExists, "session %s already exists", id)
	}
	if err := s.storage.SaveGameState(ctx, id, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	s.logger.Info("Game state created", "session_id", id, "player", name, "story_path", gs.StoryPath)
	return gs, nil
}

// UpdateGameState shallow-merges patch into the stored state. Identity is
// immutable, the choice history can only grow and story flags are never
// cleared.
func (s *Service) UpdateGameState(ctx context.Context, id string, patch map[string]json.RawMessage) (*state.GameState, error) {
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		out, err := state.MergePatch(gs, patch)
		if err != nil {
			return err
		}
		*gs = *out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishStateUpdated(ctx, gs)
	return gs, nil
}

// DeleteGameState removes a session.
func (s *Service) DeleteGameState(ctx context.Context, id string) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.storage.DeleteGameState(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game state: %w", err)
	}
	s.logger.Info("Game state deleted", "session_id", id)
	return nil
}
