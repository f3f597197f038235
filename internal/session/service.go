// Package session orchestrates every operation on a play session's game
// state: the story graph, the episode engine, character progression and the
// external providers all meet here.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/gatebound/internal/services"
	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/state"
	"github.com/jwebster45206/gatebound/pkg/storage"
	"github.com/jwebster45206/gatebound/pkg/story"
)

// Service is the session/profile game-state store. A profile id and a
// session id are the same key.
type Service struct {
	storage   storage.Storage
	locker    storage.Locker
	graph     *story.Graph
	effects   story.Effects
	narrator  *story.Narrator
	engine    *episode.Engine
	providers *services.Guarded
	events    events.Publisher
	companion string
	logger    *slog.Logger
	now       func() time.Time
}

// Config carries the collaborators of a Service. Nil optional fields get
// in-process defaults.
type Config struct {
	Storage   storage.Storage
	Locker    storage.Locker    // Optional, defaults to an in-memory locker
	Graph     *story.Graph      // Optional, defaults to the built-in graph
	Engine    *episode.Engine   // Required
	Providers *services.Guarded // Optional, defaults to fallbacks only
	Events    events.Publisher  // Optional
	Companion string
	Logger    *slog.Logger
}

func New(cfg Config) *Service {
	s := &Service{
		storage:   cfg.Storage,
		locker:    cfg.Locker,
		graph:     cfg.Graph,
		effects:   story.DefaultEffects(),
		engine:    cfg.Engine,
		providers: cfg.Providers,
		events:    cfg.Events,
		companion: cfg.Companion,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.locker == nil {
		s.locker = storage.NewMemoryLocker()
	}
	if s.graph == nil {
		s.graph = story.DefaultGraph()
	}
	if s.providers == nil {
		s.providers = services.NewGuarded(0, s.logger)
	}
	if s.companion == "" {
		s.companion = "Hae-In"
	}
	s.narrator = story.NewNarrator(s.companion)
	return s
}

// WithClock replaces the service's time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Companion is the name of the companion this service plays.
func (s *Service) Companion() string {
	return s.companion
}

// Engine exposes the episode engine for profile-level operations that do not
// touch a game state.
func (s *Service) Engine() *episode.Engine {
	return s.engine
}

func (s *Service) load(ctx context.Context, id string) (*state.GameState, error) {
	gs, err := s.storage.LoadGameState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, apperr.NotFound("session", id)
	}
	return gs, nil
}

// mutate runs fn on a copy of the session's state while holding the session
// lock and saves the copy only if fn succeeds. The stored state is untouched
// on any error.
func (s *Service) mutate(ctx context.Context, id string, fn func(gs *state.GameState) error) (*state.GameState, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	defer unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	gs, err := current.Clone()
	if err != nil {
		return nil, err
	}
	if err := fn(gs); err != nil {
		return nil, err
	}
	if err := gs.Validate(); err != nil {
		return nil, err
	}
	gs.UpdatedAt = s.now()
	if err := s.storage.SaveGameState(ctx, id, gs); err != nil {
		return nil, fmt.Errorf("failed to save game state: %w", err)
	}
	return gs, nil
}

// publish is best effort; a dropped event never fails the operation.
func (s *Service) publish(ctx context.Context, id string, typ events.EventType, data map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, id, events.Event{Type: typ, GameID: id, Data: data}); err != nil {
		s.logger.Warn("Failed to publish event", "session_id", id, "event_type", typ, "error", err)
	}
}

func (s *Service) publishStateUpdated(ctx context.Context, gs *state.GameState) {
	s.publish(ctx, gs.SessionID, events.EventTypeGameStateUpdated, map[string]any{
		"story_path": gs.StoryPath,
		"location":   gs.CurrentScene,
		"level":      gs.Level,
		"affection":  gs.AffectionLevel,
	})
}
