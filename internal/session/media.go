package session

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/gatebound/internal/services"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// MediaResult holds the generated scene image and narration audio. Either may
// be empty when its provider fails.
type MediaResult struct {
	ImageURL string           `json:"image_url,omitempty"`
	Audio    []byte           `json:"audio,omitempty"`
	State    *state.GameState `json:"state"`
}

// GenerateMedia renders the current scene image and narration voice
// concurrently. A new image URL is stored on the scene.
func (s *Service) GenerateMedia(ctx context.Context, id string) (*MediaResult, error) {
	snapshot, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	desc := services.ImageDescriptor{
		Scene:             snapshot.StoryPath,
		Location:          snapshot.CurrentScene,
		TimeOfDay:         snapshot.SceneData.TimeOfDay,
		Expression:        snapshot.SceneData.Expression,
		RelationshipStage: string(snapshot.RelationshipStatus),
		Narration:         snapshot.Narration,
		Companion:         s.companion,
	}

	res := &MediaResult{State: snapshot}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.ImageURL = s.providers.Generate(gctx, desc)
		return nil
	})
	g.Go(func() error {
		res.Audio = s.providers.Synthesize(gctx, snapshot.Narration, "narrator")
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if res.ImageURL == "" {
		return res, nil
	}
	gs, err := s.mutate(ctx, id, func(gs *state.GameState) error {
		gs.SceneData.ImageURL = res.ImageURL
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.State = gs
	return res, nil
}

// Synthesize voices text for a speaker. Nil audio means the provider failed.
func (s *Service) Synthesize(ctx context.Context, text, speakerID string) ([]byte, error) {
	if text == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "text is required")
	}
	if speakerID == "" {
		speakerID = "companion"
	}
	return s.providers.Synthesize(ctx, text, speakerID), nil
}

// Transcribe turns recorded speech into text. An empty string means the
// provider failed.
func (s *Service) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", apperr.New(apperr.CodeInvalidArgument, "audio is required")
	}
	return s.providers.Transcribe(ctx, audio), nil
}
