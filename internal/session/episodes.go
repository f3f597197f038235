package session

import (
	"context"
	"maps"

	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/progression"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// EpisodeOutcome is what an episode operation did to a session.
type EpisodeOutcome struct {
	State    *state.GameState            `json:"state"`
	Results  []*episode.Result           `json:"episodes,omitempty"`
	LevelUps []progression.LevelUpResult `json:"level_ups,omitempty"`

	staged *episode.Engine
	batch  *episode.Batch // Progress to save once the state is stored
}

// applyResult applies the actions an engine call fired to gs.
func (s *Service) applyResult(gs *state.GameState, res *episode.Result, out *EpisodeOutcome) error {
	if len(res.Actions) > 0 {
		w := episode.NewActionWorker(gs, s.logger).WithEpisode(res.EpisodeID).WithClock(s.now)
		if err := w.ApplyAll(res.Actions); err != nil {
			return err
		}
		out.LevelUps = append(out.LevelUps, w.LevelUps()...)
	}
	if res.Changed() {
		out.Results = append(out.Results, res)
	}
	return nil
}

func withEpisode(data map[string]any, episodeID string) map[string]any {
	out := make(map[string]any, len(data)+1)
	maps.Copy(out, data)
	out["episodeId"] = episodeID
	return out
}

// routeGameplayEvent feeds an event raised by play to every active episode of
// the session, or to the default episode when none are active. Episodes the
// player cannot start yet are skipped.
func (s *Service) routeGameplayEvent(ctx context.Context, gs *state.GameState, event string, out *EpisodeOutcome) error {
	if event == "" {
		return nil
	}
	active, err := s.engine.ActiveEpisodes(ctx, gs.SessionID)
	if err != nil {
		return err
	}
	targets := make([]string, 0, len(active))
	for _, a := range active {
		targets = append(targets, a.EpisodeID)
	}
	if len(targets) == 0 {
		targets = append(targets, episode.DefaultEpisodeID)
	}

	for _, id := range targets {
		res, err := s.episodes(out).TrackGameplayEvent(ctx, gs.SessionID, event, withEpisode(nil, id), gs)
		if err != nil {
			switch apperr.CodeOf(err) {
			case apperr.CodePrerequisiteUnmet, apperr.CodeNotFound:
				s.logger.Debug("Episode skipped for gameplay event",
					"session_id", gs.SessionID, "episode_id", id, "event", event, "reason", err)
				continue
			}
			return err
		}
		if err := s.applyResult(gs, res, out); err != nil {
			return err
		}
	}
	return nil
}

// episodes returns the engine to use inside a mutation. Its progress writes
// are held in out until commitEpisodes.
func (s *Service) episodes(out *EpisodeOutcome) *episode.Engine {
	if out.staged == nil {
		out.staged, out.batch = s.engine.Staged()
	}
	return out.staged
}

// commitEpisodes saves the episode progress staged during a mutation. It runs
// after the game state is stored so a rejected mutation never moves a beat.
func (s *Service) commitEpisodes(ctx context.Context, id string, out *EpisodeOutcome) error {
	if out.batch == nil {
		return nil
	}
	if err := out.batch.Commit(ctx); err != nil {
		s.logger.Error("Failed to save episode progress", "session_id", id, "error", err)
		return err
	}
	return nil
}

func (s *Service) publishEpisodes(ctx context.Context, id string, out *EpisodeOutcome) {
	for _, res := range out.Results {
		if res.Advanced || res.Started {
			s.publish(ctx, id, events.EventTypeEpisodeAdvanced, map[string]any{
				"episode_id": res.EpisodeID,
				"event":      res.Event,
				"from_beat":  string(res.FromBeat),
				"to_beat":    string(res.ToBeat),
			})
		}
		if res.Completed {
			s.publish(ctx, id, events.EventTypeEpisodeCompleted, map[string]any{
				"episode_id": res.EpisodeID,
			})
		}
	}
	s.publishLevelUps(ctx, id, out.LevelUps)
}

func (s *Service) publishLevelUps(ctx context.Context, id string, levelUps []progression.LevelUpResult) {
	for _, lu := range levelUps {
		if lu.LevelsGained() == 0 {
			continue
		}
		s.publish(ctx, id, events.EventTypeLeveledUp, map[string]any{
			"from_level": lu.FromLevel,
			"to_level":   lu.ToLevel,
			"source":     lu.Source,
		})
	}
}

// TrackEpisodeEvent feeds one event to the episode named in data (the
// default episode otherwise) for a profile and applies the fired actions to
// the profile's game state.
func (s *Service) TrackEpisodeEvent(ctx context.Context, profileID, event string, data map[string]any) (*EpisodeOutcome, error) {
	if event == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "event is required")
	}
	out := &EpisodeOutcome{}
	gs, err := s.mutate(ctx, profileID, func(gs *state.GameState) error {
		res, err := s.episodes(out).TrackGameplayEvent(ctx, profileID, event, data, gs)
		if err != nil {
			return err
		}
		return s.applyResult(gs, res, out)
	})
	if err != nil {
		return nil, err
	}
	out.State = gs
	if err := s.commitEpisodes(ctx, profileID, out); err != nil {
		return nil, err
	}
	s.publishEpisodes(ctx, profileID, out)
	if len(out.Results) > 0 {
		s.publishStateUpdated(ctx, gs)
	}
	return out, nil
}

// StartEpisode starts an episode for a profile after checking its
// prerequisites against the profile's game state.
func (s *Service) StartEpisode(ctx context.Context, profileID, episodeID string) (*EpisodeOutcome, error) {
	out := &EpisodeOutcome{}
	gs, err := s.mutate(ctx, profileID, func(gs *state.GameState) error {
		res, err := s.episodes(out).StartEpisode(ctx, profileID, episodeID, gs)
		if err != nil {
			return err
		}
		return s.applyResult(gs, res, out)
	})
	if err != nil {
		return nil, err
	}
	out.State = gs
	if err := s.commitEpisodes(ctx, profileID, out); err != nil {
		return nil, err
	}
	s.publishEpisodes(ctx, profileID, out)
	return out, nil
}

// ExecuteEpisodeAction applies a single authored action to a profile's state,
// outside the beat progression. Unknown commands change nothing.
func (s *Service) ExecuteEpisodeAction(ctx context.Context, profileID, episodeID string, beatID episode.BeatID, index int) (*EpisodeOutcome, error) {
	action, err := s.engine.ResolveAction(ctx, episodeID, beatID, index)
	if err != nil {
		return nil, err
	}
	out := &EpisodeOutcome{}
	gs, err := s.mutate(ctx, profileID, func(gs *state.GameState) error {
		w := episode.NewActionWorker(gs, s.logger).WithEpisode(episodeID).WithClock(s.now)
		if err := w.Apply(action); err != nil {
			return err
		}
		out.LevelUps = w.LevelUps()
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.State = gs
	s.logger.Info("Episode action executed",
		"session_id", profileID, "episode_id", episodeID, "beat", beatID, "command", action.Command())
	s.publishLevelUps(ctx, profileID, out.LevelUps)
	s.publishStateUpdated(ctx, gs)
	return out, nil
}

// ContextualGuidance ranks the profile's active episodes for the given place
// and time. A blank location or time falls back to the session's scene.
func (s *Service) ContextualGuidance(ctx context.Context, profileID, location, timeOfDay string) (*episode.Guidance, error) {
	if location == "" || timeOfDay == "" {
		gs, err := s.load(ctx, profileID)
		if err != nil {
			return nil, err
		}
		if location == "" {
			location = gs.CurrentScene
		}
		if timeOfDay == "" {
			timeOfDay = gs.SceneData.TimeOfDay
		}
	}
	return s.engine.ContextualGuidance(ctx, profileID, location, timeOfDay)
}
