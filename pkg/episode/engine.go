package episode

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// Engine runs episodes from a Library against persisted per-profile progress.
// It never mutates a GameState; the actions it returns are applied by an
// ActionWorker owned by the caller.
type Engine struct {
	library *Library
	store   Store
	logger  *slog.Logger
	now     func() time.Time
}

func NewEngine(library *Library, store Store, logger *slog.Logger) *Engine {
	return &Engine{
		library: library,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Result describes what one engine call did to an episode's progress.
type Result struct {
	EpisodeID string          `json:"episode_id"`
	Event     string          `json:"event,omitempty"`
	Started   bool            `json:"started"`
	Triggered bool            `json:"triggered"`
	Advanced  bool            `json:"advanced"`
	Completed bool            `json:"completed"`
	FromBeat  BeatID          `json:"from_beat,omitempty"`
	ToBeat    BeatID          `json:"to_beat,omitempty"`
	Actions   []EpisodeAction `json:"actions,omitempty"` // To apply, in order
	Progress  *Progress       `json:"progress"`

	pending bool // Progress not yet saved
}

// Changed reports whether the call moved or fired anything.
func (r *Result) Changed() bool {
	return r.Started || r.Triggered || r.Advanced || r.Completed
}

func (e *Engine) deleted(ctx context.Context) (map[string]bool, error) {
	ids, err := e.store.DeletedEpisodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load deleted episodes: %w", err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// AvailableEpisodes returns every episode not on the deletion list, sorted by id.
func (e *Engine) AvailableEpisodes(ctx context.Context) ([]EpisodeData, error) {
	deleted, err := e.deleted(ctx)
	if err != nil {
		return nil, err
	}
	var out []EpisodeData
	for _, id := range e.library.IDs() {
		if deleted[id] {
			continue
		}
		ep, _ := e.library.Get(id)
		out = append(out, ep)
	}
	return out, nil
}

// Episode returns an available episode.
func (e *Engine) Episode(ctx context.Context, id string) (*EpisodeData, error) {
	ep, ok := e.library.Get(id)
	if !ok {
		return nil, apperr.NotFound("episode", id)
	}
	deleted, err := e.deleted(ctx)
	if err != nil {
		return nil, err
	}
	if deleted[id] {
		return nil, apperr.NotFound("episode", id)
	}
	return &ep, nil
}

// DeleteEpisode hides an episode from every profile. Deleting twice is a no-op.
func (e *Engine) DeleteEpisode(ctx context.Context, profileID, id string) error {
	if _, ok := e.library.Get(id); !ok {
		return apperr.NotFound("episode", id)
	}
	if err := e.store.AddDeletedEpisode(ctx, id); err != nil {
		return fmt.Errorf("delete episode: %w", err)
	}
	e.logger.Info("Episode deleted", "episode_id", id, "profile_id", profileID)
	return nil
}

// RestoreEpisode undoes DeleteEpisode.
func (e *Engine) RestoreEpisode(ctx context.Context, id string) error {
	if _, ok := e.library.Get(id); !ok {
		return apperr.NotFound("episode", id)
	}
	if err := e.store.RemoveDeletedEpisode(ctx, id); err != nil {
		return fmt.Errorf("restore episode: %w", err)
	}
	e.logger.Info("Episode restored", "episode_id", id)
	return nil
}

// ResolveAction looks up a single action by its position in a beat.
func (e *Engine) ResolveAction(ctx context.Context, episodeID string, beatID BeatID, index int) (Action, error) {
	ep, err := e.Episode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	beat, _, ok := ep.Beat(beatID)
	if !ok {
		return nil, apperr.NotFound("beat", string(beatID))
	}
	if index < 0 || index >= len(beat.Actions) {
		return nil, apperr.NotFound("action", fmt.Sprintf("%s/%d", beatID, index))
	}
	return beat.Actions[index].Action, nil
}

// Progress returns a profile's progress in an episode, or nil if it never started.
func (e *Engine) Progress(ctx context.Context, profileID, episodeID string) (*Progress, error) {
	if _, err := e.Episode(ctx, episodeID); err != nil {
		return nil, err
	}
	p, err := e.store.LoadProgress(ctx, profileID, episodeID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return p, nil
}

// StartEpisode checks prerequisites against player and places the profile on
// the first beat. Starting an episode already in progress changes nothing; a
// completed episode starts over.
func (e *Engine) StartEpisode(ctx context.Context, profileID, id string, player *state.GameState) (*Result, error) {
	res, err := e.start(ctx, profileID, id, player)
	if err != nil {
		return nil, err
	}
	if err := e.save(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) start(ctx context.Context, profileID, id string, player *state.GameState) (*Result, error) {
	ep, err := e.Episode(ctx, id)
	if err != nil {
		return nil, err
	}
	prog, err := e.store.LoadProgress(ctx, profileID, id)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	res := &Result{EpisodeID: id, Progress: prog}
	if prog != nil && !prog.Completed {
		return res, nil
	}

	if err := e.begin(ep, profileID, player, res); err != nil {
		return nil, err
	}
	res.pending = true
	return res, nil
}

// TrackGameplayEvent feeds event to the episode named by data["episodeId"]
// (or data["episode_id"]), defaulting to DefaultEpisodeID. An episode the
// profile has never started is started first.
func (e *Engine) TrackGameplayEvent(ctx context.Context, profileID, event string, data map[string]any, player *state.GameState) (*Result, error) {
	res, err := e.track(ctx, profileID, event, data, player)
	if err != nil {
		return nil, err
	}
	if err := e.save(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) track(ctx context.Context, profileID, event string, data map[string]any, player *state.GameState) (*Result, error) {
	episodeID := episodeIDFrom(data)
	ep, err := e.Episode(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	prog, err := e.store.LoadProgress(ctx, profileID, episodeID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	res := &Result{EpisodeID: episodeID, Event: event, Progress: prog}
	if prog == nil {
		if err := e.begin(ep, profileID, player, res); err != nil {
			return nil, err
		}
		prog = res.Progress
		res.pending = true
	}
	if prog.Completed {
		return res, nil
	}

	i, ok := currentBeat(ep, prog)
	if !ok {
		// Saved before the episode was re-authored and its beat is gone.
		e.logger.Warn("Stored beat is not in the episode, closing it",
			"episode_id", episodeID,
			"profile_id", profileID,
			"beat", prog.CurrentBeatID,
			"index", prog.CurrentBeat,
			"beats", len(ep.Beats))
		now := e.now()
		prog.CurrentBeat = len(ep.Beats)
		prog.Completed = true
		prog.CompletedAt = &now
		prog.UpdatedAt = now
		res.pending = true
		return res, nil
	}
	if i != prog.CurrentBeat || ep.Beats[i].ID != prog.CurrentBeatID {
		prog.CurrentBeat, prog.CurrentBeatID = i, ep.Beats[i].ID
		res.pending = true
	}

	beat := ep.Beats[i]
	if !prog.Triggered && beat.Trigger == event {
		prog.Triggered = true
		res.Triggered = true
		res.Actions = append(res.Actions, beat.Actions...)
	}

	if next, ok := Advance(ep.Beats, i, event); ok {
		now := e.now()
		prog.History = append(prog.History, BeatEvent{BeatID: beat.ID, Event: event, Params: data, At: now})
		res.Advanced = true
		res.FromBeat = beat.ID
		if next >= len(ep.Beats) {
			e.complete(ep, prog, res)
		} else {
			e.enter(ep, prog, next, res)
		}
	}
	e.completeOnAction(ep, prog, res)

	if res.Changed() {
		prog.UpdatedAt = e.now()
		res.pending = true
	}
	return res, nil
}

func (e *Engine) save(ctx context.Context, res *Result) error {
	if !res.pending {
		return nil
	}
	if err := e.store.SaveProgress(ctx, res.Progress); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	res.pending = false
	if res.Started {
		e.logger.Info("Episode started",
			"episode_id", res.EpisodeID, "profile_id", res.Progress.ProfileID, "beat", res.ToBeat)
		return nil
	}
	e.logger.Debug("Episode event tracked",
		"episode_id", res.EpisodeID,
		"profile_id", res.Progress.ProfileID,
		"event", res.Event,
		"from_beat", res.FromBeat,
		"to_beat", res.ToBeat,
		"completed", res.Completed)
	return nil
}

// currentBeat finds the profile's beat in the loaded content by id, falling
// back to the stored index for progress saved without one.
func currentBeat(ep *EpisodeData, prog *Progress) (int, bool) {
	if prog.CurrentBeatID != "" {
		_, i, ok := ep.Beat(prog.CurrentBeatID)
		return i, ok
	}
	if prog.CurrentBeat >= 0 && prog.CurrentBeat < len(ep.Beats) {
		return prog.CurrentBeat, true
	}
	return 0, false
}

func (e *Engine) begin(ep *EpisodeData, profileID string, player *state.GameState, res *Result) error {
	if player != nil {
		if unmet := ep.Prerequisite.Unmet(player); len(unmet) > 0 {
			return apperr.WithMetadata(apperr.CodePrerequisiteUnmet,
				fmt.Sprintf("episode %s requires %s", ep.ID, strings.Join(unmet, ", ")),
				map[string]string{"episode_id": ep.ID})
		}
	}
	now := e.now()
	prog := &Progress{
		ProfileID: profileID,
		EpisodeID: ep.ID,
		StartedAt: now,
		UpdatedAt: now,
	}
	res.Progress = prog
	res.Started = true
	e.enter(ep, prog, 0, res)
	e.completeOnAction(ep, prog, res)
	return nil
}

// enter moves progress onto beat i and fires its actions when the beat
// needs no named trigger.
func (e *Engine) enter(ep *EpisodeData, prog *Progress, i int, res *Result) {
	beat := ep.Beats[i]
	prog.CurrentBeat = i
	prog.CurrentBeatID = beat.ID
	prog.Triggered = false
	res.ToBeat = beat.ID
	switch beat.Trigger {
	case "", TriggerEpisodeStart, TriggerBeatStart:
		prog.Triggered = true
		res.Triggered = true
		res.Actions = append(res.Actions, beat.Actions...)
	}
}

func (e *Engine) complete(ep *EpisodeData, prog *Progress, res *Result) {
	now := e.now()
	prog.CurrentBeat = len(ep.Beats)
	prog.Completed = true
	prog.CompletedAt = &now
	res.Completed = true
	res.Actions = append(res.Actions, ep.OnComplete...)
	res.Actions = append(res.Actions, EpisodeAction{CompleteEpisode{}})
}

// completeOnAction finishes the episode early when a fired beat carries an
// explicit complete_episode action.
func (e *Engine) completeOnAction(ep *EpisodeData, prog *Progress, res *Result) {
	if prog.Completed {
		return
	}
	if slices.ContainsFunc(res.Actions, func(a EpisodeAction) bool {
		_, ok := a.Action.(CompleteEpisode)
		return ok
	}) {
		res.Actions = slices.DeleteFunc(res.Actions, func(a EpisodeAction) bool {
			_, ok := a.Action.(CompleteEpisode)
			return ok
		})
		e.complete(ep, prog, res)
	}
}

func episodeIDFrom(data map[string]any) string {
	for _, k := range []string{"episodeId", "episode_id"} {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return DefaultEpisodeID
}
