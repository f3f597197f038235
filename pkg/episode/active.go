package episode

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/gatebound/pkg/apperr"
)

const (
	guidanceBaseScore     = 20
	guidanceLocationScore = 50
)

// SetActiveEpisodes replaces a profile's set of concurrently running episodes.
// A zero weight takes the priority's default.
func (e *Engine) SetActiveEpisodes(ctx context.Context, profileID string, eps []ActiveEpisode) ([]ActiveEpisode, error) {
	seen := map[string]bool{}
	out := make([]ActiveEpisode, 0, len(eps))
	for _, a := range eps {
		if a.Priority == "" {
			a.Priority = PrioritySecondary
		}
		if a.Priority.DefaultWeight() == 0 {
			return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown priority %q", a.Priority)
		}
		if a.Weight < 0 || a.Weight > 100 {
			return nil, apperr.Newf(apperr.CodeInvalidArgument, "weight %d out of range 0-100", a.Weight)
		}
		if a.Weight == 0 {
			a.Weight = a.Priority.DefaultWeight()
		}
		if seen[a.EpisodeID] {
			return nil, apperr.Newf(apperr.CodeInvalidArgument, "episode %s listed twice", a.EpisodeID)
		}
		seen[a.EpisodeID] = true
		if _, err := e.Episode(ctx, a.EpisodeID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := e.store.SaveActiveEpisodes(ctx, profileID, out); err != nil {
		return nil, fmt.Errorf("save active episodes: %w", err)
	}
	return out, nil
}

// ActiveEpisodes returns the profile's active episodes, skipping any deleted since.
func (e *Engine) ActiveEpisodes(ctx context.Context, profileID string) ([]ActiveEpisode, error) {
	eps, err := e.store.LoadActiveEpisodes(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load active episodes: %w", err)
	}
	deleted, err := e.deleted(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ActiveEpisode, 0, len(eps))
	for _, a := range eps {
		if _, ok := e.library.Get(a.EpisodeID); !ok || deleted[a.EpisodeID] {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Guidance is a hint pointing the player at an active episode.
type Guidance struct {
	EpisodeID string   `json:"episode_id"`
	Title     string   `json:"title"`
	BeatID    BeatID   `json:"beat_id,omitempty"`
	Priority  Priority `json:"priority"`
	Score     float64  `json:"score"`
	Text      string   `json:"text"`
}

// ContextualGuidance scores each active episode for the player's location and
// returns guidance for the best one. Ties go to the earlier active episode.
// It returns nil when no episode is active.
func (e *Engine) ContextualGuidance(ctx context.Context, profileID, location, timeOfDay string) (*Guidance, error) {
	active, err := e.ActiveEpisodes(ctx, profileID)
	if err != nil {
		return nil, err
	}

	var best *Guidance
	var bestEp EpisodeData
	for _, a := range active {
		ep, _ := e.library.Get(a.EpisodeID)
		score := guidanceBaseScore
		if location != "" && ep.ReferencesLocation(location) {
			score += guidanceLocationScore
		}
		weighted := float64(score) * float64(a.Weight) / 100
		if best == nil || weighted > best.Score {
			best = &Guidance{EpisodeID: ep.ID, Title: ep.Title, Priority: a.Priority, Score: weighted}
			bestEp = ep
		}
	}
	if best == nil {
		return nil, nil
	}

	prog, err := e.store.LoadProgress(ctx, profileID, bestEp.ID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	beat := bestEp.Beats[0]
	if prog != nil {
		if i, ok := currentBeat(&bestEp, prog); ok {
			beat = bestEp.Beats[i]
		}
	}
	best.BeatID = beat.ID
	best.Text = guidanceText(bestEp, beat, location, timeOfDay)
	return best, nil
}

func displayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

func guidanceText(ep EpisodeData, beat StoryBeat, location, timeOfDay string) string {
	when := ""
	if timeOfDay != "" {
		when = " this " + strings.ToLower(timeOfDay)
	}
	if location != "" && pinsLocation(beat, location) && ep.Companion != "" {
		return fmt.Sprintf("%s: %s is waiting for you at %s%s.", ep.Title, ep.Companion, displayName(location), when)
	}
	return fmt.Sprintf("%s: %s%s.", ep.Title, beat.Title, when)
}

// SetFocusedEpisode spotlights one episode for a profile. An empty id clears it.
func (e *Engine) SetFocusedEpisode(ctx context.Context, profileID, episodeID string) error {
	if episodeID != "" {
		if _, err := e.Episode(ctx, episodeID); err != nil {
			return err
		}
	}
	if err := e.store.SaveFocusedEpisode(ctx, profileID, episodeID); err != nil {
		return fmt.Errorf("save focused episode: %w", err)
	}
	return nil
}

// FocusedEpisode returns the spotlighted episode, or nil when none is set or
// it has since been deleted.
func (e *Engine) FocusedEpisode(ctx context.Context, profileID string) (*EpisodeData, error) {
	id, err := e.store.LoadFocusedEpisode(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load focused episode: %w", err)
	}
	if id == "" {
		return nil, nil
	}
	ep, err := e.Episode(ctx, id)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return nil, nil
	}
	return ep, err
}
