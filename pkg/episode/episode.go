// Package episode implements scripted multi-beat story arcs layered over
// free play: content loading, per-profile beat progress, active-episode
// weighting and the declarative action vocabulary.
package episode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/jwebster45206/gatebound/pkg/state"
)

// BeatID keeps the literal text of a beat id such as 1.1, whether it was
// authored as a number or a string.
type BeatID string

func (b *BeatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = BeatID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("beat_id must be a number or string, got %s", data)
	}
	*b = BeatID(data)
	return nil
}

func (b BeatID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(b), 64); err == nil {
		return []byte(b), nil
	}
	return json.Marshal(string(b))
}

// Prerequisite gates when an episode may start.
type Prerequisite struct {
	MinLevel         int      `json:"min_level,omitempty"`
	MinAffection     int      `json:"min_affection,omitempty"` // 0-100
	RequiredQuests   []string `json:"required_quests,omitempty"`
	RequiredFlags    []string `json:"required_flags,omitempty"`
	RequiredEpisodes []string `json:"required_episodes,omitempty"`
}

// Unmet lists every requirement gs does not satisfy.
func (p Prerequisite) Unmet(gs *state.GameState) []string {
	var unmet []string
	if gs.Level < p.MinLevel {
		unmet = append(unmet, fmt.Sprintf("level %d", p.MinLevel))
	}
	if gs.AffectionLevel < p.MinAffection {
		unmet = append(unmet, fmt.Sprintf("affection %d", p.MinAffection))
	}
	for _, q := range p.RequiredQuests {
		if !gs.HasCompletedQuest(q) {
			unmet = append(unmet, "quest "+q)
		}
	}
	for _, f := range p.RequiredFlags {
		if !gs.StoryFlags[f] {
			unmet = append(unmet, "flag "+f)
		}
	}
	for _, e := range p.RequiredEpisodes {
		if !slices.Contains(gs.CompletedEpisodes, e) {
			unmet = append(unmet, "episode "+e)
		}
	}
	return unmet
}

// CompletionCondition names the gameplay event that completes a beat.
// Params are recorded with progress but not compared against event data.
type CompletionCondition struct {
	Event  string         `json:"event"`
	Params map[string]any `json:"params,omitempty"`
}

// StoryBeat is one step of an episode.
type StoryBeat struct {
	ID                  BeatID              `json:"beat_id"`
	Title               string              `json:"title"`
	Description         string              `json:"description,omitempty"`
	Trigger             string              `json:"trigger,omitempty"`
	Actions             []EpisodeAction     `json:"actions,omitempty"`
	CompletionCondition CompletionCondition `json:"completion_condition"`
}

// CompletionEvent implements Step.
func (b StoryBeat) CompletionEvent() string {
	return b.CompletionCondition.Event
}

// EpisodeData is a prerequisite-gated story arc.
type EpisodeData struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Companion    string          `json:"companion,omitempty"`
	Prerequisite Prerequisite    `json:"prerequisite"`
	Beats        []StoryBeat     `json:"beats"`
	OnComplete   []EpisodeAction `json:"on_complete,omitempty"`

	Source string `json:"source,omitempty"` // File path, or "builtin"
}

// Beat looks up a beat and its index by id.
func (e *EpisodeData) Beat(id BeatID) (StoryBeat, int, bool) {
	for i, b := range e.Beats {
		if b.ID == id {
			return b, i, true
		}
	}
	return StoryBeat{}, -1, false
}

// Validate checks the structural rules every loaded episode must follow.
func (e *EpisodeData) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("episode has no id")
	}
	if len(e.Beats) == 0 {
		return fmt.Errorf("episode %s has no beats", e.ID)
	}
	seen := map[BeatID]bool{}
	for i, b := range e.Beats {
		if b.ID == "" {
			return fmt.Errorf("episode %s beat %d has no beat_id", e.ID, i)
		}
		if seen[b.ID] {
			return fmt.Errorf("episode %s has duplicate beat %s", e.ID, b.ID)
		}
		seen[b.ID] = true
		if b.CompletionCondition.Event == "" {
			return fmt.Errorf("episode %s beat %s has no completion event", e.ID, b.ID)
		}
	}
	return nil
}

// ReferencesLocation reports whether any beat pins a companion to location.
func (e *EpisodeData) ReferencesLocation(location string) bool {
	for _, b := range e.Beats {
		if pinsLocation(b, location) {
			return true
		}
	}
	return false
}

func pinsLocation(b StoryBeat, location string) bool {
	for _, a := range b.Actions {
		if pin, ok := a.Action.(SetCompanionLocation); ok && pin.Location == location {
			return true
		}
	}
	return false
}
