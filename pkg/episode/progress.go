package episode

import (
	"context"
	"time"
)

// Progress is one profile's position within one episode.
type Progress struct {
	ProfileID     string      `json:"profile_id"`
	EpisodeID     string      `json:"episode_id"`
	CurrentBeat   int         `json:"current_beat"` // Index into Beats; len(Beats) once complete
	CurrentBeatID BeatID      `json:"current_beat_id,omitempty"`
	Triggered     bool        `json:"triggered"` // Current beat's actions have fired
	Completed     bool        `json:"completed"`
	History       []BeatEvent `json:"history,omitempty"`
	StartedAt     time.Time   `json:"started_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

// BeatEvent records a completed beat.
type BeatEvent struct {
	BeatID BeatID         `json:"beat_id"`
	Event  string         `json:"event"`
	Params map[string]any `json:"params,omitempty"`
	At     time.Time      `json:"at"`
}

// Priority classifies an active episode.
type Priority string

const (
	PriorityPrimary    Priority = "primary"
	PrioritySecondary  Priority = "secondary"
	PriorityBackground Priority = "background"
)

// DefaultWeight is the guidance weight used when none is given.
func (p Priority) DefaultWeight() int {
	switch p {
	case PriorityPrimary:
		return 60
	case PrioritySecondary:
		return 30
	case PriorityBackground:
		return 10
	}
	return 0
}

// ActiveEpisode is an episode running concurrently for a profile.
type ActiveEpisode struct {
	EpisodeID string   `json:"episode_id"`
	Priority  Priority `json:"priority"`
	Weight    int      `json:"weight"` // 0-100
}

// Store persists episode progress and per-profile episode selections.
// Loads of missing records return zero values and no error.
type Store interface {
	DeletedEpisodes(ctx context.Context) ([]string, error)
	AddDeletedEpisode(ctx context.Context, episodeID string) error
	RemoveDeletedEpisode(ctx context.Context, episodeID string) error

	LoadProgress(ctx context.Context, profileID, episodeID string) (*Progress, error)
	SaveProgress(ctx context.Context, p *Progress) error

	LoadActiveEpisodes(ctx context.Context, profileID string) ([]ActiveEpisode, error)
	SaveActiveEpisodes(ctx context.Context, profileID string, eps []ActiveEpisode) error

	LoadFocusedEpisode(ctx context.Context, profileID string) (string, error)
	SaveFocusedEpisode(ctx context.Context, profileID, episodeID string) error
}
