package state

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Message is a communicator inbox entry.
type Message struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	Read       bool      `json:"read"`
}

// Memory is a permanent record of a shared moment.
type Memory struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Emotion     string    `json:"emotion,omitempty"`
	EpisodeID   string    `json:"episode_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Location is an explorable place unlocked by content.
type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (gs *GameState) DeliverMessage(from, subject, body string, now time.Time) {
	gs.Communicator = append(gs.Communicator, Message{
		ID:         uuid.NewString(),
		From:       from,
		Subject:    subject,
		Body:       body,
		ReceivedAt: now,
	})
}

func (gs *GameState) AddMemory(m Memory, now time.Time) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = now
	gs.Memories = append(gs.Memories, m)
}

// UnlockLocation is idempotent by location id.
func (gs *GameState) UnlockLocation(loc Location) {
	if slices.ContainsFunc(gs.UnlockedLocations, func(l Location) bool { return l.ID == loc.ID }) {
		return
	}
	gs.UnlockedLocations = append(gs.UnlockedLocations, loc)
}

// UnlockActivity is idempotent by activity id.
func (gs *GameState) UnlockActivity(id string) {
	if !slices.Contains(gs.UnlockedActivities, id) {
		gs.UnlockedActivities = append(gs.UnlockedActivities, id)
	}
}

// PinCompanion forces a companion's location regardless of schedule.
func (gs *GameState) PinCompanion(companion, location string) {
	if gs.CompanionOverrides == nil {
		gs.CompanionOverrides = map[string]string{}
	}
	gs.CompanionOverrides[companion] = location
}

func (gs *GameState) ReleaseCompanion(companion string) {
	delete(gs.CompanionOverrides, companion)
}

func (gs *GameState) SetCompanionMood(companion, mood string) {
	if gs.CompanionMoods == nil {
		gs.CompanionMoods = map[string]string{}
	}
	gs.CompanionMoods[companion] = mood
}

// CompanionLocation returns the pinned location or the scheduled fallback.
func (gs *GameState) CompanionLocation(companion, scheduled string) string {
	if loc, ok := gs.CompanionOverrides[companion]; ok {
		return loc
	}
	return scheduled
}

// MarkEpisodeComplete records a completed episode once.
func (gs *GameState) MarkEpisodeComplete(id string) {
	if !slices.Contains(gs.CompletedEpisodes, id) {
		gs.CompletedEpisodes = append(gs.CompletedEpisodes, id)
	}
}
