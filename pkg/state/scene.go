package state

import (
	"time"

	"github.com/jwebster45206/gatebound/pkg/story"
)

// SceneData is presentation-only; nothing in the core branches on it.
type SceneData struct {
	ImageURL   string `json:"image_url,omitempty"`
	Location   string `json:"location,omitempty"`
	TimeOfDay  string `json:"time_of_day,omitempty"`
	Expression string `json:"expression,omitempty"`
	story.Decor
}

// TimeOfDay buckets a wall-clock time for scene and guidance text.
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 21:
		return "evening"
	default:
		return "night"
	}
}
