package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/internal/session"
)

// NewRouter registers every API route on a fresh mux.
func NewRouter(sessions *session.Service, subscriber events.Subscriber, storage Pinger, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/health", NewHealthHandler(storage, logger))

	gameState := NewGameStateHandler(sessions, logger)
	mux.Handle("/v1/gamestate", gameState)
	mux.Handle("/v1/gamestate/", gameState)

	episodes := NewEpisodesHandler(sessions, logger)
	mux.Handle("/v1/episodes", episodes)
	mux.Handle("/v1/episodes/", episodes)

	mux.Handle("/v1/profiles/", NewProfilesHandler(sessions, logger))

	media := NewMediaHandler(sessions, logger)
	mux.Handle("/v1/voice", media)
	mux.Handle("/v1/transcribe", media)

	if subscriber != nil {
		mux.Handle("/v1/events/", NewEventsHandler(subscriber, logger))
	}
	return mux
}
