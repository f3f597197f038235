package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/gatebound/internal/session"
	"github.com/jwebster45206/gatebound/pkg/episode"
)

type ProfilesHandler struct {
	sessions *session.Service
	logger   *slog.Logger
}

func NewProfilesHandler(sessions *session.Service, logger *slog.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		sessions: sessions,
		logger:   logger,
	}
}

type focusRequest struct {
	EpisodeID string `json:"episode_id"`
}

type focusResponse struct {
	Episode *episode.EpisodeData `json:"episode"`
}

type guidanceResponse struct {
	Guidance *episode.Guidance `json:"guidance"`
}

// ServeHTTP handles per-profile episode selections
// Routes:
// GET /v1/profiles/{id}/active-episodes                   - Concurrent episodes
// PUT /v1/profiles/{id}/active-episodes                   - Replace them
// GET /v1/profiles/{id}/focus                             - Spotlighted episode
// PUT /v1/profiles/{id}/focus                             - Spotlight one (empty clears)
// GET /v1/profiles/{id}/guidance?location=&time_of_day=   - Contextual guidance
func (h *ProfilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/v1/profiles")
	if len(parts) != 2 {
		notFoundRoute(w, r, h.logger)
		return
	}
	profileID := parts[0]

	switch parts[1] {
	case "active-episodes":
		switch r.Method {
		case http.MethodGet:
			h.handleGetActive(w, r, profileID)
		case http.MethodPut:
			h.handleSetActive(w, r, profileID)
		default:
			methodNotAllowed(w, r, h.logger, http.MethodGet, http.MethodPut)
		}
	case "focus":
		switch r.Method {
		case http.MethodGet:
			h.handleGetFocus(w, r, profileID)
		case http.MethodPut:
			h.handleSetFocus(w, r, profileID)
		default:
			methodNotAllowed(w, r, h.logger, http.MethodGet, http.MethodPut)
		}
	case "guidance":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, h.logger, http.MethodGet)
			return
		}
		q := r.URL.Query()
		g, err := h.sessions.ContextualGuidance(r.Context(), profileID, q.Get("location"), q.Get("time_of_day"))
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, guidanceResponse{Guidance: g}, h.logger)
	default:
		notFoundRoute(w, r, h.logger)
	}
}

func (h *ProfilesHandler) handleGetActive(w http.ResponseWriter, r *http.Request, profileID string) {
	eps, err := h.sessions.Engine().ActiveEpisodes(r.Context(), profileID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, eps, h.logger)
}

func (h *ProfilesHandler) handleSetActive(w http.ResponseWriter, r *http.Request, profileID string) {
	var req []episode.ActiveEpisode
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	eps, err := h.sessions.Engine().SetActiveEpisodes(r.Context(), profileID, req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, eps, h.logger)
}

func (h *ProfilesHandler) handleGetFocus(w http.ResponseWriter, r *http.Request, profileID string) {
	ep, err := h.sessions.Engine().FocusedEpisode(r.Context(), profileID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, focusResponse{Episode: ep}, h.logger)
}

func (h *ProfilesHandler) handleSetFocus(w http.ResponseWriter, r *http.Request, profileID string) {
	var req focusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if err := h.sessions.Engine().SetFocusedEpisode(r.Context(), profileID, req.EpisodeID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.handleGetFocus(w, r, profileID)
}
