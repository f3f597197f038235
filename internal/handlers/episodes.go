package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jwebster45206/gatebound/internal/session"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/episode"
)

type EpisodesHandler struct {
	sessions *session.Service
	logger   *slog.Logger
}

func NewEpisodesHandler(sessions *session.Service, logger *slog.Logger) *EpisodesHandler {
	return &EpisodesHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// EpisodeResponse is an episode plus, when a profile is named, that
// profile's progress in it.
type EpisodeResponse struct {
	*episode.EpisodeData
	Progress *episode.Progress `json:"progress,omitempty"`
}

type episodeEventRequest struct {
	ProfileID string         `json:"profile_id"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
}

type profileRequest struct {
	ProfileID string `json:"profile_id"`
}

// ServeHTTP handles HTTP requests for episodes
// Routes:
// GET    /v1/episodes                                       - List available episodes
// POST   /v1/episodes/events                                - Track a gameplay event
// GET    /v1/episodes/{id}?profile_id=                      - Episode with optional progress
// DELETE /v1/episodes/{id}?profile_id=                      - Hide an episode
// POST   /v1/episodes/{id}/restore                          - Undo a delete
// POST   /v1/episodes/{id}/start                            - Start for a profile
// POST   /v1/episodes/{id}/beats/{beat}/actions/{index}     - Execute one authored action
func (h *EpisodesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/v1/episodes")
	engine := h.sessions.Engine()

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, h.logger, http.MethodGet)
			return
		}
		eps, err := engine.AvailableEpisodes(r.Context())
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		if eps == nil {
			eps = []episode.EpisodeData{}
		}
		writeJSON(w, http.StatusOK, eps, h.logger)

	case len(parts) == 1 && parts[0] == "events":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, h.logger, http.MethodPost)
			return
		}
		h.handleEvent(w, r)

	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, parts[0])
		case http.MethodDelete:
			if err := engine.DeleteEpisode(r.Context(), r.URL.Query().Get("profile_id"), parts[0]); err != nil {
				writeError(w, r, err, h.logger)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, r, h.logger, http.MethodGet, http.MethodDelete)
		}

	case r.Method != http.MethodPost:
		methodNotAllowed(w, r, h.logger, http.MethodPost)

	case len(parts) == 2 && parts[1] == "restore":
		if err := engine.RestoreEpisode(r.Context(), parts[0]); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 2 && parts[1] == "start":
		h.handleStart(w, r, parts[0])

	case len(parts) == 5 && parts[1] == "beats" && parts[3] == "actions":
		h.handleAction(w, r, parts[0], episode.BeatID(parts[2]), parts[4])

	default:
		notFoundRoute(w, r, h.logger)
	}
}

func (h *EpisodesHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	engine := h.sessions.Engine()
	ep, err := engine.Episode(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	resp := EpisodeResponse{EpisodeData: ep}
	if profileID := r.URL.Query().Get("profile_id"); profileID != "" {
		if resp.Progress, err = engine.Progress(r.Context(), profileID, id); err != nil {
			writeError(w, r, err, h.logger)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

func (h *EpisodesHandler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req episodeEventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.ProfileID == "" {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "profile_id is required"), h.logger)
		return
	}
	out, err := h.sessions.TrackEpisodeEvent(r.Context(), req.ProfileID, req.Event, req.Data)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}

func (h *EpisodesHandler) handleStart(w http.ResponseWriter, r *http.Request, id string) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.ProfileID == "" {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "profile_id is required"), h.logger)
		return
	}
	out, err := h.sessions.StartEpisode(r.Context(), req.ProfileID, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}

func (h *EpisodesHandler) handleAction(w http.ResponseWriter, r *http.Request, id string, beat episode.BeatID, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeError(w, r, apperr.Newf(apperr.CodeInvalidArgument, "action index %q is not a number", rawIndex), h.logger)
		return
	}
	var req profileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.ProfileID == "" {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "profile_id is required"), h.logger)
		return
	}
	out, err := h.sessions.ExecuteEpisodeAction(r.Context(), req.ProfileID, id, beat, index)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}
