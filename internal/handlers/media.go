package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/gatebound/internal/session"
	"github.com/jwebster45206/gatebound/pkg/apperr"
)

// maxAudioBytes caps uploads to the transcription endpoint.
const maxAudioBytes = 10 << 20

type MediaHandler struct {
	sessions *session.Service
	logger   *slog.Logger
}

func NewMediaHandler(sessions *session.Service, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		sessions: sessions,
		logger:   logger,
	}
}

type voiceRequest struct {
	Text      string `json:"text"`
	SpeakerID string `json:"speaker_id,omitempty"`
}

type transcribeResponse struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

// ServeHTTP handles voice routes
// Routes:
// POST /v1/voice       - JSON {text, speaker_id}; returns audio/mpeg, 204 when the voice provider is unavailable
// POST /v1/transcribe  - raw audio body; returns {text}
func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}
	switch r.URL.Path {
	case "/v1/voice":
		h.handleVoice(w, r)
	case "/v1/transcribe":
		h.handleTranscribe(w, r)
	default:
		notFoundRoute(w, r, h.logger)
	}
}

func (h *MediaHandler) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	audio, err := h.sessions.Synthesize(r.Context(), req.Text, req.SpeakerID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if len(audio) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.Error("Failed to write audio", "error", err)
	}
}

func (h *MediaHandler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.CodeInvalidArgument, "failed to read audio", err), h.logger)
		return
	}
	if len(audio) > maxAudioBytes {
		writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "audio exceeds 10MB"), h.logger)
		return
	}
	text, err := h.sessions.Transcribe(r.Context(), audio)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{Text: text, Fallback: text == ""}, h.logger)
}
