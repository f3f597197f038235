package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/gatebound/internal/session"
	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/chat"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// GameStateView is a game state plus values derived for display only.
type GameStateView struct {
	*state.GameState
	AffectionHearts int `json:"affection_hearts"`
}

func view(gs *state.GameState) GameStateView {
	return GameStateView{GameState: gs, AffectionHearts: state.Hearts(gs.AffectionLevel)}
}

type GameStateHandler struct {
	sessions *session.Service
	logger   *slog.Logger
}

func NewGameStateHandler(sessions *session.Service, logger *slog.Logger) *GameStateHandler {
	return &GameStateHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for game state operations
// Routes:
// POST   /v1/gamestate                                  - Create new game state
// GET    /v1/gamestate/{id}                             - Read game state
// PATCH  /v1/gamestate/{id}                             - Shallow-merge update
// DELETE /v1/gamestate/{id}                             - Delete game state
// POST   /v1/gamestate/{id}/choice                      - Make a story choice
// POST   /v1/gamestate/{id}/chat                        - Talk to the companion
// POST   /v1/gamestate/{id}/experience                  - Grant experience
// POST   /v1/gamestate/{id}/level-up                    - Manual level up
// POST   /v1/gamestate/{id}/stats                       - Spend a stat point
// GET    /v1/gamestate/{id}/skills                      - Skill tree
// POST   /v1/gamestate/{id}/skills/{skill}/{op}         - Upgrade or unlock a skill
// POST   /v1/gamestate/{id}/quests/{quest}/{op}         - Accept or complete a quest
// POST   /v1/gamestate/{id}/activities                  - Schedule an activity
// POST   /v1/gamestate/{id}/activities/{activity}/{to}  - Move an activity along
// POST   /v1/gamestate/{id}/media                       - Generate scene image and narration
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := segments(r.URL.Path, "/v1/gamestate")
	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, h.logger, http.MethodPost)
			return
		}
		h.handleCreate(w, r)
		return
	}

	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
		case http.MethodPatch:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			methodNotAllowed(w, r, h.logger, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
		return
	}

	if parts[1] == "skills" && len(parts) == 2 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, h.logger, http.MethodGet)
			return
		}
		h.handleSkillTree(w, r, id)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, h.logger, http.MethodPost)
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "choice":
		h.handleChoice(w, r, id)
	case len(parts) == 2 && parts[1] == "chat":
		h.handleChat(w, r, id)
	case len(parts) == 2 && parts[1] == "experience":
		h.handleExperience(w, r, id)
	case len(parts) == 2 && parts[1] == "level-up":
		h.respond(w, r)(h.sessions.LevelUp(r.Context(), id))
	case len(parts) == 2 && parts[1] == "stats":
		h.handleStat(w, r, id)
	case len(parts) == 4 && parts[1] == "skills":
		h.handleSkill(w, r, id, parts[2], parts[3])
	case len(parts) == 4 && parts[1] == "quests":
		h.handleQuest(w, r, id, parts[2], parts[3])
	case len(parts) == 2 && parts[1] == "activities":
		h.handleSchedule(w, r, id)
	case len(parts) == 4 && parts[1] == "activities":
		h.respond(w, r)(h.sessions.TransitionActivity(r.Context(), id, parts[2], state.ActivityStatus(parts[3])))
	case len(parts) == 2 && parts[1] == "media":
		h.respond(w, r)(h.sessions.GenerateMedia(r.Context(), id))
	default:
		notFoundRoute(w, r, h.logger)
	}
}

// respond writes a service result as 200 or its error.
func (h *GameStateHandler) respond(w http.ResponseWriter, r *http.Request) func(any, error) {
	return func(v any, err error) {
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, v, h.logger)
	}
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	gs, err := h.sessions.CreateGameState(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.Header().Set("Location", "/v1/gamestate/"+gs.SessionID)
	writeJSON(w, http.StatusCreated, view(gs), h.logger)
}

func (h *GameStateHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	gs, err := h.sessions.GetGameState(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view(gs), h.logger)
}

func (h *GameStateHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var patch map[string]json.RawMessage
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	gs, err := h.sessions.UpdateGameState(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view(gs), h.logger)
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.sessions.DeleteGameState(r.Context(), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// failWithState returns the unchanged session alongside the error.
func (h *GameStateHandler) failWithState(w http.ResponseWriter, r *http.Request, id string, err error) {
	var gs *state.GameState
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		gs, _ = h.sessions.GetGameState(r.Context(), id)
	}
	writeErrorWithState(w, r, err, gs, h.logger)
}

func (h *GameStateHandler) handleChoice(w http.ResponseWriter, r *http.Request, id string) {
	var in session.ChoiceInput
	if err := decode(r, &in); err != nil {
		h.failWithState(w, r, id, err)
		return
	}
	res, err := h.sessions.ProcessChoice(r.Context(), id, in)
	if err != nil {
		h.failWithState(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, res, h.logger)
}

func (h *GameStateHandler) handleChat(w http.ResponseWriter, r *http.Request, id string) {
	var req chat.ChatRequest
	if err := decode(r, &req); err != nil {
		h.failWithState(w, r, id, err)
		return
	}
	res, err := h.sessions.Chat(r.Context(), id, req)
	if err != nil {
		h.failWithState(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		chat.ChatResponse
		State *state.GameState `json:"state"`
	}{
		ChatResponse: chat.ChatResponse{
			Message:    res.Reply.Text,
			Expression: res.Reply.Expression,
			Fallback:   res.Reply.Fallback,
		},
		State: res.State,
	}, h.logger)
}

type experienceRequest struct {
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

func (h *GameStateHandler) handleExperience(w http.ResponseWriter, r *http.Request, id string) {
	var req experienceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}
	h.respond(w, r)(h.sessions.AddExperience(r.Context(), id, req.Amount, req.Source))
}

type statRequest struct {
	Stat string `json:"stat"`
}

func (h *GameStateHandler) handleStat(w http.ResponseWriter, r *http.Request, id string) {
	var req statRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.respond(w, r)(h.sessions.AllocateStatPoint(r.Context(), id, req.Stat))
}

func (h *GameStateHandler) handleSkillTree(w http.ResponseWriter, r *http.Request, id string) {
	tree, err := h.sessions.SkillTree(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, tree, h.logger)
}

func (h *GameStateHandler) handleSkill(w http.ResponseWriter, r *http.Request, id, skillID, op string) {
	switch op {
	case "upgrade":
		h.respond(w, r)(h.sessions.UpgradeSkill(r.Context(), id, skillID))
	case "unlock":
		h.respond(w, r)(h.sessions.UnlockSkill(r.Context(), id, skillID))
	default:
		notFoundRoute(w, r, h.logger)
	}
}

func (h *GameStateHandler) handleQuest(w http.ResponseWriter, r *http.Request, id, questID, op string) {
	switch op {
	case "accept":
		h.respond(w, r)(h.sessions.AcceptQuest(r.Context(), id, questID))
	case "complete":
		h.respond(w, r)(h.sessions.CompleteQuest(r.Context(), id, questID))
	default:
		notFoundRoute(w, r, h.logger)
	}
}

type scheduleRequest struct {
	ActivityID   string    `json:"activity_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

func (h *GameStateHandler) handleSchedule(w http.ResponseWriter, r *http.Request, id string) {
	var req scheduleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	h.respond(w, r)(h.sessions.ScheduleActivity(r.Context(), id, req.ActivityID, req.ScheduledFor))
}
