package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwebster45206/gatebound/internal/services/events"
)

const (
	keepaliveInterval = 30 * time.Second
	writeWait         = 10 * time.Second
)

// EventsHandler streams a session's events over Server-Sent Events, or over a
// websocket when the client asks for an upgrade.
type EventsHandler struct {
	subscriber events.Subscriber
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(subscriber events.Subscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// ServeHTTP handles event stream requests
// GET /v1/events/gamestate/{gameStateID}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, h.logger, http.MethodGet)
		return
	}
	parts := segments(r.URL.Path, "/v1/events")
	if len(parts) != 2 || parts[0] != "gamestate" {
		notFoundRoute(w, r, h.logger)
		return
	}
	gameStateID := parts[1]

	if websocket.IsWebSocketUpgrade(r) {
		h.serveWebsocket(w, r, gameStateID)
		return
	}
	h.serveSSE(w, r, gameStateID)
}

func (h *EventsHandler) serveSSE(w http.ResponseWriter, r *http.Request, gameStateID string) {
	ctx := r.Context()
	msgs, cancel, err := h.subscriber.Subscribe(ctx, gameStateID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	defer cancel()

	h.logger.Info("SSE connection established",
		"game_state_id", gameStateID,
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	h.sendSSE(w, "connected", map[string]any{
		"game_id": gameStateID,
		"message": "Connected to event stream",
	})

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected", "game_state_id", gameStateID)
			return

		case event, ok := <-msgs:
			if !ok {
				return
			}
			h.sendSSE(w, string(event.Type), event)

		case <-keepalive.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (h *EventsHandler) serveWebsocket(w http.ResponseWriter, r *http.Request, gameStateID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.logger.Warn("Websocket upgrade failed", "error", err, "game_state_id", gameStateID)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	msgs, cancel, err := h.subscriber.Subscribe(ctx, gameStateID)
	if err != nil {
		h.logger.Error("Failed to subscribe", "error", err, "game_state_id", gameStateID)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}
	defer cancel()

	h.logger.Info("Websocket connection established",
		"game_state_id", gameStateID,
		"remote_addr", r.RemoteAddr)

	// The read loop only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(keepaliveInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			h.logger.Info("Websocket client disconnected", "game_state_id", gameStateID)
			return
		case event, ok := <-msgs:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Warn("Failed to write websocket event", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
