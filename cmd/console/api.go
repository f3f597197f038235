package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jwebster45206/gatebound/pkg/state"
)

// apiClient talks to the gatebound HTTP API.
type apiClient struct {
	http    *http.Client
	baseURL string
}

type ErrorResponse struct {
	Error string           `json:"error"`
	Code  string           `json:"code"`
	State *state.GameState `json:"state,omitempty"`
}

// apiError carries the unchanged state the server returns with failed
// choices and chats.
type apiError struct {
	Status  int
	Message string
	State   *state.GameState
}

func (e *apiError) Error() string {
	return e.Message
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out.
func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return &apiError{Status: resp.StatusCode, Message: fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(data))}
		}
		return &apiError{Status: resp.StatusCode, Message: errorResp.Error, State: errorResp.State}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *apiClient) testConnection(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *apiClient) createGameState(ctx context.Context, playerName string) (*state.GameState, error) {
	var gs state.GameState
	if err := c.do(ctx, http.MethodPost, "/v1/gamestate", map[string]string{"player_name": playerName}, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

func (c *apiClient) getGameState(ctx context.Context, id string) (*state.GameState, error) {
	var gs state.GameState
	if err := c.do(ctx, http.MethodGet, "/v1/gamestate/"+url.PathEscape(id), nil, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// stateResult is the shape shared by every state-changing response.
type stateResult struct {
	State *state.GameState `json:"state"`
}

func (c *apiClient) choose(ctx context.Context, id, choiceID, text string) (*state.GameState, error) {
	var res stateResult
	err := c.do(ctx, http.MethodPost, "/v1/gamestate/"+url.PathEscape(id)+"/choice",
		map[string]string{"choice_id": choiceID, "text": text}, &res)
	if err != nil {
		return nil, err
	}
	return res.State, nil
}

type chatResult struct {
	Message    string           `json:"message"`
	Expression string           `json:"expression"`
	Fallback   bool             `json:"fallback"`
	State      *state.GameState `json:"state"`
}

func (c *apiClient) chat(ctx context.Context, id, message string) (*chatResult, error) {
	var res chatResult
	if err := c.do(ctx, http.MethodPost, "/v1/gamestate/"+url.PathEscape(id)+"/chat",
		map[string]string{"message": message}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *apiClient) allocateStat(ctx context.Context, id, stat string) (*state.GameState, error) {
	var res stateResult
	if err := c.do(ctx, http.MethodPost, "/v1/gamestate/"+url.PathEscape(id)+"/stats",
		map[string]string{"stat": stat}, &res); err != nil {
		return nil, err
	}
	return res.State, nil
}

func (c *apiClient) guidance(ctx context.Context, id string) (string, error) {
	var res struct {
		Guidance *struct {
			Text string `json:"text"`
		} `json:"guidance"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/profiles/"+url.PathEscape(id)+"/guidance", nil, &res); err != nil {
		return "", err
	}
	if res.Guidance == nil {
		return "", nil
	}
	return res.Guidance.Text, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// listenToSSE connects to the SSE endpoint and streams events to a channel
func (c *apiClient) listenToSSE(ctx context.Context, id string, eventChan chan<- SSEEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/events/gamestate/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The stream outlives the client's request timeout.
	streamClient := &http.Client{Transport: c.http.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}
	return readSSE(ctx, resp.Body, eventChan)
}

func readSSE(ctx context.Context, r io.Reader, eventChan chan<- SSEEvent) error {
	scanner := bufio.NewScanner(r)
	var current SSEEvent

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			// Empty line signals end of event
			if current.Type != "" {
				select {
				case eventChan <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
				current = SSEEvent{}
			}
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var payload struct {
				Data map[string]any `json:"data"`
			}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload); err == nil {
				current.Data = payload.Data
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
