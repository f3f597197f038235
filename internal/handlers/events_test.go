package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatebound/internal/services/events"
)

func TestEventsHandler_SSE(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/events/gamestate/s1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && name != "":
				return name, data
			}
		}
	}

	name, _ := readEvent()
	assert.Equal(t, "connected", name)

	// The subscription exists once "connected" is flushed.
	require.NoError(t, ts.bus.Publish(ctx, "s1", events.Event{Type: events.EventTypeChatReplied, Data: map[string]any{"text": "hi"}}))
	name, data := readEvent()
	assert.Equal(t, string(events.EventTypeChatReplied), name)
	assert.Contains(t, data, `"game_id":"s1"`)
	assert.Contains(t, data, `"text":"hi"`)
}

func TestEventsHandler_Websocket(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/events/gamestate/s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Subscribe happens after the upgrade; retry until the event lands.
	got := make(chan events.Event, 1)
	go func() {
		var e events.Event
		if err := conn.ReadJSON(&e); err == nil {
			got <- e
		}
	}()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case e := <-got:
			assert.Equal(t, events.EventTypeEpisodeAdvanced, e.Type)
			assert.Equal(t, "s1", e.GameID)
			return
		case <-tick.C:
			_ = ts.bus.Publish(context.Background(), "s1", events.Event{Type: events.EventTypeEpisodeAdvanced})
		case <-deadline:
			t.Fatal("no event received over websocket")
		}
	}
}

func TestEventsHandler_BadRoute(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/v1/events/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = ts.do(t, http.MethodPost, "/v1/events/gamestate/s1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
