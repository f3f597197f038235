package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatebound/internal/services"
	"github.com/jwebster45206/gatebound/internal/services/events"
	"github.com/jwebster45206/gatebound/internal/session"
	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/storage"
)

var testNow = time.Date(2026, 4, 12, 19, 0, 0, 0, time.UTC)

type testServer struct {
	router   http.Handler
	sessions *session.Service
	store    *storage.MemoryStorage
	bus      *events.MemoryBus
	dialogue *services.MockDialogue
	image    *services.MockImage
	voice    *services.MockVoice
	speech   *services.MockSpeech
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, eps ...episode.EpisodeData) *testServer {
	t.Helper()
	logger := testLogger()
	ts := &testServer{
		store:    storage.NewMemoryStorage(),
		bus:      events.NewMemoryBus(),
		dialogue: &services.MockDialogue{},
		image:    &services.MockImage{},
		voice:    &services.MockVoice{},
		speech:   &services.MockSpeech{},
	}
	guarded := services.NewGuarded(time.Second, logger)
	guarded.Dialogue, guarded.Image, guarded.Voice, guarded.Speech = ts.dialogue, ts.image, ts.voice, ts.speech

	clock := func() time.Time { return testNow }
	engine := episode.NewEngine(episode.NewLibrary(eps...), ts.store, logger).WithClock(clock)
	ts.sessions = session.New(session.Config{
		Storage:   ts.store,
		Engine:    engine,
		Providers: guarded,
		Events:    ts.bus,
		Logger:    logger,
	}).WithClock(clock)
	ts.router = NewRouter(ts.sessions, ts.bus, ts.store, logger)
	return ts
}

// do sends body as JSON (or raw bytes) and returns the recorded response.
func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) create(t *testing.T, id string) {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/v1/gamestate", map[string]string{"session_id": id, "player_name": "Jin"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
