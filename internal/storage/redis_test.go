package storage

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/state"
)

func setupTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewRedisStorageWithClient(client, time.Hour, logger)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStorage_GameState(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	loaded, err := s.LoadGameState(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	gs := state.NewGameState("session-1", "Jin", nil)
	gs.AffectionLevel = 64
	require.NoError(t, s.SaveGameState(ctx, gs.SessionID, gs))

	assert.True(t, mr.Exists("gamestate:session-1"))
	assert.Equal(t, time.Hour, mr.TTL("gamestate:session-1"))

	loaded, err = s.LoadGameState(ctx, "session-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs.ID, loaded.ID)
	assert.Equal(t, 64, loaded.AffectionLevel)

	// Expired sessions read as absent.
	mr.FastForward(2 * time.Hour)
	loaded, err = s.LoadGameState(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, s.SaveGameState(ctx, "session-2", gs))
	require.NoError(t, s.DeleteGameState(ctx, "session-2"))
	assert.False(t, mr.Exists("gamestate:session-2"))
}

func TestRedisStorage_CorruptGameState(t *testing.T) {
	s, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("gamestate:bad", "{not json"))

	_, err := s.LoadGameState(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisStorage_EpisodeStore(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.AddDeletedEpisode(ctx, "EP01"))
	require.NoError(t, s.AddDeletedEpisode(ctx, "EP01"))
	ids, err := s.DeletedEpisodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EP01"}, ids)
	require.NoError(t, s.RemoveDeletedEpisode(ctx, "EP01"))
	ids, err = s.DeletedEpisodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	p, err := s.LoadProgress(ctx, "prof", "EP01")
	require.NoError(t, err)
	assert.Nil(t, p)
	require.NoError(t, s.SaveProgress(ctx, &episode.Progress{ProfileID: "prof", EpisodeID: "EP01", CurrentBeat: 2, CurrentBeatID: "1.3"}))
	assert.True(t, mr.Exists("episode-progress:prof:EP01"))
	p, err = s.LoadProgress(ctx, "prof", "EP01")
	require.NoError(t, err)
	assert.Equal(t, episode.BeatID("1.3"), p.CurrentBeatID)
	assert.Equal(t, 2, p.CurrentBeat)

	eps, err := s.LoadActiveEpisodes(ctx, "prof")
	require.NoError(t, err)
	assert.Empty(t, eps)
	active := []episode.ActiveEpisode{{EpisodeID: "EP01", Priority: episode.PriorityPrimary, Weight: 60}}
	require.NoError(t, s.SaveActiveEpisodes(ctx, "prof", active))
	eps, err = s.LoadActiveEpisodes(ctx, "prof")
	require.NoError(t, err)
	assert.Equal(t, active, eps)

	focus, err := s.LoadFocusedEpisode(ctx, "prof")
	require.NoError(t, err)
	assert.Empty(t, focus)
	require.NoError(t, s.SaveFocusedEpisode(ctx, "prof", "EP01"))
	focus, err = s.LoadFocusedEpisode(ctx, "prof")
	require.NoError(t, err)
	assert.Equal(t, "EP01", focus)
	require.NoError(t, s.SaveFocusedEpisode(ctx, "prof", ""))
	assert.False(t, mr.Exists("episode-focus:prof"))
}

func TestNewRedisStorage_BadURL(t *testing.T) {
	_, err := NewRedisStorage("not a url", time.Hour, slog.Default())
	assert.Error(t, err)
}

func TestRedisLocker(t *testing.T) {
	s, mr := setupTestRedis(t)
	locker := NewRedisLocker(s.Client(), 5*time.Second, slog.Default())
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("session-lock:session-1"))

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "session-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("session-lock:session-1"))

	unlock, err = locker.Lock(ctx, "session-1")
	require.NoError(t, err)
	unlock()
}

func TestRedisLocker_DoesNotReleaseForeignLock(t *testing.T) {
	s, mr := setupTestRedis(t)
	locker := NewRedisLocker(s.Client(), 5*time.Second, slog.Default())

	unlock, err := locker.Lock(context.Background(), "s")
	require.NoError(t, err)

	// Simulate expiry and takeover by another holder.
	require.NoError(t, mr.Set("session-lock:s", "someone-else"))
	unlock()

	v, err := mr.Get("session-lock:s")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestRedisLocker_Serialises(t *testing.T) {
	s, _ := setupTestRedis(t)
	locker := NewRedisLocker(s.Client(), 5*time.Second, slog.Default())

	var wg sync.WaitGroup
	counter := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "shared")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, counter)
}
