package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/state"
	"github.com/jwebster45206/gatebound/pkg/storage"
)

const (
	gameStatePrefix       = "gamestate:"
	deletedEpisodesKey    = "episodes:deleted"
	episodeProgressPrefix = "episode-progress:"
	activeEpisodesPrefix  = "episodes-active:"
	focusedEpisodePrefix  = "episode-focus:"
)

// RedisStorage implements the Storage interface on Redis. Game states expire
// after the session TTL; episode records do not expire.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage connects to a redis:// URL.
func NewRedisStorage(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return NewRedisStorageWithClient(redis.NewClient(opts), ttl, logger), nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Client exposes the underlying connection for the locker and event broadcaster.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// GameState operations

func (r *RedisStorage) SaveGameState(ctx context.Context, sessionID string, gs *state.GameState) error {
	gs.UpdatedAt = time.Now()

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal gamestate", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	if err := r.client.Set(ctx, gameStatePrefix+sessionID, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save gamestate", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, sessionID string) (*state.GameState, error) {
	data, err := r.client.Get(ctx, gameStatePrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) || (err == nil && len(data) == 0) {
		r.logger.Debug("Gamestate not found", "session_id", sessionID)
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load gamestate", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		r.logger.Error("Failed to unmarshal gamestate", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, gameStatePrefix+sessionID).Err(); err != nil {
		r.logger.Error("Failed to delete gamestate", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// Episode store operations

func (r *RedisStorage) DeletedEpisodes(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, deletedEpisodesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load deleted episodes: %w", err)
	}
	return ids, nil
}

func (r *RedisStorage) AddDeletedEpisode(ctx context.Context, episodeID string) error {
	if err := r.client.SAdd(ctx, deletedEpisodesKey, episodeID).Err(); err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	return nil
}

func (r *RedisStorage) RemoveDeletedEpisode(ctx context.Context, episodeID string) error {
	if err := r.client.SRem(ctx, deletedEpisodesKey, episodeID).Err(); err != nil {
		return fmt.Errorf("failed to restore episode: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadProgress(ctx context.Context, profileID, episodeID string) (*episode.Progress, error) {
	var p episode.Progress
	found, err := r.getJSON(ctx, episodeProgressPrefix+profileID+":"+episodeID, &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (r *RedisStorage) SaveProgress(ctx context.Context, p *episode.Progress) error {
	return r.setJSON(ctx, episodeProgressPrefix+p.ProfileID+":"+p.EpisodeID, p)
}

func (r *RedisStorage) LoadActiveEpisodes(ctx context.Context, profileID string) ([]episode.ActiveEpisode, error) {
	var eps []episode.ActiveEpisode
	if _, err := r.getJSON(ctx, activeEpisodesPrefix+profileID, &eps); err != nil {
		return nil, err
	}
	return eps, nil
}

func (r *RedisStorage) SaveActiveEpisodes(ctx context.Context, profileID string, eps []episode.ActiveEpisode) error {
	return r.setJSON(ctx, activeEpisodesPrefix+profileID, eps)
}

func (r *RedisStorage) LoadFocusedEpisode(ctx context.Context, profileID string) (string, error) {
	id, err := r.client.Get(ctx, focusedEpisodePrefix+profileID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load focused episode: %w", err)
	}
	return id, nil
}

func (r *RedisStorage) SaveFocusedEpisode(ctx context.Context, profileID, episodeID string) error {
	key := focusedEpisodePrefix + profileID
	var err error
	if episodeID == "" {
		err = r.client.Del(ctx, key).Err()
	} else {
		err = r.client.Set(ctx, key, episodeID, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to save focused episode: %w", err)
	}
	return nil
}

func (r *RedisStorage) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStorage) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
