package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/state"
	"github.com/jwebster45206/gatebound/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_states (
	session_id TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS deleted_episodes (
	episode_id TEXT PRIMARY KEY,
	deleted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS episode_progress (
	profile_id TEXT NOT NULL,
	episode_id TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (profile_id, episode_id)
);
CREATE TABLE IF NOT EXISTS profile_episodes (
	profile_id TEXT PRIMARY KEY,
	active     JSONB NOT NULL DEFAULT '[]',
	focused    TEXT NOT NULL DEFAULT ''
);
`

// PostgresStorage implements the Storage interface on PostgreSQL JSONB
// tables. Sessions do not expire.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Storage = (*PostgresStorage)(nil)

// NewPostgresStorage connects and creates the schema if needed.
func NewPostgresStorage(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	p := &PostgresStorage{pool: pool, logger: logger}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Pool exposes the connection pool for the advisory locker.
func (p *PostgresStorage) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	p.logger.Info("Postgres pool closed")
	return nil
}

func (p *PostgresStorage) SaveGameState(ctx context.Context, sessionID string, gs *state.GameState) error {
	gs.UpdatedAt = time.Now()
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO game_states (session_id, data, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sessionID, data, gs.UpdatedAt)
	if err != nil {
		p.logger.Error("Failed to save gamestate", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (p *PostgresStorage) LoadGameState(ctx context.Context, sessionID string) (*state.GameState, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM game_states WHERE session_id = $1`, sessionID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}

func (p *PostgresStorage) DeleteGameState(ctx context.Context, sessionID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM game_states WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// Episode store operations

func (p *PostgresStorage) DeletedEpisodes(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT episode_id FROM deleted_episodes ORDER BY episode_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load deleted episodes: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to load deleted episodes: %w", err)
	}
	return ids, nil
}

func (p *PostgresStorage) AddDeletedEpisode(ctx context.Context, episodeID string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO deleted_episodes (episode_id) VALUES ($1) ON CONFLICT DO NOTHING`, episodeID)
	if err != nil {
		return fmt.Errorf("failed to delete episode: %w", err)
	}
	return nil
}

func (p *PostgresStorage) RemoveDeletedEpisode(ctx context.Context, episodeID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM deleted_episodes WHERE episode_id = $1`, episodeID); err != nil {
		return fmt.Errorf("failed to restore episode: %w", err)
	}
	return nil
}

func (p *PostgresStorage) LoadProgress(ctx context.Context, profileID, episodeID string) (*episode.Progress, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `
		SELECT data FROM episode_progress WHERE profile_id = $1 AND episode_id = $2`,
		profileID, episodeID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load episode progress: %w", err)
	}
	var prog episode.Progress
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal episode progress: %w", err)
	}
	return &prog, nil
}

func (p *PostgresStorage) SaveProgress(ctx context.Context, prog *episode.Progress) error {
	data, err := json.Marshal(prog)
	if err != nil {
		return fmt.Errorf("failed to marshal episode progress: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO episode_progress (profile_id, episode_id, data, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (profile_id, episode_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		prog.ProfileID, prog.EpisodeID, data)
	if err != nil {
		return fmt.Errorf("failed to save episode progress: %w", err)
	}
	return nil
}

func (p *PostgresStorage) LoadActiveEpisodes(ctx context.Context, profileID string) ([]episode.ActiveEpisode, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT active FROM profile_episodes WHERE profile_id = $1`, profileID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active episodes: %w", err)
	}
	var eps []episode.ActiveEpisode
	if err := json.Unmarshal(data, &eps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active episodes: %w", err)
	}
	return eps, nil
}

func (p *PostgresStorage) SaveActiveEpisodes(ctx context.Context, profileID string, eps []episode.ActiveEpisode) error {
	if eps == nil {
		eps = []episode.ActiveEpisode{}
	}
	data, err := json.Marshal(eps)
	if err != nil {
		return fmt.Errorf("failed to marshal active episodes: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO profile_episodes (profile_id, active) VALUES ($1, $2)
		ON CONFLICT (profile_id) DO UPDATE SET active = EXCLUDED.active`,
		profileID, data)
	if err != nil {
		return fmt.Errorf("failed to save active episodes: %w", err)
	}
	return nil
}

func (p *PostgresStorage) LoadFocusedEpisode(ctx context.Context, profileID string) (string, error) {
	var id string
	err := p.pool.QueryRow(ctx, `SELECT focused FROM profile_episodes WHERE profile_id = $1`, profileID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load focused episode: %w", err)
	}
	return id, nil
}

func (p *PostgresStorage) SaveFocusedEpisode(ctx context.Context, profileID, episodeID string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO profile_episodes (profile_id, focused) VALUES ($1, $2)
		ON CONFLICT (profile_id) DO UPDATE SET focused = EXCLUDED.focused`,
		profileID, episodeID)
	if err != nil {
		return fmt.Errorf("failed to save focused episode: %w", err)
	}
	return nil
}
