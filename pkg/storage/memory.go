package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// MemoryStorage keeps everything in process. Values are stored as JSON so
// callers never share memory with the store.
type MemoryStorage struct {
	mu         sync.RWMutex
	gamestates map[string][]byte
	deleted    []string
	progress   map[string][]byte
	active     map[string][]episode.ActiveEpisode
	focus      map[string]string
	pingError  error
}

// Ensure MemoryStorage implements Storage interface
var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		gamestates: make(map[string][]byte),
		progress:   make(map[string][]byte),
		active:     make(map[string][]episode.ActiveEpisode),
		focus:      make(map[string]string),
	}
}

// SetPingError configures Ping to fail with err; nil restores success.
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) SaveGameState(ctx context.Context, sessionID string, gs *state.GameState) error {
	gs.UpdatedAt = time.Now()
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamestates[sessionID] = data
	return nil
}

func (m *MemoryStorage) LoadGameState(ctx context.Context, sessionID string) (*state.GameState, error) {
	m.mu.RLock()
	data, ok := m.gamestates[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}

func (m *MemoryStorage) DeleteGameState(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, sessionID)
	return nil
}

// Episode store operations

func (m *MemoryStorage) DeletedEpisodes(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.deleted), nil
}

func (m *MemoryStorage) AddDeletedEpisode(ctx context.Context, episodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.deleted, episodeID) {
		m.deleted = append(m.deleted, episodeID)
	}
	return nil
}

func (m *MemoryStorage) RemoveDeletedEpisode(ctx context.Context, episodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = slices.DeleteFunc(m.deleted, func(id string) bool { return id == episodeID })
	return nil
}

func progressKey(profileID, episodeID string) string {
	return profileID + ":" + episodeID
}

func (m *MemoryStorage) LoadProgress(ctx context.Context, profileID, episodeID string) (*episode.Progress, error) {
	m.mu.RLock()
	data, ok := m.progress[progressKey(profileID, episodeID)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var p episode.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal episode progress: %w", err)
	}
	return &p, nil
}

func (m *MemoryStorage) SaveProgress(ctx context.Context, p *episode.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal episode progress: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progressKey(p.ProfileID, p.EpisodeID)] = data
	return nil
}

func (m *MemoryStorage) LoadActiveEpisodes(ctx context.Context, profileID string) ([]episode.ActiveEpisode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.active[profileID]), nil
}

func (m *MemoryStorage) SaveActiveEpisodes(ctx context.Context, profileID string, eps []episode.ActiveEpisode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[profileID] = slices.Clone(eps)
	return nil
}

func (m *MemoryStorage) LoadFocusedEpisode(ctx context.Context, profileID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.focus[profileID], nil
}

func (m *MemoryStorage) SaveFocusedEpisode(ctx context.Context, profileID, episodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if episodeID == "" {
		delete(m.focus, profileID)
		return nil
	}
	m.focus[profileID] = episodeID
	return nil
}
