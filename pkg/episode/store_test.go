package episode

import (
	"context"
	"slices"
	"sync"
)

// memStore is an in-memory Store for engine tests.
type memStore struct {
	mu       sync.Mutex
	deleted  []string
	progress map[string]*Progress
	active   map[string][]ActiveEpisode
	focus    map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		progress: map[string]*Progress{},
		active:   map[string][]ActiveEpisode{},
		focus:    map[string]string{},
	}
}

func (m *memStore) DeletedEpisodes(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.deleted), nil
}

func (m *memStore) AddDeletedEpisode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.deleted, id) {
		m.deleted = append(m.deleted, id)
	}
	return nil
}

func (m *memStore) RemoveDeletedEpisode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = slices.DeleteFunc(m.deleted, func(s string) bool { return s == id })
	return nil
}

func (m *memStore) LoadProgress(ctx context.Context, profileID, episodeID string) (*Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[profileID+":"+episodeID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) SaveProgress(ctx context.Context, p *Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.progress[p.ProfileID+":"+p.EpisodeID] = &cp
	return nil
}

func (m *memStore) LoadActiveEpisodes(ctx context.Context, profileID string) ([]ActiveEpisode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.active[profileID]), nil
}

func (m *memStore) SaveActiveEpisodes(ctx context.Context, profileID string, eps []ActiveEpisode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[profileID] = slices.Clone(eps)
	return nil
}

func (m *memStore) LoadFocusedEpisode(ctx context.Context, profileID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focus[profileID], nil
}

func (m *memStore) SaveFocusedEpisode(ctx context.Context, profileID, episodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focus[profileID] = episodeID
	return nil
}
