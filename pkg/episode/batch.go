package episode

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Batch holds progress saves in memory over a Store until Commit. Loads see
// staged progress before stored progress, so several events within one batch
// build on each other.
type Batch struct {
	Store

	mu       sync.Mutex
	order    []string
	progress map[string]*Progress
}

var _ Store = (*Batch)(nil)

// Staged returns a copy of the engine that saves progress into a new Batch.
// Nothing reaches the engine's store until the batch is committed.
func (e *Engine) Staged() (*Engine, *Batch) {
	b := &Batch{Store: e.store, progress: map[string]*Progress{}}
	staged := *e
	staged.store = b
	return &staged, b
}

func batchKey(profileID, episodeID string) string {
	return profileID + "\x00" + episodeID
}

func copyProgress(p *Progress) *Progress {
	cp := *p
	cp.History = slices.Clone(p.History)
	return &cp
}

func (b *Batch) LoadProgress(ctx context.Context, profileID, episodeID string) (*Progress, error) {
	b.mu.Lock()
	p, ok := b.progress[batchKey(profileID, episodeID)]
	b.mu.Unlock()
	if ok {
		return copyProgress(p), nil
	}
	return b.Store.LoadProgress(ctx, profileID, episodeID)
}

func (b *Batch) SaveProgress(ctx context.Context, p *Progress) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := batchKey(p.ProfileID, p.EpisodeID)
	if _, ok := b.progress[key]; !ok {
		b.order = append(b.order, key)
	}
	b.progress[key] = copyProgress(p)
	return nil
}

// Len reports how many progress records are staged.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// Commit writes staged progress to the underlying store in the order it was
// first staged. Records written before a failure are not staged again.
func (b *Batch) Commit(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.order) > 0 {
		key := b.order[0]
		p := b.progress[key]
		if err := b.Store.SaveProgress(ctx, p); err != nil {
			return fmt.Errorf("commit progress %s/%s: %w", p.ProfileID, p.EpisodeID, err)
		}
		delete(b.progress, key)
		b.order = b.order[1:]
	}
	return nil
}
