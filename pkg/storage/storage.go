package storage

import (
	"context"

	"github.com/jwebster45206/gatebound/pkg/episode"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// Storage defines a unified interface for all persistence: game states keyed
// by session id plus the episode engine's progress records.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations. Load returns nil, nil when the session does not exist.
	SaveGameState(ctx context.Context, sessionID string, gs *state.GameState) error
	LoadGameState(ctx context.Context, sessionID string) (*state.GameState, error)
	DeleteGameState(ctx context.Context, sessionID string) error

	episode.Store
}

// Locker serialises work on one key across callers. The returned func
// releases the lock and is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
