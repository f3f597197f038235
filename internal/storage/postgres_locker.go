package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jwebster45206/gatebound/pkg/storage"
)

// PostgresLocker holds session-level advisory locks. A held lock pins one
// connection from the locker's own pool, never from the storage pool, so a
// holder can always reach its game state. Waiters poll with
// pg_try_advisory_lock and hand their connection back between attempts.
type PostgresLocker struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Locker = (*PostgresLocker)(nil)

func NewPostgresLocker(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresLocker, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect lock pool: %w", err)
	}
	return &PostgresLocker{pool: pool, logger: logger}, nil
}

func (l *PostgresLocker) Close() {
	l.pool.Close()
}

// tryLock returns the connection holding the lock, or nil if another
// session holds it.
func (l *PostgresLocker) tryLock(ctx context.Context, key string) (*pgxpool.Conn, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		conn.Release()
		return nil, nil
	}
	return conn, nil
}

func (l *PostgresLocker) Lock(ctx context.Context, key string) (func(), error) {
	var conn *pgxpool.Conn
	for {
		var err error
		conn, err = l.tryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if conn != nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx := context.WithoutCancel(ctx)
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
			l.logger.Error("Failed to release advisory lock", "error", err, "key", key)
			// The lock is bound to the connection, so drop it rather than
			// return a connection that still holds it to the pool.
			conn.Conn().Close(ctx)
		}
		conn.Release()
	}, nil
}
