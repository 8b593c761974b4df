package lifecycle

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas4d/gateway/internal/db/postgres"
	"github.com/atlas4d/gateway/internal/db/redis"
)

// PostgresOpener opens a pgx pool per attempt.
func PostgresOpener(cfg postgres.Config) PrimaryOpener {
	return func(ctx context.Context) (Pool, error) {
		p, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err //nolint:wrapcheck // postgres.Open already adds context
		}
		return pgxPool{Pool: p}, nil
	}
}

// RedisOpener dials the cache once.
func RedisOpener(cfg redis.Config) CacheOpener {
	return func(_ context.Context) (Cache, error) {
		s, err := redis.NewStore(cfg)
		if err != nil {
			return nil, err //nolint:wrapcheck // NewStore already adds context
		}
		return s, nil
	}
}

// pgxPool narrows *pgxpool.Pool to the Pool interface.
type pgxPool struct {
	*pgxpool.Pool
}

func (p pgxPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by the manager
	}
	return c, nil
}
