package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck returns a probe for a pool managed outside the tenant
// connection pool, such as the master database.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return healthcheck(pool)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthcheck(db pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
