// Package pg is the Postgres side of the tenant connectivity layer, built on
// pgx/v5 and goose/v3.
//
// Client implements datasource.Client over a *pgxpool.Pool. Register it
// through Constructor so the connection pool can build one per tenant
// descriptor:
//
//	registry.Register(datasource.Postgres, pg.Constructor(cfg))
//
// Inside a transaction scope the callback receives a pgx.Tx:
//
//	err := client.InTx(ctx, opts, func(ctx context.Context, tx any) error {
//	    _, err := tx.(pgx.Tx).Exec(ctx, "UPDATE accounts SET ...")
//	    return err
//	})
//
// Connect and Migrate serve the standalone master connection:
// Connect retries opening the pool, Migrate runs goose migrations from an
// fs.FS (usually embedded) against it. Healthcheck wraps the master pool in a
// probe that reports ErrHealthcheckFailed when the database is unreachable.
//
// IsNotFoundError, IsDuplicateKeyError and friends classify pgx errors.
package pg
