// Package connpool keeps named, connected database clients for the lifetime
// of a process.
//
// A Pool creates each connection at most once at a time: concurrent
// CreateConnection calls for the same name wait on one shared creation.
// Creation is retried up to MaxRetries attempts with exponential backoff
// capped at RetryMaxDelay. Every live connection is pinged each
// HealthCheckInterval and dropped on the first failed ping; a sweep every
// CleanupInterval drops connections older than MaxConnectionAge. Dropped
// connections are recreated on the next CreateConnection.
//
//	pool := connpool.New(cfg, connpool.WithLogger(log))
//	defer pool.Shutdown(ctx)
//
//	err := pool.CreateConnection(ctx, connpool.ConnectionOptions{
//	    Kind: d.Kind,
//	    Name: d.TenantCode,
//	    Factory: func(ctx context.Context) (datasource.Client, error) {
//	        return registry.NewClient(ctx, d)
//	    },
//	})
//	conn, err := pool.GetConnection(ctx, d.TenantCode)
//
// Lifecycle events (created, removed, creation failed, health check failed,
// connection error, shutdown) are published to subscribers returned by
// Subscribe. Publishing never blocks the pool.
//
// Timers come from a juju/clock Clock, so tests can drive expiry with
// testclock.
package connpool
