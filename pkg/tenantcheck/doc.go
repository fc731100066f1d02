// Package tenantcheck verifies at startup that every tenant database is
// reachable.
//
// The Checker enumerates tenant groups, resolves their descriptors and
// probes each one with a throwaway client: build, connect, ping, release.
// Probes run concurrently up to a configurable limit and never touch the
// shared connection pool.
//
//	checker := tenantcheck.New(store, store, engines.Registry(cfg.Engines),
//		tenantcheck.WithConcurrency(cfg.Check.Concurrency),
//	)
//	report, err := checker.Startup(ctx, cfg.Check.Policy)
//
// With PolicyAbort an unreachable tenant makes Startup fail with
// ErrTenantsInaccessible. PolicyWarn only logs.
package tenantcheck
