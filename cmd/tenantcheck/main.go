// Command tenantcheck verifies that every tenant database registered in the
// master database is reachable. With -warm it also opens pooled connections
// for every tenant group, the way a service does at startup.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/tenantconn/pkg/config"
	"github.com/dmitrymomot/tenantconn/pkg/connpool"
	"github.com/dmitrymomot/tenantconn/pkg/engines"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
	"github.com/dmitrymomot/tenantconn/pkg/master"
	"github.com/dmitrymomot/tenantconn/pkg/pg"
	"github.com/dmitrymomot/tenantconn/pkg/redis"
	"github.com/dmitrymomot/tenantconn/pkg/tenant"
	"github.com/dmitrymomot/tenantconn/pkg/tenantcheck"
)

type appConfig struct {
	Log      logger.Config
	Master   pg.Config      `envPrefix:"MASTER_"`
	Engines  engines.Config `envPrefix:"TENANT_"`
	Pool     connpool.Config
	Check    tenantcheck.Config
	Redis    redis.Config
	CacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		migrate = flag.Bool("migrate", false, "apply master database migrations before checking")
		warm    = flag.Bool("warm", false, "open pooled connections for every tenant group after the check")
		policy  = flag.String("policy", "", "override TENANT_CHECK_POLICY (abort|warn)")
	)
	flag.Parse()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if *policy != "" {
		p, err := tenantcheck.ParsePolicy(*policy)
		if err != nil {
			return err
		}
		cfg.Check.Policy = p
	}

	log := logger.New(append(logger.FromConfig(cfg.Log), logger.WithContextExtractors(tenant.LoggerExtractor()))...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	masterPool, err := pg.Connect(ctx, cfg.Master)
	if err != nil {
		return err
	}
	defer masterPool.Close()

	if err := pg.Healthcheck(masterPool)(ctx); err != nil {
		log.ErrorContext(ctx, "master database is unreachable", logger.Error(err))
		return err
	}

	if *migrate {
		if err := master.Migrate(ctx, masterPool, cfg.Master, log); err != nil {
			return err
		}
	}

	store := master.NewStore(masterPool, log)
	resolver, closeCache, err := cachedResolver(ctx, cfg, store, log)
	if err != nil {
		return err
	}
	defer closeCache()

	factory := engines.Registry(cfg.Engines)

	checker := tenantcheck.New(resolver, store, factory,
		append(tenantcheck.FromConfig(cfg.Check), tenantcheck.WithLogger(log))...,
	)
	report, checkErr := checker.Startup(ctx, cfg.Check.Policy)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if checkErr != nil {
		return checkErr
	}

	if *warm {
		return warmPool(ctx, cfg, store, resolver, log)
	}
	return nil
}

// cachedResolver fronts the master store with Redis when REDIS_URL is set and
// with an in-memory cache otherwise.
func cachedResolver(ctx context.Context, cfg appConfig, store *master.Store, log *slog.Logger) (tenant.Resolver, func(), error) {
	if cfg.Redis.ConnectionURL == "" {
		cache := tenant.NewInMemoryCache()
		return tenant.NewCachedResolver(store, cache, cfg.CacheTTL, log), func() { _ = cache.Close() }, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	cache := tenant.NewRedisCache(client, "", log)
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", logger.Error(err))
		}
	}
	return tenant.NewCachedResolver(store, cache, cfg.CacheTTL, log), closeFn, nil
}

func warmPool(ctx context.Context, cfg appConfig, groups tenant.GroupLister, resolver tenant.Resolver, log *slog.Logger) error {
	pool := connpool.New(cfg.Pool, connpool.WithLogger(log))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			log.Error("pool shutdown failed", logger.Error(err))
		}
	}()

	agg := tenant.NewAggregator(pool, resolver, engines.Registry(cfg.Engines), tenant.WithLogger(log))

	codes, err := groups.TenantGroups(ctx)
	if err != nil {
		return err
	}
	for _, code := range codes {
		if _, err := agg.Session(code).Clients(ctx); err != nil {
			log.Error("failed to warm tenant group", logger.TenantGroup(code), logger.Error(err))
		}
	}

	m := pool.Metrics()
	log.Info("pool warmed",
		slog.Int64("active", m.ActiveConnections),
		slog.Int64("failed", m.FailedConnections),
	)
	return json.NewEncoder(os.Stdout).Encode(pool.ConnectionsInfo())
}
