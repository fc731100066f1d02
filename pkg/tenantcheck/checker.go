package tenantcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
	"github.com/dmitrymomot/tenantconn/pkg/tenant"
)

// Result is the outcome of probing one tenant database.
type Result struct {
	TenantCode       string          `json:"tenant_code"`
	TenantIdentifier string          `json:"tenant_identifier"`
	TenantType       datasource.Kind `json:"tenant_type"`
	Accessible       bool            `json:"accessible"`
	Error            string          `json:"error,omitempty"`
}

// Report summarises a startup check.
type Report struct {
	Results      []Result `json:"results"`
	Accessible   int      `json:"accessible"`
	Inaccessible int      `json:"inaccessible"`
}

// Failed returns the results of unreachable databases.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Accessible {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r Report) summary() string {
	parts := make([]string, 0, r.Inaccessible)
	for _, res := range r.Failed() {
		msg := res.Error
		if msg == "" {
			msg = "unknown error"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", res.TenantCode, msg))
	}
	return strings.Join(parts, ", ")
}

// Checker probes every known tenant database.
type Checker struct {
	resolver    tenant.Resolver
	groups      tenant.GroupLister
	factory     datasource.Factory
	concurrency int
	timeout     time.Duration
	log         *slog.Logger
}

// New creates a Checker.
func New(resolver tenant.Resolver, groups tenant.GroupLister, factory datasource.Factory, opts ...Option) *Checker {
	c := &Checker{
		resolver:    resolver,
		groups:      groups,
		factory:     factory,
		concurrency: defaultConcurrency,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("tenantcheck"))
	return c
}

// AllTenantConnectionInfo lists the descriptors of every tenant group.
// Groups that fail to resolve are logged and skipped.
func (c *Checker) AllTenantConnectionInfo(ctx context.Context) ([]datasource.Descriptor, error) {
	groups, err := c.groups.TenantGroups(ctx)
	if err != nil {
		return nil, datasource.TenantError("failed to list tenant groups", err, nil)
	}

	var all []datasource.Descriptor
	for _, group := range groups {
		descriptors, err := c.resolver.ResolveTenantConnections(ctx, group)
		if err != nil {
			c.log.WarnContext(ctx, "skipping tenant group", logger.TenantGroup(group), logger.Error(err))
			continue
		}
		all = append(all, descriptors...)
	}
	return all, nil
}

// TestTenantConnection opens a throwaway client for d, pings it and
// releases it. The error explains why the database is not accessible.
func (c *Checker) TestTenantConnection(ctx context.Context, d datasource.Descriptor) (bool, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	client, err := datasource.Open(ctx, c.factory, d)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := datasource.Release(context.WithoutCancel(ctx), client); err != nil {
			c.log.WarnContext(ctx, "failed to release probe client", logger.Tenant(d.TenantCode, d.TenantIdentifier), logger.Error(err))
		}
	}()

	if err := client.Ping(ctx); err != nil {
		return false, datasource.ValidationError("ping failed for "+d.TenantCode, err, datasource.Fields{"descriptor": d})
	}
	return true, nil
}

// CheckAllTenantsAccessibility probes every descriptor. Results keep the
// order of AllTenantConnectionInfo.
func (c *Checker) CheckAllTenantsAccessibility(ctx context.Context) ([]Result, error) {
	descriptors, err := c.AllTenantConnectionInfo(ctx)
	if err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		c.log.WarnContext(ctx, "no tenant connections found to check")
		return []Result{}, nil
	}

	c.log.InfoContext(ctx, "checking tenant connections", slog.Int("count", len(descriptors)))

	results := make([]Result, len(descriptors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, d := range descriptors {
		g.Go(func() error {
			res := Result{
				TenantCode:       d.TenantCode,
				TenantIdentifier: d.TenantIdentifier,
				TenantType:       d.Kind,
			}
			ok, err := c.TestTenantConnection(gctx, d)
			res.Accessible = ok
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Startup runs the accessibility check and applies policy.
func (c *Checker) Startup(ctx context.Context, policy Policy) (Report, error) {
	c.log.InfoContext(ctx, "checking accessibility of all tenant connections")

	results, err := c.CheckAllTenantsAccessibility(ctx)
	if err != nil {
		c.log.ErrorContext(ctx, "failed to check tenant accessibility", logger.Error(err))
		if policy == PolicyWarn {
			return Report{}, nil
		}
		return Report{}, err
	}

	report := Report{Results: results}
	for _, res := range results {
		if res.Accessible {
			report.Accessible++
		} else {
			report.Inaccessible++
		}
	}

	c.log.InfoContext(ctx, "tenant accessibility check completed",
		slog.Int("accessible", report.Accessible),
		slog.Int("total", len(results)),
	)

	if report.Inaccessible == 0 {
		return report, nil
	}

	summary := report.summary()
	if policy == PolicyWarn {
		c.log.WarnContext(ctx, "some tenants are inaccessible",
			slog.Int("inaccessible", report.Inaccessible),
			slog.String("tenants", summary),
		)
		return report, nil
	}
	return report, errors.Join(ErrTenantsInaccessible, fmt.Errorf("%d tenant(s): %s", report.Inaccessible, summary))
}
