package tenant_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/tenantconn/pkg/connpool"
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/tenant"
)

var errUnreachable = errors.New("host unreachable")

type fakeClient struct {
	d         datasource.Descriptor
	connected atomic.Bool
	closed    atomic.Bool
}

func (c *fakeClient) Kind() datasource.Kind { return c.d.Kind }

func (c *fakeClient) Connect(context.Context) error {
	c.connected.Store(true)
	return nil
}

func (c *fakeClient) Ping(context.Context) error { return nil }

func (c *fakeClient) InTx(ctx context.Context, _ datasource.TxOptions, fn datasource.TxFunc) error {
	return fn(ctx, nil)
}

func (c *fakeClient) Close() error {
	c.closed.Store(true)
	return nil
}

// recordingFactory builds fakeClients and fails for the listed tenant codes.
type recordingFactory struct {
	mu    sync.Mutex
	built []string
	fail  map[string]bool
}

func (f *recordingFactory) NewClient(_ context.Context, d datasource.Descriptor) (datasource.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built = append(f.built, d.TenantCode)
	if f.fail[d.TenantCode] {
		return nil, errUnreachable
	}
	return &fakeClient{d: d}, nil
}

func (f *recordingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

// countingResolver wraps a StaticResolver and counts lookups.
type countingResolver struct {
	tenants tenant.StaticResolver
	calls   atomic.Int32
}

func (r *countingResolver) ResolveTenantConnections(ctx context.Context, id string) ([]datasource.Descriptor, error) {
	r.calls.Add(1)
	return r.tenants.ResolveTenantConnections(ctx, id)
}

func descriptors() []datasource.Descriptor {
	return []datasource.Descriptor{
		{Kind: datasource.MySQL, TenantCode: "A", TenantIdentifier: "acme", URL: "mysql://u:p@db-a:3306/a"},
		{Kind: datasource.Mongo, TenantCode: "B", TenantIdentifier: "acme", URL: "mongodb://db-b:27017/b"},
	}
}

func newPool(t *testing.T) *connpool.Pool {
	t.Helper()
	p := connpool.New(connpool.Config{
		MaxRetries:          1,
		HealthCheckInterval: time.Hour,
		MaxConnectionAge:    time.Hour,
		CleanupInterval:     time.Hour,
		RetryBaseDelay:      time.Millisecond,
		RetryMaxDelay:       time.Millisecond,
	})
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}
