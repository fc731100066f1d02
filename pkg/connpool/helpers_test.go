package connpool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/broadcast"
	"github.com/dmitrymomot/tenantconn/pkg/connpool"
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

var errRefused = errors.New("connection refused")

type fakeClient struct {
	kind     datasource.Kind
	closeErr error

	mu      sync.Mutex
	pingErr error
	closed  atomic.Bool
}

func (c *fakeClient) Kind() datasource.Kind { return c.kind }

func (c *fakeClient) Connect(context.Context) error { return nil }

func (c *fakeClient) Ping(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pingErr
}

func (c *fakeClient) InTx(ctx context.Context, _ datasource.TxOptions, fn datasource.TxFunc) error {
	return fn(ctx, nil)
}

func (c *fakeClient) Close() error {
	c.closed.Store(true)
	return c.closeErr
}

func (c *fakeClient) failPings(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingErr = err
}

// factory hands out fakeClients and records every call.
type factory struct {
	calls   atomic.Int32
	delay   time.Duration
	fail    func(call int32) error
	mu      sync.Mutex
	clients []*fakeClient
}

func (f *factory) create(ctx context.Context) (datasource.Client, error) {
	call := f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail != nil {
		if err := f.fail(call); err != nil {
			return nil, err
		}
	}
	c := &fakeClient{kind: datasource.MySQL}
	f.mu.Lock()
	f.clients = append(f.clients, c)
	f.mu.Unlock()
	return c, nil
}

func (f *factory) client(i int) *fakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients[i]
}

func (f *factory) options(name string) connpool.ConnectionOptions {
	return connpool.ConnectionOptions{Kind: datasource.MySQL, Name: name, Factory: f.create}
}

func fastConfig() connpool.Config {
	return connpool.Config{
		MaxRetries:          3,
		HealthCheckInterval: time.Hour,
		MaxConnectionAge:    time.Hour,
		CleanupInterval:     time.Hour,
		RetryBaseDelay:      time.Millisecond,
		RetryMaxDelay:       2 * time.Millisecond,
	}
}

func newPool(t *testing.T, cfg connpool.Config, opts ...connpool.Option) *connpool.Pool {
	t.Helper()
	p := connpool.New(cfg, opts...)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

// waitEvent reads events until one of type typ arrives.
func waitEvent(t *testing.T, sub broadcast.Subscriber[connpool.Event], typ connpool.EventType) connpool.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-sub.Receive(context.Background()):
			require.True(t, ok, "subscriber closed while waiting for %s", typ)
			if msg.Data.Type == typ {
				return msg.Data
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", typ)
			return connpool.Event{}
		}
	}
}
