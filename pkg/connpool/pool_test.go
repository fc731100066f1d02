package connpool_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/connpool"
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

func TestCreateConnection_SingleFlight(t *testing.T) {
	t.Parallel()

	f := &factory{delay: 20 * time.Millisecond}
	p := newPool(t, fastConfig())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	assert.True(t, p.HasConnection("acme"))

	conn, err := p.GetConnection(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", conn.Name())
	assert.Equal(t, datasource.MySQL, conn.Kind())
	assert.Same(t, f.client(0), conn.Client())

	m := p.Metrics()
	assert.Equal(t, int64(1), m.TotalConnections)
	assert.Equal(t, int64(1), m.ActiveConnections)

	// A live connection is not created again.
	require.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestCreateConnection_RetryExhaustion(t *testing.T) {
	t.Parallel()

	f := &factory{fail: func(int32) error { return errRefused }}
	p := newPool(t, fastConfig())
	sub := p.Subscribe(context.Background())

	err := p.CreateConnection(context.Background(), f.options("acme"))
	require.Error(t, err)
	assert.ErrorIs(t, err, datasource.ErrConnection)
	assert.ErrorIs(t, err, errRefused)
	assert.ErrorIs(t, err, datasource.ErrClientInitialization)
	assert.Equal(t, 3, datasource.FieldsOf(err)["attempts"])

	assert.Equal(t, int32(3), f.calls.Load())
	assert.False(t, p.HasConnection("acme"))
	assert.Empty(t, p.ConnectionsInfo())

	m := p.Metrics()
	assert.Equal(t, int64(3), m.FailedConnections)
	assert.Equal(t, int64(3), m.ConnectionErrors)
	assert.Zero(t, m.TotalConnections)

	for range 3 {
		ev := waitEvent(t, sub, connpool.EventConnectionError)
		assert.ErrorIs(t, ev.Err, datasource.ErrConnection)
	}
	ev := waitEvent(t, sub, connpool.EventConnectionCreationFailed)
	assert.Equal(t, "acme", ev.Name)
	assert.NotEqual(t, uuid.Nil, ev.ID)
}

func TestCreateConnection_SucceedsWithinRetries(t *testing.T) {
	t.Parallel()

	f := &factory{fail: func(call int32) error {
		if call < 3 {
			return errRefused
		}
		return nil
	}}

	t.Run("third attempt allowed", func(t *testing.T) {
		t.Parallel()

		p := newPool(t, fastConfig())
		require.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))
		assert.True(t, p.HasConnection("acme"))
	})

	t.Run("two attempts are not enough", func(t *testing.T) {
		t.Parallel()

		g := &factory{fail: f.fail}
		cfg := fastConfig()
		cfg.MaxRetries = 2
		p := newPool(t, cfg)

		err := p.CreateConnection(context.Background(), g.options("acme"))
		assert.ErrorIs(t, err, datasource.ErrConnection)
		assert.Equal(t, int32(2), g.calls.Load())
		assert.False(t, p.HasConnection("acme"))
	})
}

func TestCreateConnection_Validation(t *testing.T) {
	t.Parallel()

	p := newPool(t, fastConfig())
	err := p.CreateConnection(context.Background(), connpool.ConnectionOptions{Name: "acme"})
	assert.ErrorIs(t, err, datasource.ErrConfiguration)
}

func TestCreateConnection_CallerCancellationDoesNotAbortCreation(t *testing.T) {
	t.Parallel()

	f := &factory{delay: 50 * time.Millisecond}
	p := newPool(t, fastConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := p.CreateConnection(ctx, f.options("acme"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	conn, err := p.GetConnection(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", conn.Name())
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestGetConnection_NotFound(t *testing.T) {
	t.Parallel()

	p := newPool(t, fastConfig())
	_, err := p.GetConnection(context.Background(), "missing")
	assert.ErrorIs(t, err, datasource.ErrConnection)
	assert.ErrorIs(t, err, connpool.ErrConnectionNotFound)
}

func TestRemoveConnection(t *testing.T) {
	t.Parallel()

	t.Run("disconnects and emits events", func(t *testing.T) {
		t.Parallel()

		f := &factory{}
		p := newPool(t, fastConfig())
		sub := p.Subscribe(context.Background())

		require.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))
		created := waitEvent(t, sub, connpool.EventConnectionCreated)
		assert.Equal(t, "acme", created.Name)
		assert.Equal(t, datasource.MySQL, created.Kind)

		p.RemoveConnection(context.Background(), "acme")
		removed := waitEvent(t, sub, connpool.EventConnectionRemoved)
		assert.Equal(t, "acme", removed.Name)

		assert.True(t, f.client(0).closed.Load())
		assert.False(t, p.HasConnection("acme"))
		assert.Zero(t, p.Metrics().ActiveConnections)

		// Removing again is a no-op.
		p.RemoveConnection(context.Background(), "acme")
	})

	t.Run("failed disconnect still removes the entry", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("close failed")
		p := newPool(t, fastConfig())
		sub := p.Subscribe(context.Background())
		client := &fakeClient{kind: datasource.Mongo, closeErr: boom}

		require.NoError(t, p.CreateConnection(context.Background(), connpool.ConnectionOptions{
			Kind: datasource.Mongo,
			Name: "broken",
			Factory: func(context.Context) (datasource.Client, error) {
				return client, nil
			},
		}))

		p.RemoveConnection(context.Background(), "broken")

		ev := waitEvent(t, sub, connpool.EventConnectionError)
		assert.ErrorIs(t, ev.Err, datasource.ErrDisposal)
		assert.ErrorIs(t, ev.Err, boom)
		waitEvent(t, sub, connpool.EventConnectionRemoved)

		assert.False(t, p.HasConnection("broken"))
		_, ok := p.ConnectionInfo("broken")
		assert.False(t, ok)
	})
}

func TestHealthCheckEviction(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.HealthCheckInterval = 10 * time.Millisecond
	f := &factory{}
	p := newPool(t, cfg)
	sub := p.Subscribe(context.Background())

	require.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))
	first := f.client(0)
	first.failPings(errRefused)

	ev := waitEvent(t, sub, connpool.EventHealthCheckFailed)
	assert.ErrorIs(t, ev.Err, errRefused)
	ev = waitEvent(t, sub, connpool.EventConnectionError)
	assert.ErrorIs(t, ev.Err, datasource.ErrValidation)
	waitEvent(t, sub, connpool.EventConnectionRemoved)

	assert.False(t, p.HasConnection("acme"))
	assert.True(t, first.closed.Load())

	// The next request creates a fresh connection.
	require.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))
	assert.Equal(t, int32(2), f.calls.Load())
	conn, err := p.GetConnection(context.Background(), "acme")
	require.NoError(t, err)
	assert.Same(t, f.client(1), conn.Client())
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	clk := testclock.NewClock(time.Now())
	cfg := connpool.Config{
		MaxRetries:          1,
		HealthCheckInterval: 15 * time.Second,
		MaxConnectionAge:    time.Hour,
		CleanupInterval:     time.Minute,
	}
	f := &factory{}
	p := newPool(t, cfg, connpool.WithClock(clk))

	require.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))

	info, ok := p.ConnectionInfo("acme")
	require.True(t, ok)
	assert.Equal(t, clk.Now(), info.CreatedAt)
	assert.False(t, info.Expired)

	clk.Advance(time.Hour + time.Second)

	assert.False(t, p.HasConnection("acme"))
	_, err := p.GetConnection(context.Background(), "acme")
	assert.ErrorIs(t, err, connpool.ErrConnectionNotFound)

	require.Eventually(t, func() bool {
		_, registered := p.ConnectionInfo("acme")
		return !registered && f.client(0).closed.Load()
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, p.CreateConnection(context.Background(), f.options("acme")))
	assert.Equal(t, int32(2), f.calls.Load())
	assert.True(t, p.HasConnection("acme"))
}

func TestConnectionsInfo(t *testing.T) {
	t.Parallel()

	f := &factory{}
	p := newPool(t, fastConfig())

	for _, name := range []string{"b", "c", "a"} {
		require.NoError(t, p.CreateConnection(context.Background(), f.options(name)))
	}

	infos := p.ConnectionsInfo()
	require.Len(t, infos, 3)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "b", infos[1].Name)
	assert.Equal(t, "c", infos[2].Name)
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	f := &factory{}
	p := connpool.New(fastConfig())
	sub := p.Subscribe(context.Background())

	require.NoError(t, p.CreateConnection(context.Background(), f.options("a")))
	require.NoError(t, p.CreateConnection(context.Background(), f.options("b")))

	require.NoError(t, p.Shutdown(context.Background()))

	assert.True(t, f.client(0).closed.Load())
	assert.True(t, f.client(1).closed.Load())
	assert.Empty(t, p.ConnectionsInfo())
	assert.Zero(t, p.Metrics().ActiveConnections)

	waitEvent(t, sub, connpool.EventServiceShutdown)
	_, open := <-sub.Receive(context.Background())
	assert.False(t, open)

	err := p.CreateConnection(context.Background(), f.options("c"))
	assert.ErrorIs(t, err, connpool.ErrShuttingDown)
	_, err = p.GetConnection(context.Background(), "a")
	assert.ErrorIs(t, err, connpool.ErrShuttingDown)

	require.NoError(t, p.Shutdown(context.Background()))
}
