package connpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/juju/clock"

	"github.com/dmitrymomot/tenantconn/pkg/async"
	"github.com/dmitrymomot/tenantconn/pkg/broadcast"
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
)

// Pool keeps one connected client per name. Creation is single-flight and
// retried; live connections are health checked and evicted once older than
// MaxConnectionAge.
type Pool struct {
	cfg         Config
	log         *slog.Logger
	clock       clock.Clock
	eventBuffer int
	events      *broadcast.MemoryBroadcaster[Event]
	metrics     counters

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*async.Future[*Connection]

	closing      atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	stop         chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates a pool and starts its cleanup sweep.
func New(cfg Config, opts ...Option) *Pool {
	p := &Pool{
		cfg:         cfg.withDefaults(),
		log:         slog.Default(),
		clock:       clock.WallClock,
		eventBuffer: 64,
		entries:     make(map[string]*entry),
		inflight:    make(map[string]*async.Future[*Connection]),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(logger.Component("connpool"))
	p.events = broadcast.NewMemoryBroadcaster[Event](p.eventBuffer)
	p.ctx, p.cancel = context.WithCancel(context.Background())

	timer := p.clock.NewTimer(p.cfg.CleanupInterval)
	p.wg.Add(1)
	go p.cleanupLoop(timer)

	return p
}

// CreateConnection makes sure a live connection named opts.Name exists.
// Concurrent calls for the same name share one creation. The creation is
// not tied to ctx; ctx only bounds how long this call waits for it.
func (p *Pool) CreateConnection(ctx context.Context, opts ConnectionOptions) error {
	if opts.Name == "" || opts.Factory == nil {
		return datasource.ConfigurationError("connection name and factory are required", nil, datasource.Fields{"name": opts.Name, "kind": opts.Kind})
	}

	f, err := p.acquire(opts)
	if err != nil {
		return err
	}
	if f == nil {
		return nil
	}
	_, err = f.Await(ctx)
	return err
}

// GetConnection returns the live connection for name, waiting for an
// in-flight creation if there is one.
func (p *Pool) GetConnection(ctx context.Context, name string) (*Connection, error) {
	if p.closing.Load() {
		return nil, shuttingDownError(name)
	}

	p.mu.Lock()
	e, ok := p.entries[name]
	if ok && !p.expired(e) {
		p.mu.Unlock()
		return e.conn, nil
	}
	f, inflight := p.inflight[name]
	p.mu.Unlock()

	if inflight {
		return f.Await(ctx)
	}
	return nil, datasource.ConnectionError(fmt.Sprintf("connection %q not found", name), ErrConnectionNotFound, datasource.Fields{"name": name})
}

// HasConnection reports whether a live, non-expired connection exists.
func (p *Pool) HasConnection(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[name]
	return ok && !p.expired(e)
}

// RemoveConnection disconnects and forgets the named connection. Missing
// names are ignored. A failed disconnect is reported as a connection_error
// event; the connection is removed regardless.
func (p *Pool) RemoveConnection(ctx context.Context, name string) {
	p.mu.Lock()
	e, ok := p.entries[name]
	if ok {
		delete(p.entries, name)
		e.stop()
	}
	p.mu.Unlock()

	if ok {
		p.dispose(ctx, e)
	}
}

// ConnectionInfo describes the named connection.
func (p *Pool) ConnectionInfo(name string) (Info, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[name]
	if !ok {
		return Info{}, false
	}
	return p.info(e), true
}

// ConnectionsInfo describes every registered connection, sorted by name.
func (p *Pool) ConnectionsInfo() []Info {
	p.mu.Lock()
	infos := make([]Info, 0, len(p.entries))
	for _, e := range p.entries {
		infos = append(infos, p.info(e))
	}
	p.mu.Unlock()

	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return infos
}

// Metrics returns a snapshot of the pool counters.
func (p *Pool) Metrics() Metrics {
	return p.metrics.snapshot()
}

// Shutdown stops background work, disconnects every connection, emits
// service_shutdown and closes all subscribers. Calls after the first return nil.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.closing.Store(true)
		p.mu.Unlock()

		p.log.InfoContext(ctx, "shutting down connection pool")
		p.cancel()
		close(p.stop)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}

		p.mu.Lock()
		remaining := make([]*entry, 0, len(p.entries))
		for name, e := range p.entries {
			delete(p.entries, name)
			e.stop()
			remaining = append(remaining, e)
		}
		p.mu.Unlock()

		for _, e := range remaining {
			p.dispose(ctx, e)
		}

		p.emit(EventServiceShutdown, "", "", nil)
		_ = p.events.Close()
		p.log.InfoContext(ctx, "connection pool shut down", slog.Any("metrics", p.metrics.snapshot()))
	})
	return err
}

// acquire returns nil when a live connection exists, otherwise the future
// of the creation for opts.Name, starting one if needed.
func (p *Pool) acquire(opts ConnectionOptions) (*async.Future[*Connection], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closing.Load() {
		return nil, shuttingDownError(opts.Name)
	}

	var stale *entry
	if e, ok := p.entries[opts.Name]; ok {
		if !p.expired(e) {
			return nil, nil
		}
		delete(p.entries, opts.Name)
		e.stop()
		stale = e
	}

	if f, ok := p.inflight[opts.Name]; ok {
		return f, nil
	}

	f := async.NewFuture[*Connection]()
	p.inflight[opts.Name] = f
	p.wg.Add(1)
	go p.initialize(opts, f, stale)
	return f, nil
}

func (p *Pool) initialize(opts ConnectionOptions, f *async.Future[*Connection], stale *entry) {
	defer p.wg.Done()

	if stale != nil {
		p.dispose(p.ctx, stale)
	}

	client, err := p.createWithRetry(p.ctx, opts)
	if err != nil {
		p.mu.Lock()
		delete(p.inflight, opts.Name)
		p.mu.Unlock()

		p.emit(EventConnectionCreationFailed, opts.Name, opts.Kind, err)
		f.Complete(nil, err)
		return
	}

	e := &entry{
		conn:       NewConnection(opts.Name, opts.Kind, client),
		createdAt:  p.clock.Now(),
		stopHealth: make(chan struct{}),
	}
	timer := p.clock.NewTimer(p.cfg.HealthCheckInterval)

	p.mu.Lock()
	delete(p.inflight, opts.Name)
	if p.closing.Load() {
		p.mu.Unlock()
		timer.Stop()
		if err := datasource.Release(context.WithoutCancel(p.ctx), client); err != nil {
			p.log.Warn("failed to release connection created during shutdown", logger.Connection(opts.Name), logger.Error(err))
		}
		f.Complete(nil, shuttingDownError(opts.Name))
		return
	}
	p.entries[opts.Name] = e
	p.wg.Add(1)
	p.mu.Unlock()

	go p.healthLoop(e, timer)

	p.metrics.total.Add(1)
	p.metrics.active.Add(1)
	p.log.Info("connection created", logger.Connection(opts.Name), logger.Kind(opts.Kind))
	p.emit(EventConnectionCreated, opts.Name, opts.Kind, nil)
	f.Complete(e.conn, nil)
}

func (p *Pool) createWithRetry(ctx context.Context, opts ConnectionOptions) (datasource.Client, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		client, err := p.open(ctx, opts)
		if err == nil {
			return client, nil
		}
		lastErr = err

		p.metrics.failed.Add(1)
		p.metrics.errors.Add(1)
		p.log.Warn("failed to create connection",
			logger.Connection(opts.Name),
			logger.Kind(opts.Kind),
			logger.Attempt(attempt, p.cfg.MaxRetries),
			logger.Error(err),
		)
		p.emit(EventConnectionError, opts.Name, opts.Kind, datasource.ConnectionError(
			fmt.Sprintf("failed to create connection for %s on attempt %d", opts.Name, attempt),
			err,
			datasource.Fields{"name": opts.Name, "attempt": attempt},
		))

		if attempt == p.cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, datasource.ConnectionError(
				fmt.Sprintf("creation of %s interrupted", opts.Name),
				ctx.Err(),
				datasource.Fields{"name": opts.Name, "attempt": attempt},
			)
		case <-p.clock.After(p.cfg.backoff(attempt)):
		}
	}

	return nil, datasource.ConnectionError(
		fmt.Sprintf("failed to create connection for %s after %d attempts", opts.Name, p.cfg.MaxRetries),
		lastErr,
		datasource.Fields{"name": opts.Name, "kind": opts.Kind, "attempts": p.cfg.MaxRetries},
	)
}

// open runs the factory and connects the client, releasing it when Connect fails.
func (p *Pool) open(ctx context.Context, opts ConnectionOptions) (datasource.Client, error) {
	client, err := opts.Factory(ctx)
	if err != nil {
		if errors.Is(err, datasource.ErrClientInitialization) {
			return nil, err
		}
		return nil, datasource.ClientInitializationError("failed to build client for "+opts.Name, err, datasource.Fields{"name": opts.Name, "kind": opts.Kind})
	}
	if client == nil {
		return nil, datasource.ClientInitializationError("factory returned nil client", nil, datasource.Fields{"name": opts.Name})
	}
	if err := client.Connect(ctx); err != nil {
		_ = datasource.Release(context.WithoutCancel(ctx), client)
		return nil, err
	}
	return client, nil
}

// dispose releases a connection already detached from the pool.
func (p *Pool) dispose(ctx context.Context, e *entry) {
	name, kind := e.conn.name, e.conn.kind
	p.metrics.active.Add(-1)

	if err := datasource.Release(ctx, e.conn.client); err != nil {
		p.metrics.errors.Add(1)
		derr := datasource.DisposalError(
			fmt.Sprintf("failed to disconnect %s", name),
			err,
			datasource.Fields{"name": name, "kind": kind},
		)
		p.log.WarnContext(ctx, "failed to disconnect connection", logger.Connection(name), logger.Error(err))
		p.emit(EventConnectionError, name, kind, derr)
	}

	p.log.InfoContext(ctx, "connection removed", logger.Connection(name), logger.Kind(kind))
	p.emit(EventConnectionRemoved, name, kind, nil)
}

// detach removes e if it is still the registered entry for its name.
func (p *Pool) detach(e *entry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.entries[e.conn.name] != e {
		return false
	}
	delete(p.entries, e.conn.name)
	e.stop()
	return true
}

func (p *Pool) healthLoop(e *entry, timer clock.Timer) {
	defer p.wg.Done()
	defer timer.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-e.stopHealth:
			return
		case <-timer.Chan():
		}

		ctx, cancel := context.WithTimeout(p.ctx, p.cfg.HealthCheckInterval)
		err := e.conn.client.Ping(ctx)
		cancel()

		if err == nil {
			timer.Reset(p.cfg.HealthCheckInterval)
			continue
		}

		if p.closing.Load() {
			return
		}

		p.metrics.errors.Add(1)
		p.log.Warn("health check failed", logger.Connection(e.conn.name), logger.Kind(e.conn.kind), logger.Error(err))
		p.emit(EventHealthCheckFailed, e.conn.name, e.conn.kind, err)
		p.emit(EventConnectionError, e.conn.name, e.conn.kind, datasource.ValidationError(
			fmt.Sprintf("health check failed for %s", e.conn.name),
			err,
			datasource.Fields{"name": e.conn.name},
		))

		if p.detach(e) {
			p.dispose(p.ctx, e)
		}
		return
	}
}

func (p *Pool) cleanupLoop(timer clock.Timer) {
	defer p.wg.Done()
	defer timer.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-timer.Chan():
		}

		p.sweep()
		p.log.Debug("connection pool metrics", slog.Any("metrics", p.metrics.snapshot()))
		timer.Reset(p.cfg.CleanupInterval)
	}
}

// sweep removes every expired connection.
func (p *Pool) sweep() {
	p.mu.Lock()
	var expired []*entry
	for name, e := range p.entries {
		if p.expired(e) {
			delete(p.entries, name)
			e.stop()
			expired = append(expired, e)
		}
	}
	p.mu.Unlock()

	for _, e := range expired {
		p.log.Info("removing expired connection", logger.Connection(e.conn.name), logger.Duration(p.clock.Now().Sub(e.createdAt)))
		p.dispose(p.ctx, e)
	}
}

func (p *Pool) expired(e *entry) bool {
	return p.clock.Now().Sub(e.createdAt) > p.cfg.MaxConnectionAge
}

func (p *Pool) info(e *entry) Info {
	age := p.clock.Now().Sub(e.createdAt)
	return Info{
		Name:      e.conn.name,
		Kind:      e.conn.kind,
		CreatedAt: e.createdAt,
		Age:       age,
		Expired:   age > p.cfg.MaxConnectionAge,
	}
}

func shuttingDownError(name string) error {
	return datasource.ConnectionError("connection pool is shutting down", ErrShuttingDown, datasource.Fields{"name": name})
}
