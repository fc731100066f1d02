package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantconn/pkg/async"
	"github.com/dmitrymomot/tenantconn/pkg/connpool"
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
)

// Handle pairs a resolved descriptor with its pooled connection.
type Handle struct {
	Descriptor datasource.Descriptor
	Conn       *connpool.Connection
}

// Client returns the connected client behind the handle.
func (h *Handle) Client() datasource.Client {
	return h.Conn.Client()
}

// Aggregator turns a tenant identifier into pooled clients for every
// database that serves it. Pooled connections are named by tenant code.
type Aggregator struct {
	pool      *connpool.Pool
	resolver  Resolver
	factory   datasource.Factory
	extractor Extractor
	log       *slog.Logger
}

// NewAggregator creates an aggregator. The pool and factory are shared with
// the rest of the process; the aggregator never shuts them down.
func NewAggregator(pool *connpool.Pool, resolver Resolver, factory datasource.Factory, opts ...Option) *Aggregator {
	a := &Aggregator{
		pool:      pool,
		resolver:  resolver,
		factory:   factory,
		extractor: NewHeaderExtractor(DefaultHeader),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With(logger.Component("tenant"))
	return a
}

// Session starts a per-request session for identifier.
func (a *Aggregator) Session(identifier string) *Session {
	return &Session{ID: uuid.New(), agg: a, identifier: identifier}
}

// SessionFromRequest extracts the identifier with the configured Extractor.
// A request without an identifier is a tenant error wrapping ErrNoIdentifier.
func (a *Aggregator) SessionFromRequest(r *http.Request) (*Session, error) {
	identifier, err := a.extractor.Extract(r)
	if err != nil {
		return nil, datasource.TenantError("failed to extract tenant identifier", err, nil)
	}
	if identifier == "" {
		return nil, datasource.TenantError("tenant identifier is required", ErrNoIdentifier, nil)
	}
	return a.Session(identifier), nil
}

// connect makes sure a pooled connection exists for d and returns it.
func (a *Aggregator) connect(ctx context.Context, d datasource.Descriptor) (*Handle, error) {
	opts := connpool.ConnectionOptions{
		Kind: d.Kind,
		Name: d.TenantCode,
		Factory: func(ctx context.Context) (datasource.Client, error) {
			client, err := a.factory.NewClient(ctx, d)
			if err != nil {
				return nil, datasource.ClientInitializationError("failed to build client for "+d.TenantCode, err, datasource.Fields{"descriptor": d})
			}
			return client, nil
		},
	}
	if err := a.pool.CreateConnection(ctx, opts); err != nil {
		return nil, err
	}

	conn, err := a.pool.GetConnection(ctx, d.TenantCode)
	if err != nil {
		return nil, err
	}
	return &Handle{Descriptor: d, Conn: conn}, nil
}

// Session holds the clients of one tenant identifier for the lifetime of a
// request. It is safe for concurrent use.
type Session struct {
	ID uuid.UUID

	agg        *Aggregator
	identifier string

	mu      sync.Mutex
	handles []*Handle
}

// Identifier returns the tenant identifier the session was created for.
func (s *Session) Identifier() string {
	return s.identifier
}

// Clients resolves the identifier and returns one handle per descriptor, in
// resolver order. The first successful result is memoized.
func (s *Session) Clients(ctx context.Context) ([]*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handles != nil {
		return slices.Clone(s.handles), nil
	}

	handles, err := s.agg.clients(ctx, s.identifier)
	if err != nil {
		return nil, err
	}
	s.handles = handles
	return slices.Clone(handles), nil
}

// ClientByCode returns the session's handle for one tenant code.
func (s *Session) ClientByCode(ctx context.Context, code string) (*Handle, error) {
	handles, err := s.Clients(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range handles {
		if h.Descriptor.TenantCode == code {
			return h, nil
		}
	}
	return nil, datasource.TenantError(
		fmt.Sprintf("no client with code %q for %s", code, s.identifier),
		ErrClientNotFound,
		datasource.Fields{"tenant_code": code, "tenant_identifier": s.identifier},
	)
}

// ClientsByIdentifier resolves a different identifier without touching the
// session's memoized handles.
func (s *Session) ClientsByIdentifier(ctx context.Context, identifier string) ([]*Handle, error) {
	if identifier == s.identifier {
		return s.Clients(ctx)
	}
	return s.agg.clients(ctx, identifier)
}

func (a *Aggregator) clients(ctx context.Context, identifier string) ([]*Handle, error) {
	if identifier == "" {
		return nil, datasource.TenantError("tenant identifier is required", ErrNoIdentifier, nil)
	}

	descriptors, err := a.resolver.ResolveTenantConnections(ctx, identifier)
	if err != nil {
		return nil, datasource.TenantError(
			"failed to resolve connections for "+identifier,
			err,
			datasource.Fields{"tenant_identifier": identifier},
		)
	}
	if len(descriptors) == 0 {
		return nil, datasource.TenantError(
			"no connections for "+identifier,
			ErrNoConnections,
			datasource.Fields{"tenant_identifier": identifier},
		)
	}

	futures := make([]*async.Future[*Handle], len(descriptors))
	for i, d := range descriptors {
		futures[i] = async.Async(ctx, d, a.connect)
	}

	handles, err := async.WaitAll(ctx, futures...)
	if err != nil {
		a.log.ErrorContext(ctx, "failed to connect tenant databases", logger.TenantGroup(identifier), logger.Error(err))
		return nil, err
	}

	a.log.DebugContext(ctx, "tenant clients ready", logger.TenantGroup(identifier), slog.Int("count", len(handles)))
	return handles, nil
}
