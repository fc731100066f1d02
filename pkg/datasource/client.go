package datasource

import "context"

// TxFunc runs inside a transaction. The concrete type of tx depends on the
// engine kind: pgx.Tx for Postgres, *sql.Tx for MySQL and *mongo.Tx for Mongo.
type TxFunc func(ctx context.Context, tx any) error

// Client is the minimal capability set of a database client.
type Client interface {
	// Kind reports the engine kind the client talks to.
	Kind() Kind
	// Connect opens the underlying connection. It must be called before
	// any other method.
	Connect(ctx context.Context) error
	// Ping runs a trivial engine specific liveness probe.
	Ping(ctx context.Context) error
	// InTx runs fn inside a transaction. It commits when fn returns nil,
	// rolls back otherwise and returns fn's error unchanged.
	InTx(ctx context.Context, opts TxOptions, fn TxFunc) error
}

// Factory builds clients for descriptors. Returned clients are not connected.
type Factory interface {
	NewClient(ctx context.Context, d Descriptor) (Client, error)
}

// FactoryFunc is an adapter to allow the use of ordinary functions as Factory.
type FactoryFunc func(ctx context.Context, d Descriptor) (Client, error)

// NewClient calls the function.
func (f FactoryFunc) NewClient(ctx context.Context, d Descriptor) (Client, error) {
	return f(ctx, d)
}

type disconnecter interface {
	Disconnect(ctx context.Context) error
}

type closer interface {
	Close() error
}

type ender interface {
	Close()
}

// Release disconnects a client using whichever capability it has:
// Disconnect(ctx) error, Close() error or Close(). Clients with none of them
// are left alone.
func Release(ctx context.Context, client any) error {
	switch c := client.(type) {
	case nil:
		return nil
	case disconnecter:
		return c.Disconnect(ctx)
	case closer:
		return c.Close()
	case ender:
		c.Close()
	}
	return nil
}

// Open builds a client for d and connects it. A client that fails to
// connect is released before the error is returned.
func Open(ctx context.Context, factory Factory, d Descriptor) (Client, error) {
	if factory == nil {
		return nil, ConfigurationError("client factory is not configured", nil, Fields{"tenant_code": d.TenantCode})
	}

	client, err := factory.NewClient(ctx, d)
	if err != nil {
		return nil, ClientInitializationError("failed to build client for "+d.TenantCode, err, Fields{"descriptor": d})
	}
	if client == nil {
		return nil, ConfigurationError("client factory returned nil client", nil, Fields{"descriptor": d})
	}

	if err := client.Connect(ctx); err != nil {
		_ = Release(ctx, client)
		return nil, ConnectionError("failed to connect to "+d.TenantCode, err, Fields{"descriptor": d})
	}

	return client, nil
}
