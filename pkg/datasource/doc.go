// Package datasource defines the contracts shared by every part of the
// multi-tenant connectivity layer: the engine kind tag, the connection
// descriptor produced by tenant resolvers, the minimal capability set a
// database client must expose, transaction options and the error taxonomy.
//
// The package has no dependencies on concrete drivers. Engine specific
// clients live in their own packages (pg, mysql, mongo) and are selected
// through a Registry keyed by Kind.
//
// # Capability contract
//
// A Client must be able to connect, answer a cheap liveness probe and run a
// callback inside a transaction:
//
//	type Client interface {
//		Kind() Kind
//		Connect(ctx context.Context) error
//		Ping(ctx context.Context) error
//		InTx(ctx context.Context, opts TxOptions, fn TxFunc) error
//	}
//
// InTx commits when fn returns nil and rolls back otherwise, returning the
// original error. Disconnecting is optional and discovered at runtime by
// Release, which tries Disconnect(ctx) error, Close() error and Close() in
// that order.
//
// # Errors
//
// All components report failures as *Error values whose Kind is one of the
// sentinels (ErrConnection, ErrClientInitialization, ErrValidation,
// ErrDisposal, ErrConfiguration, ErrTenant). Use errors.Is to classify them
// and FieldsOf to read the structured diagnostic payload.
package datasource
