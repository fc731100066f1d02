// Package tenant maps requests to the databases of their tenant.
//
// A tenant is addressed by an identifier (the tenant group code) carried by
// the request. An Extractor pulls the identifier out of the request, a
// Resolver turns it into datasource descriptors, and the Aggregator makes
// sure the connection pool holds one connection per descriptor, named by the
// descriptor's tenant code.
//
// # Usage
//
//	agg := tenant.NewAggregator(pool, resolver, engines.Registry(cfg),
//		tenant.WithExtractor(tenant.NewCompositeExtractor(
//			tenant.NewHeaderExtractor(""),
//			tenant.NewSubdomainExtractor(".example.com"),
//		)),
//	)
//
//	mux.Handle("/", tenant.Middleware(agg, tenant.WithSkipPaths("/health"))(app))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		session := tenant.MustSessionFromContext(r.Context())
//		handles, err := session.Clients(r.Context())
//		...
//	}
//
// Session.Clients resolves once per session and keeps the resolver's order.
// Connections are created in parallel; a failure for any descriptor fails
// the whole call.
//
// # Caching
//
// Resolvers that hit a metadata store can be wrapped in a CachedResolver
// backed by NewInMemoryCache or NewRedisCache. Cache failures behave like
// misses.
//
// # Errors
//
// Failures are *datasource.Error values of kind datasource.ErrTenant wrapping
// ErrNoIdentifier, ErrNoConnections or ErrClientNotFound; connection failures
// come from the pool unchanged. DefaultErrorHandler maps them to HTTP status
// codes.
package tenant
