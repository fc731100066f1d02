// Package master reads tenant routing metadata from the master database.
//
// The master database is a Postgres database reached through its own pgx
// pool, outside the tenant connection pool. Each row of the tenants table
// maps a tenant code to the engine kind and URL of one database and to the
// tenant group (the identifier requests carry) it belongs to. Rows of a
// group are returned ordered by position, then tenant code; that order is
// the order tenant transactions are nested in.
//
// Store implements tenant.Resolver and tenant.GroupLister. Migrate creates
// the schema with the embedded goose migrations.
package master
