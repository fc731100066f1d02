// Package engines wires every capability provider into one datasource.Registry.
package engines

import (
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/mongo"
	"github.com/dmitrymomot/tenantconn/pkg/mysql"
	"github.com/dmitrymomot/tenantconn/pkg/pg"
)

// Config groups the per-engine settings applied to tenant clients.
type Config struct {
	Postgres pg.Config
	MySQL    mysql.Config
	Mongo    mongo.Config
}

// Registry returns a factory that builds a client for any supported kind.
func Registry(cfg Config) *datasource.Registry {
	return datasource.NewRegistry().
		Register(datasource.Postgres, pg.Constructor(cfg.Postgres)).
		Register(datasource.MySQL, mysql.Constructor(cfg.MySQL)).
		Register(datasource.Mongo, mongo.Constructor(cfg.Mongo))
}
