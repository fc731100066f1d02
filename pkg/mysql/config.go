package mysql

import "time"

// Config holds database/sql pool settings shared by every tenant client.
type Config struct {
	MaxOpenConns    int           `env:"MYSQL_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the maximum number of open connections to the database.
	MaxIdleConns    int           `env:"MYSQL_MAX_IDLE_CONNS" envDefault:"2"`       // MaxIdleConns is the maximum number of idle connections kept in the pool.
	MaxConnIdleTime time.Duration `env:"MYSQL_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum amount of time a connection may be idle to be reused.
	MaxConnLifetime time.Duration `env:"MYSQL_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum amount of time a connection may be reused.
	DialTimeout     time.Duration `env:"MYSQL_DIAL_TIMEOUT" envDefault:"10s"`       // DialTimeout bounds establishing a single connection.
}
