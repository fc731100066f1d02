package mysql

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// Client is the MySQL capability provider over database/sql. Transactions
// are handed to callbacks as *sql.Tx.
type Client struct {
	dsn *gomysql.Config
	cfg Config

	mu sync.RWMutex
	db *sql.DB
}

var _ datasource.Client = (*Client)(nil)

// NewClient parses url and returns an unconnected client.
func NewClient(url string, cfg Config) (*Client, error) {
	dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	if cfg.DialTimeout > 0 && dsn.Timeout == 0 {
		dsn.Timeout = cfg.DialTimeout
	}
	return &Client{dsn: dsn, cfg: cfg}, nil
}

// Constructor builds clients for MySQL descriptors with shared pool settings.
func Constructor(cfg Config) datasource.Constructor {
	return func(_ context.Context, d datasource.Descriptor) (datasource.Client, error) {
		return NewClient(d.URL, cfg)
	}
}

func (c *Client) Kind() datasource.Kind { return datasource.MySQL }

// Connect opens the pool and pings the server.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	connector, err := gomysql.NewConnector(c.dsn)
	if err != nil {
		return errors.Join(ErrFailedToConnect, err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(c.cfg.MaxOpenConns)
	db.SetMaxIdleConns(c.cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(c.cfg.MaxConnIdleTime)
	db.SetConnMaxLifetime(c.cfg.MaxConnLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Join(ErrFailedToConnect, err)
	}

	c.db = db
	return nil
}

// Ping runs SELECT 1.
func (c *Client) Ping(ctx context.Context) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	var one int
	return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// InTx begins a transaction, retrying only the begin step, and commits when
// fn returns nil. Any error from fn rolls the transaction back and is
// returned as is.
func (c *Client) InTx(ctx context.Context, opts datasource.TxOptions, fn datasource.TxFunc) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}

	ctx, cancel := opts.Context(ctx)
	defer cancel()

	var tx *sql.Tx
	err = opts.Begin(ctx, func(ctx context.Context) error {
		var beginErr error
		tx, beginErr = db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation(opts.IsolationLevel)})
		return beginErr
	})
	if err != nil {
		return err
	}
	defer func() {
		// Rollback after a successful commit returns sql.ErrTxDone and is ignored.
		_ = tx.Rollback()
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// DB exposes the pool for queries outside a transaction, or nil before Connect.
func (c *Client) DB() *sql.DB {
	db, _ := c.getDB()
	return db
}

// Close closes the pool. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close()
}

func (c *Client) getDB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, ErrNotConnected
	}
	return c.db, nil
}

func isolation(level datasource.IsolationLevel) sql.IsolationLevel {
	switch level {
	case datasource.LevelSerializable:
		return sql.LevelSerializable
	case datasource.LevelRepeatableRead:
		return sql.LevelRepeatableRead
	case datasource.LevelReadCommitted:
		return sql.LevelReadCommitted
	case datasource.LevelReadUncommitted:
		return sql.LevelReadUncommitted
	}
	return sql.LevelDefault
}
