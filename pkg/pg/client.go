package pg

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// Client is the Postgres capability provider. Transactions are handed to
// callbacks as pgx.Tx.
type Client struct {
	url string
	cfg Config

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

var _ datasource.Client = (*Client)(nil)

// NewClient returns an unconnected client for url using the pool settings in cfg.
func NewClient(url string, cfg Config) *Client {
	return &Client{url: url, cfg: cfg}
}

// Constructor builds clients for Postgres descriptors with shared pool settings.
func Constructor(cfg Config) datasource.Constructor {
	return func(_ context.Context, d datasource.Descriptor) (datasource.Client, error) {
		if d.URL == "" {
			return nil, ErrEmptyConnectionString
		}
		return NewClient(d.URL, cfg), nil
	}
}

func (c *Client) Kind() datasource.Kind { return datasource.Postgres }

// Connect opens the pgx pool. Calling it on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil {
		return nil
	}

	poolConfig, err := newPoolConfig(c.url, c.cfg)
	if err != nil {
		return err
	}
	pool, err := openPool(ctx, poolConfig)
	if err != nil {
		return errors.Join(ErrFailedToOpenDBConnection, err)
	}
	c.pool = pool
	return nil
}

// Ping runs SELECT 1.
func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.getPool()
	if err != nil {
		return err
	}
	var one int
	return pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// InTx begins a transaction, retrying only the begin step, and commits when
// fn returns nil. Any error from fn rolls the transaction back and is
// returned as is.
func (c *Client) InTx(ctx context.Context, opts datasource.TxOptions, fn datasource.TxFunc) error {
	pool, err := c.getPool()
	if err != nil {
		return err
	}
	return inTx(ctx, pool, opts, fn)
}

// beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func inTx(ctx context.Context, db beginner, opts datasource.TxOptions, fn datasource.TxFunc) error {
	ctx, cancel := opts.Context(ctx)
	defer cancel()

	var tx pgx.Tx
	err := opts.Begin(ctx, func(ctx context.Context) error {
		var beginErr error
		tx, beginErr = db.BeginTx(ctx, pgx.TxOptions{IsoLevel: isoLevel(opts.IsolationLevel)})
		return beginErr
	})
	if err != nil {
		return err
	}
	defer func() {
		// Rollback after a successful commit returns ErrTxClosed and is ignored.
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Pool exposes the underlying pool for queries outside a transaction.
func (c *Client) Pool() *pgxpool.Pool {
	pool, _ := c.getPool()
	return pool
}

// Close closes the pool. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	pool := c.pool
	c.pool = nil
	c.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}

func (c *Client) getPool() (*pgxpool.Pool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pool == nil {
		return nil, ErrNotConnected
	}
	return c.pool, nil
}

func isoLevel(level datasource.IsolationLevel) pgx.TxIsoLevel {
	switch level {
	case datasource.LevelSerializable:
		return pgx.Serializable
	case datasource.LevelRepeatableRead:
		return pgx.RepeatableRead
	case datasource.LevelReadCommitted:
		return pgx.ReadCommitted
	case datasource.LevelReadUncommitted:
		return pgx.ReadUncommitted
	}
	return ""
}
