package mongo

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// Client is the MongoDB capability provider. The database is taken from the
// path of the connection URL.
type Client struct {
	url      string
	database string
	cfg      Config

	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database
}

var _ datasource.Client = (*Client)(nil)

// NewClient validates url and returns an unconnected client.
func NewClient(url string, cfg Config) (*Client, error) {
	cs, err := connstring.ParseAndValidate(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if cs.Database == "" {
		return nil, ErrNoDatabase
	}
	return &Client{url: url, database: cs.Database, cfg: cfg}, nil
}

// Constructor builds clients for Mongo descriptors with shared driver settings.
func Constructor(cfg Config) datasource.Constructor {
	return func(_ context.Context, d datasource.Descriptor) (datasource.Client, error) {
		return NewClient(d.URL, cfg)
	}
}

func (c *Client) Kind() datasource.Kind { return datasource.Mongo }

// Connect creates the driver client and pings the database.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	opts := options.Client().
		ApplyURI(c.url).
		SetRetryWrites(c.cfg.RetryWrites).
		SetRetryReads(c.cfg.RetryReads)
	if c.cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(c.cfg.ConnectTimeout)
	}
	if c.cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(c.cfg.MaxPoolSize)
	}
	if c.cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(c.cfg.MinPoolSize)
	}
	if c.cfg.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(c.cfg.MaxConnIdleTime)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return errors.Join(ErrFailedToConnectToMongo, err)
	}
	db := client.Database(c.database)
	if err := ping(ctx, db); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return errors.Join(ErrFailedToConnectToMongo, err)
	}

	c.client = client
	c.db = db
	return nil
}

// Ping runs the ping command against the tenant database.
func (c *Client) Ping(ctx context.Context) error {
	_, db, err := c.handles()
	if err != nil {
		return err
	}
	return ping(ctx, db)
}

// InTx runs fn inside a multi-document transaction. fn receives a *Tx whose
// context carries the session; operations must use it to take part in the
// transaction. The callback runs at most once. Isolation levels do not apply
// to MongoDB and are ignored.
func (c *Client) InTx(ctx context.Context, opts datasource.TxOptions, fn datasource.TxFunc) error {
	client, db, err := c.handles()
	if err != nil {
		return err
	}
	return inTx(ctx, driverSessions(client), db, opts, fn)
}

// txSession is the part of *mongo.Session a transaction scope needs.
type txSession interface {
	begin() error
	commit(ctx context.Context) error
	abort(ctx context.Context) error
	end(ctx context.Context)
}

// sessionStarter opens a session and returns it with its bound context.
type sessionStarter func(ctx context.Context) (txSession, context.Context, error)

type driverSession struct{ s *mongo.Session }

func (d driverSession) begin() error                     { return d.s.StartTransaction() }
func (d driverSession) commit(ctx context.Context) error { return d.s.CommitTransaction(ctx) }
func (d driverSession) abort(ctx context.Context) error  { return d.s.AbortTransaction(ctx) }
func (d driverSession) end(ctx context.Context)          { d.s.EndSession(ctx) }

func driverSessions(client *mongo.Client) sessionStarter {
	return func(ctx context.Context) (txSession, context.Context, error) {
		s, err := client.StartSession()
		if err != nil {
			return nil, nil, err
		}
		return driverSession{s: s}, mongo.NewSessionContext(ctx, s), nil
	}
}

func inTx(ctx context.Context, start sessionStarter, db *mongo.Database, opts datasource.TxOptions, fn datasource.TxFunc) error {
	ctx, cancel := opts.Context(ctx)
	defer cancel()

	var (
		session txSession
		sessCtx context.Context
	)
	err := opts.Begin(ctx, func(ctx context.Context) error {
		s, sctx, err := start(ctx)
		if err != nil {
			return err
		}
		if err := s.begin(); err != nil {
			s.end(context.WithoutCancel(ctx))
			return err
		}
		session, sessCtx = s, sctx
		return nil
	})
	if err != nil {
		return err
	}
	defer session.end(context.WithoutCancel(ctx))

	committed := false
	defer func() {
		if !committed {
			_ = session.abort(context.WithoutCancel(ctx))
		}
	}()

	tx := &Tx{ctx: sessCtx, db: db}
	if err := fn(tx.ctx, tx); err != nil {
		return err
	}
	committed = true
	return session.commit(sessCtx)
}

// Database returns the tenant database, or nil before Connect.
func (c *Client) Database() *mongo.Database {
	_, db, _ := c.handles()
	return db
}

// Disconnect closes the driver client. It is safe to call more than once.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client, c.db = nil, nil
	c.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func (c *Client) handles() (*mongo.Client, *mongo.Database, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.client == nil {
		return nil, nil, ErrNotConnected
	}
	return c.client, c.db, nil
}

func ping(ctx context.Context, db *mongo.Database) error {
	return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// Tx is the transaction handle passed to InTx callbacks.
type Tx struct {
	ctx context.Context
	db  *mongo.Database
}

// Context returns the session-bound context. Pass it to every operation
// that belongs to the transaction.
func (t *Tx) Context() context.Context { return t.ctx }

// Database returns the tenant database.
func (t *Tx) Database() *mongo.Database { return t.db }

// Collection is shorthand for Database().Collection(name).
func (t *Tx) Collection(name string) *mongo.Collection { return t.db.Collection(name) }
