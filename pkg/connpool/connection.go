package connpool

import (
	"context"
	"time"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// ConnectionOptions describes a connection to create.
type ConnectionOptions struct {
	Kind    datasource.Kind
	Name    string
	Factory func(ctx context.Context) (datasource.Client, error)
}

// Connection is a named, connected client owned by the pool.
type Connection struct {
	client datasource.Client
	name   string
	kind   datasource.Kind
}

// NewConnection wraps an already connected client. The pool builds its own
// connections; this is for callers assembling handles by hand.
func NewConnection(name string, kind datasource.Kind, client datasource.Client) *Connection {
	return &Connection{client: client, name: name, kind: kind}
}

func (c *Connection) Client() datasource.Client { return c.client }
func (c *Connection) Name() string              { return c.name }
func (c *Connection) Kind() datasource.Kind     { return c.kind }

// Info is a diagnostic view of a pooled connection.
type Info struct {
	Name      string          `json:"name"`
	Kind      datasource.Kind `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	Age       time.Duration   `json:"age"`
	Expired   bool            `json:"expired"`
}

type entry struct {
	conn      *Connection
	createdAt time.Time

	stopHealth chan struct{}
	stopped    bool
}

// stop ends the health loop. Callers hold the pool lock.
func (e *entry) stop() {
	if !e.stopped {
		e.stopped = true
		close(e.stopHealth)
	}
}
