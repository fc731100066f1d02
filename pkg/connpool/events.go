package connpool

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantconn/pkg/broadcast"
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// EventType names a pool lifecycle event.
type EventType string

const (
	EventConnectionCreated        EventType = "connection_created"
	EventConnectionRemoved        EventType = "connection_removed"
	EventConnectionCreationFailed EventType = "connection_creation_failed"
	EventHealthCheckFailed        EventType = "health_check_failed"
	EventConnectionError          EventType = "connection_error"
	EventServiceShutdown          EventType = "service_shutdown"
)

// Event is delivered to subscribers. Name and Kind are empty for
// service_shutdown.
type Event struct {
	ID   uuid.UUID
	Type EventType
	Name string
	Kind datasource.Kind
	Err  error
	At   time.Time
}

// Subscribe returns a subscriber that receives pool events until ctx is
// cancelled, the subscriber is closed or the pool shuts down. Delivery never
// blocks the pool: a subscriber that falls behind misses events.
func (p *Pool) Subscribe(ctx context.Context) broadcast.Subscriber[Event] {
	return p.events.Subscribe(ctx)
}

func (p *Pool) emit(typ EventType, name string, kind datasource.Kind, err error) {
	_ = p.events.Broadcast(p.ctx, broadcast.Message[Event]{Data: Event{
		ID:   uuid.New(),
		Type: typ,
		Name: name,
		Kind: kind,
		Err:  err,
		At:   p.clock.Now(),
	}})
}
