package connpool

import "sync/atomic"

// Metrics is a snapshot of the pool counters.
type Metrics struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
	FailedConnections int64 `json:"failed_connections"`
	ConnectionErrors  int64 `json:"connection_errors"`
}

type counters struct {
	total  atomic.Int64
	active atomic.Int64
	failed atomic.Int64
	errors atomic.Int64
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		TotalConnections:  c.total.Load(),
		ActiveConnections: c.active.Load(),
		FailedConnections: c.failed.Load(),
		ConnectionErrors:  c.errors.Load(),
	}
}
