package connpool

import "errors"

var (
	ErrShuttingDown       = errors.New("connection pool is shutting down")
	ErrConnectionNotFound = errors.New("connection not found")
)
