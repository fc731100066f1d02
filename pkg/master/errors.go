package master

import "errors"

var (
	// ErrQueryFailed wraps failures talking to the master database.
	ErrQueryFailed = errors.New("master query failed")

	// ErrInvalidTenant is returned when a tenant row cannot be stored.
	ErrInvalidTenant = errors.New("invalid tenant record")
)
