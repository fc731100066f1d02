package tenantcheck

import "errors"

var (
	// ErrTenantsInaccessible is returned by Startup under PolicyAbort when at
	// least one tenant database could not be reached.
	ErrTenantsInaccessible = errors.New("tenant databases are inaccessible")

	// ErrUnknownPolicy is returned when parsing an unsupported policy name.
	ErrUnknownPolicy = errors.New("unknown startup policy")
)
