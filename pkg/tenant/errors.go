package tenant

import "errors"

var (
	// ErrNoIdentifier is returned when the request carries no tenant identifier.
	ErrNoIdentifier = errors.New("no tenant identifier found in the request")

	// ErrInvalidIdentifier is returned when the identifier format is invalid.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoConnections is returned when the resolver finds no databases for an identifier.
	ErrNoConnections = errors.New("no tenant connection information found")

	// ErrClientNotFound is returned when a session has no client with the requested code.
	ErrClientNotFound = errors.New("tenant client not found")

	// ErrNoSessionInContext is returned when no tenant session is found in context.
	ErrNoSessionInContext = errors.New("no tenant session in context")
)
