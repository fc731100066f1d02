package tenant

import (
	"log/slog"
	"net/http"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithExtractor sets how SessionFromRequest finds the identifier.
func WithExtractor(e Extractor) Option {
	return func(a *Aggregator) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// ErrorHandler handles errors that occur while opening a tenant session.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	eager        bool
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass the middleware.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithEagerConnect makes the middleware open every tenant client before
// calling the next handler, so connection failures are reported up front.
func WithEagerConnect() MiddlewareOption {
	return func(c *middlewareConfig) {
		c.eager = true
	}
}
