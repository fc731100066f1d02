package tenant

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tenantconn/pkg/connpool"
	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// Middleware opens a tenant session for every request and stores it in the
// request context. Requests without an identifier are rejected.
func Middleware(agg *Aggregator, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{errorHandler: DefaultErrorHandler}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			session, err := agg.SessionFromRequest(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			if cfg.eager {
				if _, err := session.Clients(r.Context()); err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireSession rejects requests whose context carries no tenant session.
func RequireSession(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoSessionInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultErrorHandler maps tenant errors to HTTP status codes.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrNoIdentifier), errors.Is(err, ErrNoSessionInContext):
		http.Error(w, "Tenant identifier is required", http.StatusBadRequest)
	case errors.Is(err, ErrNoConnections):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, connpool.ErrShuttingDown), errors.Is(err, datasource.ErrConnection):
		http.Error(w, "Tenant database unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
