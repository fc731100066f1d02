package tenant

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithSession adds a tenant session to the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SessionFromContext retrieves the tenant session from the context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// MustSessionFromContext panics if the context carries no session. Use it
// only behind Middleware.
func MustSessionFromContext(ctx context.Context) *Session {
	s, ok := SessionFromContext(ctx)
	if !ok {
		panic(ErrNoSessionInContext)
	}
	return s
}

// LoggerExtractor returns a logger context extractor that adds the tenant
// group of the current session.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if s, ok := SessionFromContext(ctx); ok {
			return slog.String("tenant_group", s.Identifier()), true
		}
		return slog.Attr{}, false
	}
}
