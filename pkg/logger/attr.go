package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Connection records a pooled connection name under the key "connection".
func Connection(name string) slog.Attr {
	return slog.String("connection", name)
}

// Kind records a database engine kind under the key "kind".
func Kind(kind fmt.Stringer) slog.Attr {
	if kind == nil {
		return slog.Attr{}
	}
	return slog.String("kind", kind.String())
}

// Tenant records the tenant code and identifier as a "tenant" group.
func Tenant(code, identifier string) slog.Attr {
	return Group("tenant",
		slog.String("code", code),
		slog.String("identifier", identifier),
	)
}

// TenantGroup records the tenant group code under the key "tenant_group".
// If code is empty, it returns an empty Attr.
func TenantGroup(code string) slog.Attr {
	if code == "" {
		return slog.Attr{}
	}
	return slog.String("tenant_group", code)
}

// Attempt records a 1-based attempt number out of max.
func Attempt(n, max int) slog.Attr {
	return Group("attempt", slog.Int("n", n), slog.Int("max", max))
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
