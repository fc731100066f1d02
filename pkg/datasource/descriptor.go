package datasource

import (
	"log/slog"
	"net/url"
)

// Descriptor identifies one physical database reachable at one URL.
// Descriptors are produced by tenant resolvers and treated as immutable values.
type Descriptor struct {
	Kind             Kind   `json:"kind"`
	TenantCode       string `json:"tenant_code"`
	TenantIdentifier string `json:"tenant_identifier"`
	URL              string `json:"url"`
}

// LogValue keeps credentials out of logs.
func (d Descriptor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", d.Kind.String()),
		slog.String("tenant_code", d.TenantCode),
		slog.String("tenant_identifier", d.TenantIdentifier),
		slog.String("url", RedactURL(d.URL)),
	)
}

// RedactURL masks the password of a connection URL. Strings that are not
// URLs (e.g. MySQL DSNs) are replaced entirely.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "[redacted]"
	}
	return u.Redacted()
}
