package tenantcheck

import (
	"fmt"
	"strings"
	"time"
)

// Policy decides what Startup does about unreachable tenants.
type Policy string

const (
	PolicyAbort Policy = "abort"
	PolicyWarn  Policy = "warn"
)

// ParsePolicy accepts "abort" or "warn" in any case.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAbort, PolicyWarn:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Config holds the startup check settings.
type Config struct {
	Policy       Policy        `env:"TENANT_CHECK_POLICY" envDefault:"abort"`
	Concurrency  int           `env:"TENANT_CHECK_CONCURRENCY" envDefault:"4"`
	ProbeTimeout time.Duration `env:"TENANT_CHECK_PROBE_TIMEOUT" envDefault:"10s"`
}

const defaultConcurrency = 4
