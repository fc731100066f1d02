package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// IsolationLevel is an engine neutral transaction isolation level.
// The empty value keeps the engine default.
type IsolationLevel string

const (
	LevelDefault         IsolationLevel = ""
	LevelReadUncommitted IsolationLevel = "READ UNCOMMITTED"
	LevelReadCommitted   IsolationLevel = "READ COMMITTED"
	LevelRepeatableRead  IsolationLevel = "REPEATABLE READ"
	LevelSerializable    IsolationLevel = "SERIALIZABLE"
)

// ParseIsolationLevel accepts the SQL spelling with spaces, underscores or
// dashes in any case.
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)

	switch IsolationLevel(normalized) {
	case LevelDefault, LevelReadUncommitted, LevelReadCommitted, LevelRepeatableRead, LevelSerializable:
		return IsolationLevel(normalized), nil
	}
	return "", ConfigurationError(fmt.Sprintf("unknown isolation level %q", s), nil, Fields{"isolation_level": s})
}

// UnmarshalText lets IsolationLevel be used in env-tagged config structs.
func (l *IsolationLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseIsolationLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// TxOptions configures one transaction scope.
type TxOptions struct {
	// Timeout bounds how long the scope may stay open. Zero means no bound.
	Timeout time.Duration `env:"TX_TIMEOUT" envDefault:"5s"`
	// MaxRetries is the number of extra attempts made to begin the
	// transaction. The callback itself is never retried.
	MaxRetries int `env:"TX_MAX_RETRIES" envDefault:"0"`
	// IsolationLevel is mapped to the engine's level where supported.
	IsolationLevel IsolationLevel `env:"TX_ISOLATION_LEVEL"`
}

// Context derives the scope context, applying Timeout when set.
func (o TxOptions) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return context.WithCancel(ctx)
}

// Begin calls begin until it succeeds or MaxRetries extra attempts are used.
// It stops early when ctx is done.
func (o TxOptions) Begin(ctx context.Context, begin func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= max(o.MaxRetries, 0); attempt++ {
		if err = begin(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return err
}
