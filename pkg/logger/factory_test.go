package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf)).Info("pool ready")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "pool ready", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText)).Info("pool ready")
		assert.Contains(t, buf.String(), "msg=\"pool ready\"")
	})

	t.Run("static attributes", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithAttr(logger.Component("connpool"))).Info("msg")
		assert.Equal(t, "connpool", decode(t, buf)["component"])
	})

	t.Run("context extractors", func(t *testing.T) {
		t.Parallel()

		type key struct{}
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				if v, ok := ctx.Value(key{}).(string); ok {
					return logger.TenantGroup(v), true
				}
				return slog.Attr{}, false
			}),
		)

		log.InfoContext(context.WithValue(context.Background(), key{}, "acme"), "resolved")
		assert.Equal(t, "acme", decode(t, buf)["tenant_group"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env       string
		wantEnv   string
		wantDebug bool
		wantJSON  bool
	}{
		{env: "development", wantEnv: "development", wantDebug: true},
		{env: "PROD", wantEnv: "production", wantJSON: true},
		{env: "stage", wantEnv: "staging", wantJSON: true},
		{env: "unknown", wantEnv: "development", wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(tt.env, "tenantcheck"))

			log.Debug("probe")
			assert.Equal(t, tt.wantDebug, buf.Len() > 0)

			buf.Reset()
			log.Info("probe")
			out := buf.String()
			if tt.wantJSON {
				entry := decode(t, buf)
				assert.Equal(t, "tenantcheck", entry["service"])
				assert.Equal(t, tt.wantEnv, entry["env"])
				return
			}
			assert.Contains(t, out, "service=tenantcheck")
			assert.Contains(t, out, "env="+tt.wantEnv)
		})
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("explicit level and format override preset", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		opts := logger.FromConfig(logger.Config{
			Level:       "warn",
			Format:      logger.FormatJSON,
			ServiceName: "tenantcheck",
			Environment: "development",
		})
		log := logger.New(append(opts, logger.WithOutput(buf))...)

		log.Info("hidden")
		assert.Empty(t, buf.String())

		log.Warn("shown")
		entry := decode(t, buf)
		assert.Equal(t, "tenantcheck", entry["service"])
		assert.Equal(t, "development", entry["env"])
	})

	t.Run("invalid level panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.FromConfig(logger.Config{Level: "loud"})
		})
	})
}

func TestSetAsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	logger.SetAsDefault(logger.New(logger.WithOutput(buf)))
	slog.Info("default")
	assert.Equal(t, "default", decode(t, buf)["msg"])
}
