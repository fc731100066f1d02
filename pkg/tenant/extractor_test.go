package tenant_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/tenant"
)

func TestHeaderExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		value   string
		want    string
		wantErr error
	}{
		{name: "default header", value: "acme", want: "acme"},
		{name: "custom header", header: "X-Group", value: "globex", want: "globex"},
		{name: "trims spaces", value: "  acme  ", want: "acme"},
		{name: "missing", want: ""},
		{name: "invalid", value: "../etc", wantErr: tenant.ErrInvalidIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := tenant.NewHeaderExtractor(tt.header)
			req := httptest.NewRequest("GET", "/", nil)
			if tt.value != "" {
				req.Header.Set(e.HeaderName, tt.value)
			}

			got, err := e.Extract(req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubdomainExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		suffix string
		host   string
		want   string
	}{
		{name: "subdomain", host: "acme.app.com", want: "acme"},
		{name: "with port", host: "acme.app.com:8080", want: "acme"},
		{name: "bare domain", host: "app.com", want: ""},
		{name: "www skipped", host: "www.acme.app.com", want: "acme"},
		{name: "suffix", suffix: ".saas.example.com", host: "globex.saas.example.com", want: "globex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest("GET", "/", nil)
			req.Host = tt.host

			got, err := tenant.NewSubdomainExtractor(tt.suffix).Extract(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathExtractor(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/groups/acme/orders", nil)

	got, err := tenant.NewPathExtractor(2).Extract(req)
	require.NoError(t, err)
	assert.Equal(t, "acme", got)

	got, err = tenant.NewPathExtractor(5).Extract(req)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = tenant.NewPathExtractor(0).Extract(req)
	assert.Error(t, err)
}

func TestCompositeExtractor(t *testing.T) {
	t.Parallel()

	e := tenant.NewCompositeExtractor(
		tenant.NewHeaderExtractor(""),
		tenant.NewSubdomainExtractor(""),
	)

	req := httptest.NewRequest("GET", "/", nil)
	req.Host = "acme.app.com"
	got, err := e.Extract(req)
	require.NoError(t, err)
	assert.Equal(t, "acme", got)

	req.Header.Set(tenant.DefaultHeader, "globex")
	got, err = e.Extract(req)
	require.NoError(t, err)
	assert.Equal(t, "globex", got)

	bad := httptest.NewRequest("GET", "/", nil)
	bad.Host = "app.com"
	bad.Header.Set(tenant.DefaultHeader, "no spaces allowed")
	_, err = e.Extract(bad)
	assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
}
