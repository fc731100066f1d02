package engines_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/engines"
	"github.com/dmitrymomot/tenantconn/pkg/mongo"
	"github.com/dmitrymomot/tenantconn/pkg/mysql"
	"github.com/dmitrymomot/tenantconn/pkg/pg"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := engines.Registry(engines.Config{})
	assert.ElementsMatch(t, datasource.Kinds(), reg.Kinds())

	tests := []struct {
		d    datasource.Descriptor
		want any
	}{
		{datasource.Descriptor{Kind: datasource.Postgres, TenantCode: "a", URL: "postgres://u:p@pg:5432/a"}, &pg.Client{}},
		{datasource.Descriptor{Kind: datasource.MySQL, TenantCode: "b", URL: "mysql://u:p@my:3306/b"}, &mysql.Client{}},
		{datasource.Descriptor{Kind: datasource.Mongo, TenantCode: "c", URL: "mongodb://u:p@mongo:27017/c"}, &mongo.Client{}},
	}
	for _, tt := range tests {
		t.Run(tt.d.Kind.String(), func(t *testing.T) {
			t.Parallel()

			client, err := reg.NewClient(context.Background(), tt.d)
			require.NoError(t, err)
			assert.IsType(t, tt.want, client)
			assert.Equal(t, tt.d.Kind, client.Kind())
		})
	}
}
