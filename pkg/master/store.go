package master

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
	"github.com/dmitrymomot/tenantconn/pkg/tenant"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	selectGroupSQL = `SELECT tenant_code, tenant_type, connection_url
FROM tenants
WHERE tenant_group_code = $1
ORDER BY position, tenant_code`

	selectGroupsSQL = `SELECT DISTINCT tenant_group_code FROM tenants ORDER BY tenant_group_code`

	upsertTenantSQL = `INSERT INTO tenants (tenant_code, tenant_group_code, tenant_type, connection_url, position)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_code) DO UPDATE SET
    tenant_group_code = EXCLUDED.tenant_group_code,
    tenant_type = EXCLUDED.tenant_type,
    connection_url = EXCLUDED.connection_url,
    position = EXCLUDED.position,
    updated_at = now()`

	deleteTenantSQL = `DELETE FROM tenants WHERE tenant_code = $1`
)

// Store resolves tenant connections from the master database.
type Store struct {
	db  Querier
	log *slog.Logger
}

var (
	_ tenant.Resolver    = (*Store)(nil)
	_ tenant.GroupLister = (*Store)(nil)
)

// NewStore creates a store over the master connection.
func NewStore(db Querier, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log.With(logger.Component("master"))}
}

// ResolveTenantConnections returns the databases of a tenant group. An
// unknown group is a tenant error wrapping tenant.ErrNoConnections.
func (s *Store) ResolveTenantConnections(ctx context.Context, groupCode string) ([]datasource.Descriptor, error) {
	rows, err := s.db.Query(ctx, selectGroupSQL, groupCode)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	descriptors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (datasource.Descriptor, error) {
		var code, kind, url string
		if err := row.Scan(&code, &kind, &url); err != nil {
			return datasource.Descriptor{}, err
		}
		parsed, err := datasource.ParseKind(kind)
		if err != nil {
			return datasource.Descriptor{}, err
		}
		return datasource.Descriptor{
			Kind:             parsed,
			TenantCode:       code,
			TenantIdentifier: groupCode,
			URL:              url,
		}, nil
	})
	if err != nil {
		if errors.Is(err, datasource.ErrConfiguration) {
			return nil, err
		}
		return nil, errors.Join(ErrQueryFailed, err)
	}

	if len(descriptors) == 0 {
		return nil, datasource.TenantError(
			"no tenant information found for group code "+groupCode,
			tenant.ErrNoConnections,
			datasource.Fields{"tenant_identifier": groupCode},
		)
	}

	s.log.DebugContext(ctx, "resolved tenant group", logger.TenantGroup(groupCode), slog.Int("count", len(descriptors)))
	return descriptors, nil
}

// TenantGroups lists every distinct tenant group code.
func (s *Store) TenantGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, selectGroupsSQL)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	groups, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return groups, nil
}

// SaveTenant inserts or updates the routing row for d.
func (s *Store) SaveTenant(ctx context.Context, d datasource.Descriptor, position int) error {
	if d.TenantCode == "" || d.TenantIdentifier == "" || d.URL == "" {
		return errors.Join(ErrInvalidTenant, fmt.Errorf("tenant code, group code and url are required"))
	}
	if !d.Kind.Valid() {
		return errors.Join(ErrInvalidTenant, fmt.Errorf("unsupported kind %q", d.Kind))
	}

	if _, err := s.db.Exec(ctx, upsertTenantSQL, d.TenantCode, d.TenantIdentifier, d.Kind.String(), d.URL, position); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	s.log.InfoContext(ctx, "tenant saved", logger.Tenant(d.TenantCode, d.TenantIdentifier), logger.Kind(d.Kind))
	return nil
}

// DeleteTenant removes the routing row for a tenant code.
func (s *Store) DeleteTenant(ctx context.Context, code string) error {
	if _, err := s.db.Exec(ctx, deleteTenantSQL, code); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}
