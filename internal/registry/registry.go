// Package registry is the durable catalog of tenants. It reads from the
// platform database on every call so status transitions are visible to the
// next aggregation without any client-side cache of the tenant list.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fmachado/propstack/internal/core"
)

type Registry struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Registry {
	return &Registry{db: db}
}

// ListActive returns all active tenants ordered by id ascending, the order
// aggregation results are reported in.
func (r *Registry) ListActive(ctx context.Context) ([]core.Tenant, error) {
	tenants := []core.Tenant{}
	query := `
		SELECT id, name, database_name, db_host, db_user, db_password,
			   status, created_at, updated_at
		FROM tenants
		WHERE status = $1
		ORDER BY id ASC`

	if err := r.db.SelectContext(ctx, &tenants, query, core.TenantStatusActive); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRegistryUnavailable, err)
	}
	return tenants, nil
}

// List returns every tenant regardless of status, newest first.
func (r *Registry) List(ctx context.Context) ([]core.Tenant, error) {
	tenants := []core.Tenant{}
	query := `
		SELECT id, name, database_name, db_host, db_user, db_password,
			   status, created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRegistryUnavailable, err)
	}
	return tenants, nil
}

func (r *Registry) Get(ctx context.Context, id int64) (*core.Tenant, error) {
	var t core.Tenant
	query := `
		SELECT id, name, database_name, db_host, db_user, db_password,
			   status, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenant %d: %w", id, core.ErrTenantNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRegistryUnavailable, err)
	}
	return &t, nil
}

// SetStatus flips a tenant between active and inactive. Callers are expected
// to evict the tenant's pool after deactivating it.
func (r *Registry) SetStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrRegistryUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("tenant %d: %w", id, core.ErrTenantNotFound)
	}
	return nil
}
