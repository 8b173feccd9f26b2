package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fmachado/propstack/internal/core"
)

// UpsertSummary writes one tenant's materialized performance snapshot.
func (r *Registry) UpsertSummary(ctx context.Context, s *core.TenantSummary) error {
	query := `
		INSERT INTO tenant_performance_summary (
			tenant_id, total_properties, avg_price_usd,
			properties_by_type, leads_count, last_sync_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO UPDATE SET
			total_properties = excluded.total_properties,
			avg_price_usd = excluded.avg_price_usd,
			properties_by_type = excluded.properties_by_type,
			leads_count = excluded.leads_count,
			last_sync_at = excluded.last_sync_at`

	_, err := r.db.ExecContext(ctx, query,
		s.TenantID, s.TotalProperties, s.AvgPriceUSD,
		s.PropertiesByType, s.LeadsCount, s.LastSyncAt,
	)
	if err != nil {
		return fmt.Errorf("upsert summary for tenant %d: %w", s.TenantID, err)
	}
	return nil
}

// GetSummary reads a tenant's last synced snapshot.
func (r *Registry) GetSummary(ctx context.Context, tenantID int64) (*core.TenantSummary, error) {
	var s core.TenantSummary
	query := `
		SELECT tenant_id, total_properties, avg_price_usd,
			   properties_by_type, leads_count, last_sync_at
		FROM tenant_performance_summary
		WHERE tenant_id = $1`

	err := r.db.GetContext(ctx, &s, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("summary for tenant %d: %w", tenantID, core.ErrTenantNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRegistryUnavailable, err)
	}
	return &s, nil
}
