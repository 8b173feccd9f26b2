package platform

import (
	"context"
	"time"

	"github.com/fmachado/propstack/internal/analytics"
	"github.com/fmachado/propstack/internal/core"
)

// Single-tenant fast path: tenant-scoped roles bypass aggregation entirely
// and run the same fixed query shapes against their own pool. The derived
// metrics are computed by the same pure functions the fan-out uses.

func tenantRows[T any](ctx context.Context, s *Service, tenantID int64, sql string, args ...interface{}) ([]T, error) {
	db, err := s.pools.Tenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	rows := []T{}
	if err := db.SelectContext(ctx, &rows, sql, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) TenantClosureRatio(ctx context.Context, tenantID int64, year int) ([]analytics.ClosurePoint, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	rows, err := tenantRows[core.PropertyRow](ctx, s, tenantID, queryClosureWindow, start, end)
	if err != nil {
		return nil, err
	}
	return analytics.MonthlyClosureRatio(year, rows), nil
}

func (s *Service) TenantTimeToClose(ctx context.Context, tenantID int64) (*TimeToClose, error) {
	rows, err := tenantRows[core.PropertyRow](ctx, s, tenantID, queryClosedProperties)
	if err != nil {
		return nil, err
	}
	return &TimeToClose{
		ByLocation: analytics.TimeToCloseByLocation(rows),
		ByBudget:   analytics.TimeToCloseByBudget(rows),
		ByAge:      analytics.TimeToCloseByAge(rows, s.now()),
	}, nil
}

func (s *Service) TenantHotPreferences(ctx context.Context, tenantID int64, filter analytics.PreferenceFilter) ([]analytics.HotPreference, error) {
	rows, err := tenantRows[core.LeadRow](ctx, s, tenantID, queryLeadCounts)
	if err != nil {
		return nil, err
	}
	return analytics.HotPreferences(rows, s.now(), filter), nil
}

func (s *Service) TenantFarmingRecommendations(ctx context.Context, tenantID int64) (*analytics.Farming, error) {
	rows, err := tenantRows[core.LeadRow](ctx, s, tenantID, queryLeadCounts)
	if err != nil {
		return nil, err
	}
	farming := analytics.FarmingRecommendations(rows, s.now())
	return &farming, nil
}

func (s *Service) TenantTypeDistribution(ctx context.Context, tenantID int64) ([]analytics.KeyCount, error) {
	rows, err := tenantRows[core.KeyCountRow](ctx, s, tenantID, queryTypeDistribution)
	if err != nil {
		return nil, err
	}
	return analytics.Distribution(rows), nil
}

func (s *Service) TenantStatusDistribution(ctx context.Context, tenantID int64) ([]analytics.KeyCount, error) {
	rows, err := tenantRows[core.KeyCountRow](ctx, s, tenantID, queryStatusDistribution)
	if err != nil {
		return nil, err
	}
	return analytics.Distribution(rows), nil
}
