// Package platform ties the tenant registry, pool manager, aggregation
// engine and analytics together into the read operations the API layer
// serves. Super-admin operations fan out across every active tenant;
// tenant-scoped operations take the single-pool fast path.
package platform

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/aggregate"
	"github.com/fmachado/propstack/internal/analytics"
	"github.com/fmachado/propstack/internal/core"
	"github.com/fmachado/propstack/internal/pool"
	"github.com/fmachado/propstack/internal/registry"
)

type Service struct {
	registry *registry.Registry
	pools    *pool.Manager
	engine   *aggregate.Engine
	logger   *zap.Logger

	// now is injectable so month and age boundaries are fixed in tests.
	now func() time.Time
}

func NewService(reg *registry.Registry, pools *pool.Manager, engine *aggregate.Engine, logger *zap.Logger) *Service {
	return &Service{
		registry: reg,
		pools:    pools,
		engine:   engine,
		logger:   logger,
		now:      time.Now,
	}
}

// Degraded identifies a tenant whose data is missing from an aggregated
// response, and why. Responses carry these instead of failing outright.
type Degraded struct {
	TenantID   int64  `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Error      string `json:"error"`
	Kind       string `json:"kind"`
}

func degradedOf[T any](res *aggregate.Result[T]) []Degraded {
	out := []Degraded{}
	for _, e := range res.Failed() {
		out = append(out, Degraded{
			TenantID:   e.TenantID,
			TenantName: e.TenantName,
			Error:      e.Err,
			Kind:       e.ErrKind,
		})
	}
	return out
}

// Tenants lists every tenant in the registry for the admin console.
func (s *Service) Tenants(ctx context.Context) ([]core.Tenant, error) {
	return s.registry.List(ctx)
}

// DeactivateTenant flips a tenant inactive and evicts its cached pool so
// idle connections are released. The next aggregation simply no longer
// sees it.
func (s *Service) DeactivateTenant(ctx context.Context, id int64) error {
	if err := s.registry.SetStatus(ctx, id, core.TenantStatusInactive); err != nil {
		return err
	}
	s.pools.Evict(id)
	return nil
}

// ActivateTenant flips a tenant back to active. Its pool is recreated
// lazily on the next aggregation that needs it.
func (s *Service) ActivateTenant(ctx context.Context, id int64) error {
	return s.registry.SetStatus(ctx, id, core.TenantStatusActive)
}

// GlobalStats computes the platform-wide KPI rollup across all active
// tenants.
func (s *Service) GlobalStats(ctx context.Context) (*analytics.GlobalStats, []Degraded, error) {
	monthStart, nextMonth := monthWindow(s.now())

	counts, err := aggregate.Query[countsRow](ctx, s.engine, aggregate.Request{
		SQL:  queryTenantCounts,
		Args: []interface{}{monthStart, nextMonth},
	})
	if err != nil {
		return nil, nil, err
	}

	locations, err := aggregate.Query[core.KeyCountRow](ctx, s.engine, aggregate.Request{SQL: queryLocationCounts})
	if err != nil {
		return nil, nil, err
	}

	prices, err := aggregate.Query[priceRow](ctx, s.engine, aggregate.Request{SQL: queryPrices})
	if err != nil {
		return nil, nil, err
	}

	stats := aggregate.Reduce(counts, &analytics.GlobalStats{}, func(acc *analytics.GlobalStats, e aggregate.Entry[countsRow]) *analytics.GlobalStats {
		for _, row := range e.Rows {
			acc.TotalProperties += row.TotalProperties
			acc.TotalClosed += row.TotalClosed
			acc.TotalAgents += row.TotalAgents
			acc.TotalClients += row.TotalClients
			acc.PropertiesThisMonth += row.ThisMonth
		}
		return acc
	})

	stats.ClosureRate = analytics.ClosureRate(stats.TotalClosed, stats.TotalProperties)

	locationCounts := map[string]int{}
	analytics.MergeCounts(locationCounts, locations.Rows())
	stats.TopLocations = analytics.TopCounts(locationCounts, 10)

	rawPrices := make([]float64, 0, len(prices.Rows()))
	for _, p := range prices.Rows() {
		rawPrices = append(rawPrices, p.PriceUSD)
	}
	stats.TopPriceRanges = analytics.TopCounts(analytics.PriceRangeCounts(rawPrices), 10)

	stats.TenantCount = len(counts.Entries)
	degraded := degradedOf(counts)
	stats.DegradedTenants = len(degraded)

	return stats, degraded, nil
}

// MonthlyClosureRatio builds the cross-tenant closure series for a year.
func (s *Service) MonthlyClosureRatio(ctx context.Context, year int) ([]analytics.ClosurePoint, []Degraded, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	res, err := aggregate.Query[core.PropertyRow](ctx, s.engine, aggregate.Request{
		SQL:  queryClosureWindow,
		Args: []interface{}{start, end},
	})
	if err != nil {
		return nil, nil, err
	}

	return analytics.MonthlyClosureRatio(year, res.Rows()), degradedOf(res), nil
}

// TimeToClose reports the time-to-close histograms along all three
// dimensions from one fan-out over closed properties.
type TimeToClose struct {
	ByLocation []analytics.TimeToCloseBucket `json:"by_location"`
	ByBudget   []analytics.TimeToCloseBucket `json:"by_budget"`
	ByAge      []analytics.TimeToCloseBucket `json:"by_age"`
}

func (s *Service) TimeToClose(ctx context.Context) (*TimeToClose, []Degraded, error) {
	res, err := aggregate.Query[core.PropertyRow](ctx, s.engine, aggregate.Request{SQL: queryClosedProperties})
	if err != nil {
		return nil, nil, err
	}

	rows := res.Rows()
	return &TimeToClose{
		ByLocation: analytics.TimeToCloseByLocation(rows),
		ByBudget:   analytics.TimeToCloseByBudget(rows),
		ByAge:      analytics.TimeToCloseByAge(rows, s.now()),
	}, degradedOf(res), nil
}

// HotPreferences ranks cross-tenant demand combinations, optionally
// filtered on any dimension.
func (s *Service) HotPreferences(ctx context.Context, filter analytics.PreferenceFilter) ([]analytics.HotPreference, []Degraded, error) {
	res, err := aggregate.Query[core.LeadRow](ctx, s.engine, aggregate.Request{SQL: queryLeadCounts})
	if err != nil {
		return nil, nil, err
	}
	return analytics.HotPreferences(res.Rows(), s.now(), filter), degradedOf(res), nil
}

// FarmingRecommendations derives the demand-farming advice across all
// tenants.
func (s *Service) FarmingRecommendations(ctx context.Context) (*analytics.Farming, []Degraded, error) {
	res, err := aggregate.Query[core.LeadRow](ctx, s.engine, aggregate.Request{SQL: queryLeadCounts})
	if err != nil {
		return nil, nil, err
	}
	farming := analytics.FarmingRecommendations(res.Rows(), s.now())
	return &farming, degradedOf(res), nil
}

// AllProperties returns every tenant's property listings with per-tenant
// provenance; a failed tenant stays visible as an error entry.
func (s *Service) AllProperties(ctx context.Context) (*aggregate.Result[core.PropertyRow], error) {
	return aggregate.Query[core.PropertyRow](ctx, s.engine, aggregate.Request{SQL: queryAllProperties})
}

func (s *Service) AllClients(ctx context.Context) (*aggregate.Result[core.ClientRow], error) {
	return aggregate.Query[core.ClientRow](ctx, s.engine, aggregate.Request{SQL: queryAllClients})
}

func (s *Service) AllAgents(ctx context.Context) (*aggregate.Result[core.UserRow], error) {
	return aggregate.Query[core.UserRow](ctx, s.engine, aggregate.Request{SQL: queryAllAgents})
}

// monthWindow bounds the calendar month containing t, in t's location.
func monthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
