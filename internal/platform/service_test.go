package platform

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/aggregate"
	"github.com/fmachado/propstack/internal/analytics"
	"github.com/fmachado/propstack/internal/core"
	"github.com/fmachado/propstack/internal/pool"
	"github.com/fmachado/propstack/internal/registry"
)

// The fixed clock every fixture is built around: mid June 2025.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func openMemDB(t *testing.T, name string) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newPlatformDB(t *testing.T, name string) *sqlx.DB {
	db := openMemDB(t, name)
	db.MustExec(`
		CREATE TABLE tenants (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			database_name TEXT NOT NULL UNIQUE,
			db_host TEXT NOT NULL DEFAULT 'localhost',
			db_user TEXT NOT NULL DEFAULT '',
			db_password TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	db.MustExec(`
		CREATE TABLE tenant_performance_summary (
			tenant_id INTEGER PRIMARY KEY,
			total_properties INTEGER NOT NULL DEFAULT 0,
			avg_price_usd REAL NOT NULL DEFAULT 0,
			properties_by_type TEXT NOT NULL DEFAULT '{}',
			leads_count INTEGER NOT NULL DEFAULT 0,
			last_sync_at TIMESTAMP NOT NULL
		)`)
	return db
}

func newTenantDB(t *testing.T, name string) *sqlx.DB {
	db := openMemDB(t, name)
	db.MustExec(`
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			role TEXT NOT NULL,
			created_at TIMESTAMP
		)`)
	db.MustExec(`
		CREATE TABLE properties (
			id INTEGER PRIMARY KEY,
			property_type TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			area TEXT NOT NULL DEFAULT '',
			price_usd REAL,
			status TEXT NOT NULL,
			created_at TIMESTAMP,
			status_changed_at TIMESTAMP,
			construction_year INTEGER,
			agent_id INTEGER
		)`)
	db.MustExec(`
		CREATE TABLE clients (
			id INTEGER PRIMARY KEY,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT,
			email TEXT,
			created_at TIMESTAMP
		)`)
	db.MustExec(`
		CREATE TABLE property_leads (
			property_id INTEGER NOT NULL,
			client_id INTEGER NOT NULL
		)`)
	return db
}

// seedAcme: 4 properties (2 closed), 1 agent, 2 clients, leads on two
// properties.
func seedAcme(db *sqlx.DB) {
	db.MustExec(`INSERT INTO users (id, name, role, created_at) VALUES (1, 'Dana Reyes', 'agent', $1)`, ts("2024-01-10"))
	db.MustExec(`INSERT INTO users (id, name, role, created_at) VALUES (2, 'Sam Ortiz', 'admin', $1)`, ts("2024-01-10"))

	db.MustExec(`INSERT INTO properties
		(id, property_type, city, area, price_usd, status, created_at, status_changed_at, construction_year, agent_id)
		VALUES (1, 'apartment', 'Metroville', 'Downtown', 150000, 'closed', $1, $2, 2022, 1)`,
		ts("2025-06-05"), ts("2025-06-25"))
	db.MustExec(`INSERT INTO properties
		(id, property_type, city, area, price_usd, status, created_at, construction_year)
		VALUES (2, 'apartment', 'Metroville', 'Downtown', 180000, 'active', $1, 2023)`,
		ts("2025-06-10"))
	db.MustExec(`INSERT INTO properties
		(id, property_type, city, area, price_usd, status, created_at, status_changed_at, construction_year)
		VALUES (3, 'villa', 'Metroville', 'Hills', 600000, 'closed', $1, $2, 1995)`,
		ts("2025-01-01"), ts("2025-04-01"))
	db.MustExec(`INSERT INTO properties
		(id, property_type, city, area, price_usd, status, created_at)
		VALUES (4, 'house', 'Metroville', 'Suburb', 90000, 'active', $1)`,
		ts("2024-12-01"))

	db.MustExec(`INSERT INTO clients (id, type, name, created_at) VALUES (1, 'lead', 'Kim Novak', $1)`, ts("2025-05-01"))
	db.MustExec(`INSERT INTO clients (id, type, name, created_at) VALUES (2, 'buyer', 'Lee Chen', $1)`, ts("2025-05-02"))

	db.MustExec(`INSERT INTO property_leads (property_id, client_id) VALUES (1, 1)`)
	db.MustExec(`INSERT INTO property_leads (property_id, client_id) VALUES (1, 2)`)
	db.MustExec(`INSERT INTO property_leads (property_id, client_id) VALUES (3, 1)`)
}

// seedSummit: 2 properties (1 closed), 1 agent, 1 client, no leads.
func seedSummit(db *sqlx.DB) {
	db.MustExec(`INSERT INTO users (id, name, role, created_at) VALUES (1, 'Ira Patel', 'agent', $1)`, ts("2024-03-01"))

	db.MustExec(`INSERT INTO properties
		(id, property_type, city, area, price_usd, status, created_at)
		VALUES (1, 'apartment', 'Lakeside', 'Downtown', 120000, 'active', $1)`,
		ts("2025-05-20"))
	db.MustExec(`INSERT INTO properties
		(id, property_type, city, area, price_usd, status, created_at, status_changed_at, construction_year)
		VALUES (2, 'villa', 'Lakeside', 'Hills', 550000, 'closed', $1, $2, 2021)`,
		ts("2025-06-01"), ts("2025-06-11"))

	db.MustExec(`INSERT INTO clients (id, type, name, created_at) VALUES (1, 'lead', 'Ana Bell', $1)`, ts("2025-04-01"))
}

type fixture struct {
	service  *Service
	registry *registry.Registry
	pools    *pool.Manager
}

// newFixture stands the whole read stack up on sqlite: three registered
// tenants, the third unreachable, all sharing one pool manager and engine.
func newFixture(t *testing.T, prefix string) *fixture {
	t.Helper()

	platformDB := newPlatformDB(t, prefix+"_platform")
	seedAcme(newTenantDB(t, prefix+"_acme"))
	seedSummit(newTenantDB(t, prefix+"_summit"))

	platformDB.MustExec(`INSERT INTO tenants (name, database_name) VALUES ('Acme Realty', 'tenant_acme')`)
	platformDB.MustExec(`INSERT INTO tenants (name, database_name) VALUES ('Summit Homes', 'tenant_summit')`)
	platformDB.MustExec(`INSERT INTO tenants (name, database_name) VALUES ('Broken Estates', 'tenant_broken')`)

	// The seeded handles above stay open for the test's lifetime so the
	// shared-memory databases survive pool eviction; the opener dials a
	// fresh connection per pool the way the production opener does.
	names := map[string]string{
		"tenant_acme":   prefix + "_acme",
		"tenant_summit": prefix + "_summit",
	}
	open := func(ctx context.Context, tn *core.Tenant) (*sqlx.DB, error) {
		name, ok := names[tn.DatabaseName]
		if !ok {
			return nil, errors.New("dial tcp: connection refused")
		}
		return sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	}

	logger := zap.NewNop()
	reg := registry.New(platformDB)
	pools := pool.NewManager(platformDB, reg, open, nil, logger)
	t.Cleanup(pools.Close)
	engine := aggregate.NewEngine(reg, pools, nil, logger, 5*time.Second)

	svc := NewService(reg, pools, engine, logger)
	svc.now = func() time.Time { return testNow }

	return &fixture{service: svc, registry: reg, pools: pools}
}

func TestGlobalStats(t *testing.T) {
	f := newFixture(t, "svc_global")

	stats, degraded, err := f.service.GlobalStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalProperties)
	assert.Equal(t, 3, stats.TotalClosed)
	assert.Equal(t, 2, stats.TotalAgents)
	assert.Equal(t, 3, stats.TotalClients)
	// June 2025: two Acme listings plus one Summit listing.
	assert.Equal(t, 3, stats.PropertiesThisMonth)
	assert.Equal(t, 50.0, stats.ClosureRate)

	require.NotEmpty(t, stats.TopLocations)
	assert.Equal(t, analytics.KeyCount{Key: "Downtown", Count: 3}, stats.TopLocations[0])
	assert.Equal(t, analytics.KeyCount{Key: "Hills", Count: 2}, stats.TopLocations[1])

	require.NotEmpty(t, stats.TopPriceRanges)
	assert.Equal(t, analytics.KeyCount{Key: "100-200k", Count: 3}, stats.TopPriceRanges[0])

	assert.Equal(t, 3, stats.TenantCount)
	assert.Equal(t, 1, stats.DegradedTenants)
	require.Len(t, degraded, 1)
	assert.Equal(t, "Broken Estates", degraded[0].TenantName)
	assert.Equal(t, aggregate.KindConnection, degraded[0].Kind)
}

func TestMonthlyClosureRatio_MergesAcrossTenants(t *testing.T) {
	f := newFixture(t, "svc_closure")

	points, degraded, err := f.service.MonthlyClosureRatio(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, points, 12)
	assert.Len(t, degraded, 1)

	assert.Equal(t, 1, points[0].Added)  // Acme villa, January
	assert.Equal(t, 1, points[3].Closed) // that villa closed in April
	assert.Equal(t, 1, points[4].Added)  // Summit listing, May

	june := points[5]
	assert.Equal(t, "2025-06", june.Month)
	assert.Equal(t, 3, june.Added)
	assert.Equal(t, 2, june.Closed)
	assert.InDelta(t, 2.0/3.0, june.Ratio, 1e-9)
}

func TestTimeToClose(t *testing.T) {
	f := newFixture(t, "svc_ttc")

	got, degraded, err := f.service.TimeToClose(context.Background())
	require.NoError(t, err)
	assert.Len(t, degraded, 1)

	require.Len(t, got.ByLocation, 2)
	assert.Equal(t, analytics.TimeToCloseBucket{Category: "Downtown", AvgDays: 20, SampleCount: 1}, got.ByLocation[0])
	assert.Equal(t, analytics.TimeToCloseBucket{Category: "Hills", AvgDays: 50, SampleCount: 2}, got.ByLocation[1])

	require.Len(t, got.ByBudget, 2)
	assert.Equal(t, analytics.TimeToCloseBucket{Category: "100-200k", AvgDays: 20, SampleCount: 1}, got.ByBudget[0])
	assert.Equal(t, analytics.TimeToCloseBucket{Category: "500k+", AvgDays: 50, SampleCount: 2}, got.ByBudget[1])

	// Summit's villa (2021) is 0-5 years at the fixed clock; Acme's closings
	// are 0-5 (2022) and 20+ (1995).
	require.Len(t, got.ByAge, 2)
	assert.Equal(t, "0-5 years", got.ByAge[0].Category)
	assert.Equal(t, 2, got.ByAge[0].SampleCount)
	assert.Equal(t, "20+ years", got.ByAge[1].Category)
}

func TestHotPreferences(t *testing.T) {
	f := newFixture(t, "svc_hot")

	prefs, degraded, err := f.service.HotPreferences(context.Background(), analytics.PreferenceFilter{})
	require.NoError(t, err)
	assert.Len(t, degraded, 1)

	// Only Acme has lead rows: the apartment with 2 leads outranks the villa.
	require.Len(t, prefs, 2)
	assert.Equal(t, analytics.HotPreference{
		Area: "Downtown", BudgetRange: "100-200k", AgeRange: "0-5 years",
		PropertyType: "apartment", LeadCount: 2,
	}, prefs[0])
	assert.Equal(t, "villa", prefs[1].PropertyType)
	assert.Equal(t, 1, prefs[1].LeadCount)
}

func TestHotPreferences_Filtered(t *testing.T) {
	f := newFixture(t, "svc_hotfilter")

	prefs, _, err := f.service.HotPreferences(context.Background(),
		analytics.PreferenceFilter{PropertyType: "villa"})
	require.NoError(t, err)

	require.Len(t, prefs, 1)
	assert.Equal(t, "Hills", prefs[0].Area)
}

func TestFarmingRecommendations(t *testing.T) {
	f := newFixture(t, "svc_farming")

	farming, degraded, err := f.service.FarmingRecommendations(context.Background())
	require.NoError(t, err)
	assert.Len(t, degraded, 1)

	require.NotEmpty(t, farming.TopLocations)
	assert.Equal(t, analytics.AreaLeads{Area: "Downtown", LeadCount: 2}, farming.TopLocations[0])
	require.Len(t, farming.Recommendations, 2)
	assert.Equal(t, "Focus on Downtown — highest demand with 2 leads", farming.Recommendations[0])
}

func TestAllProperties_ProvenancePreserved(t *testing.T) {
	f := newFixture(t, "svc_props")

	res, err := f.service.AllProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	acme := res.Entries[0]
	assert.Equal(t, "Acme Realty", acme.TenantName)
	require.Len(t, acme.Rows, 4)

	// The closed apartment carries its agent via the join.
	var withAgent *core.PropertyRow
	for i := range acme.Rows {
		if acme.Rows[i].ID == 1 {
			withAgent = &acme.Rows[i]
		}
	}
	require.NotNil(t, withAgent)
	require.NotNil(t, withAgent.AgentName)
	assert.Equal(t, "Dana Reyes", *withAgent.AgentName)

	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "Broken Estates", failed[0].TenantName)
}

func TestAllClientsAndAgents(t *testing.T) {
	f := newFixture(t, "svc_people")

	clients, err := f.service.AllClients(context.Background())
	require.NoError(t, err)
	assert.Len(t, clients.Rows(), 3)

	agents, err := f.service.AllAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents.Rows(), 2)
	for _, a := range agents.Rows() {
		assert.Equal(t, "agent", a.Role)
	}
}

func TestDeactivateTenant_RemovesFromFanout(t *testing.T) {
	f := newFixture(t, "svc_deactivate")

	// Prime the pool so eviction has something to drop.
	_, _, err := f.service.GlobalStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, f.pools.Len())

	require.NoError(t, f.service.DeactivateTenant(context.Background(), 1))
	assert.Equal(t, 1, f.pools.Len())

	stats, _, err := f.service.GlobalStats(context.Background())
	require.NoError(t, err)
	// Acme's 4 listings are gone from the rollup.
	assert.Equal(t, 2, stats.TotalProperties)
	assert.Equal(t, 2, stats.TenantCount)

	require.NoError(t, f.service.ActivateTenant(context.Background(), 1))
	stats, _, err = f.service.GlobalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalProperties)
}

func TestDeactivateTenant_Unknown(t *testing.T) {
	f := newFixture(t, "svc_deactivate_unknown")

	err := f.service.DeactivateTenant(context.Background(), 99)
	assert.ErrorIs(t, err, core.ErrTenantNotFound)
}

func TestSyncSummaries(t *testing.T) {
	f := newFixture(t, "svc_sync")

	report, err := f.service.SyncSummaries(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, testNow, report.SyncedAt)
	require.Len(t, report.Outcomes, 3)

	byTenant := map[int64]SyncOutcome{}
	for _, o := range report.Outcomes {
		byTenant[o.TenantID] = o
	}
	assert.Equal(t, "synced", byTenant[1].Status)
	assert.Equal(t, "synced", byTenant[2].Status)
	assert.Equal(t, "failed", byTenant[3].Status)
	assert.NotEmpty(t, byTenant[3].Error)

	summary, err := f.service.TenantSummary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalProperties)
	assert.Equal(t, 255000.0, summary.AvgPriceUSD)
	assert.Equal(t, 1, summary.LeadsCount)
	assert.Contains(t, summary.PropertiesByType, `"apartment":2`)
	assert.Contains(t, summary.PropertiesByType, `"villa":1`)

	// The unreachable tenant got no snapshot.
	_, err = f.service.TenantSummary(context.Background(), 3)
	assert.ErrorIs(t, err, core.ErrTenantNotFound)
}

func TestTenantFastPath(t *testing.T) {
	f := newFixture(t, "svc_fastpath")
	ctx := context.Background()

	points, err := f.service.TenantClosureRatio(ctx, 1, 2025)
	require.NoError(t, err)
	require.Len(t, points, 12)
	// Acme alone: June has 2 added, 1 closed.
	assert.Equal(t, 2, points[5].Added)
	assert.Equal(t, 1, points[5].Closed)

	ttc, err := f.service.TenantTimeToClose(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ttc.ByBudget, 2)
	assert.Equal(t, "100-200k", ttc.ByBudget[0].Category)

	prefs, err := f.service.TenantHotPreferences(ctx, 1, analytics.PreferenceFilter{})
	require.NoError(t, err)
	assert.Len(t, prefs, 2)

	farming, err := f.service.TenantFarmingRecommendations(ctx, 2)
	require.NoError(t, err)
	// Summit has no lead rows at all.
	require.Len(t, farming.Recommendations, 1)
	assert.Equal(t, "Not enough lead data to generate recommendations", farming.Recommendations[0])

	types, err := f.service.TenantTypeDistribution(ctx, 1)
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, analytics.KeyCount{Key: "apartment", Count: 2}, types[0])

	statuses, err := f.service.TenantStatusDistribution(ctx, 1)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, analytics.KeyCount{Key: "active", Count: 2}, statuses[0])
	assert.Equal(t, analytics.KeyCount{Key: "closed", Count: 2}, statuses[1])
}

func TestTenantFastPath_UnreachableTenant(t *testing.T) {
	f := newFixture(t, "svc_fastpath_down")

	_, err := f.service.TenantTimeToClose(context.Background(), 3)
	require.Error(t, err)
}

func TestTenants_ListsAllStatuses(t *testing.T) {
	f := newFixture(t, "svc_tenants")

	require.NoError(t, f.service.DeactivateTenant(context.Background(), 2))

	tenants, err := f.service.Tenants(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenants, 3)
}
