// Package pool manages one bounded connection pool per tenant database plus
// the platform pool. Pools are expensive to build and tenants change slowly,
// so pools live for the process lifetime unless explicitly evicted.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fmachado/propstack/internal/config"
	"github.com/fmachado/propstack/internal/core"
	"github.com/fmachado/propstack/internal/metrics"
)

// TenantSource resolves tenant connection coordinates. Satisfied by
// registry.Registry.
type TenantSource interface {
	Get(ctx context.Context, id int64) (*core.Tenant, error)
}

// Opener dials a tenant database. Injectable so tests can run on sqlite.
type Opener func(ctx context.Context, t *core.Tenant) (*sqlx.DB, error)

type Manager struct {
	platform *sqlx.DB
	source   TenantSource
	open     Opener
	logger   *zap.Logger
	stats    *metrics.Collector

	mu    sync.Mutex
	pools map[int64]*sqlx.DB
	group singleflight.Group
}

func NewManager(platform *sqlx.DB, source TenantSource, open Opener, stats *metrics.Collector, logger *zap.Logger) *Manager {
	return &Manager{
		platform: platform,
		source:   source,
		open:     open,
		logger:   logger,
		stats:    stats,
		pools:    make(map[int64]*sqlx.DB),
	}
}

// PostgresOpener returns the production Opener: a Postgres pool bounded by
// the given limits, verified with a ping before anyone gets to use it. The
// tenant's database name is a connection property here, never query text.
func PostgresOpener(cfg config.PoolConfig, sslMode string) Opener {
	return func(ctx context.Context, t *core.Tenant) (*sqlx.DB, error) {
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s",
			t.DBHost, t.DBUser, t.DBPassword, t.DatabaseName, sslMode)

		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}
}

// Platform returns the platform database pool.
func (m *Manager) Platform() *sqlx.DB {
	return m.platform
}

// Tenant returns the cached pool for the tenant id, creating it on first
// use. Concurrent first-time calls for the same id are collapsed into a
// single creation attempt; a failed attempt is not cached, so the next call
// retries cleanly.
func (m *Manager) Tenant(ctx context.Context, id int64) (*sqlx.DB, error) {
	m.mu.Lock()
	if db, ok := m.pools[id]; ok {
		m.mu.Unlock()
		return db, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(fmt.Sprintf("%d", id), func() (interface{}, error) {
		// Re-check under the flight: a sibling may have finished between the
		// cache miss and the flight starting.
		m.mu.Lock()
		if db, ok := m.pools[id]; ok {
			m.mu.Unlock()
			return db, nil
		}
		m.mu.Unlock()

		tenant, err := m.source.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		db, err := m.open(ctx, tenant)
		if err != nil {
			if m.stats != nil {
				m.stats.RecordPoolOpen("error")
			}
			return nil, fmt.Errorf("connect tenant %d (%s): %w", id, tenant.DatabaseName, err)
		}

		m.mu.Lock()
		m.pools[id] = db
		n := len(m.pools)
		m.mu.Unlock()

		if m.stats != nil {
			m.stats.RecordPoolOpen("ok")
			m.stats.SetActivePools(n)
		}

		m.logger.Info("Opened tenant pool",
			zap.Int64("tenant_id", id),
			zap.String("database", tenant.DatabaseName),
		)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

// Evict closes and removes a tenant's pool. Called when a tenant goes
// inactive so idle connections are not leaked indefinitely.
func (m *Manager) Evict(id int64) {
	m.mu.Lock()
	db, ok := m.pools[id]
	delete(m.pools, id)
	n := len(m.pools)
	m.mu.Unlock()

	if m.stats != nil {
		m.stats.SetActivePools(n)
	}

	if ok {
		if err := db.Close(); err != nil {
			m.logger.Warn("Failed to close evicted pool",
				zap.Int64("tenant_id", id), zap.Error(err))
		}
		m.logger.Info("Evicted tenant pool", zap.Int64("tenant_id", id))
	}
}

// Len reports how many tenant pools are currently cached.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pools)
}

// Close shuts down every cached tenant pool. The platform pool is owned by
// the composition root and closed there.
func (m *Manager) Close() {
	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[int64]*sqlx.DB)
	m.mu.Unlock()

	for id, db := range pools {
		if err := db.Close(); err != nil {
			m.logger.Warn("Failed to close pool", zap.Int64("tenant_id", id), zap.Error(err))
		}
	}
}
