// Package aggregate runs the same query shape against every active tenant
// database concurrently and merges the per-tenant outcomes. One tenant's
// latency or failure never blocks or aborts the others; only losing the
// platform database itself fails the whole operation.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fmachado/propstack/internal/core"
	"github.com/fmachado/propstack/internal/metrics"
)

// TenantLister supplies the active tenant set at dispatch time. Satisfied by
// registry.Registry.
type TenantLister interface {
	ListActive(ctx context.Context) ([]core.Tenant, error)
}

// PoolSource supplies one pool per tenant id. Satisfied by pool.Manager.
type PoolSource interface {
	Tenant(ctx context.Context, id int64) (*sqlx.DB, error)
}

// Request describes one fan-out operation: a parameterized query and the
// per-tenant timeout it runs under. A zero Timeout falls back to the
// engine's default.
type Request struct {
	SQL     string
	Args    []interface{}
	Timeout time.Duration
}

type Engine struct {
	tenants TenantLister
	pools   PoolSource
	stats   *metrics.Collector
	logger  *zap.Logger

	defaultTimeout time.Duration
}

func NewEngine(tenants TenantLister, pools PoolSource, stats *metrics.Collector, logger *zap.Logger, defaultTimeout time.Duration) *Engine {
	if defaultTimeout <= 0 {
		defaultTimeout = 15 * time.Second
	}
	return &Engine{
		tenants:        tenants,
		pools:          pools,
		stats:          stats,
		logger:         logger,
		defaultTimeout: defaultTimeout,
	}
}

// Query fans req out to every active tenant and returns one entry per
// tenant, sorted by tenant id ascending regardless of completion order.
// Per-tenant failures are recorded on the entry, never returned as an
// error; the returned error is non-nil only when the registry itself is
// unreachable.
func Query[T any](ctx context.Context, e *Engine, req Request) (*Result[T], error) {
	tenants, err := e.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	if e.stats != nil {
		e.stats.ObserveFanout(len(tenants))
	}

	entries := make([]Entry[T], len(tenants))

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	g := new(errgroup.Group)
	for i, tenant := range tenants {
		i, tenant := i, tenant
		g.Go(func() error {
			entries[i] = queryOne[T](ctx, e, tenant, req, timeout)
			return nil
		})
	}
	g.Wait()

	// Completion order is whichever tenant answered first; the merged view
	// is always id-ascending so results are reproducible.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TenantID < entries[j].TenantID
	})

	return &Result[T]{Entries: entries}, nil
}

func scanInto[T any](ctx context.Context, db *sqlx.DB, req Request) ([]T, error) {
	rows := []T{}
	if err := db.SelectContext(ctx, &rows, req.SQL, req.Args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func queryOne[T any](ctx context.Context, e *Engine, tenant core.Tenant, req Request, timeout time.Duration) Entry[T] {
	entry := Entry[T]{
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
	}

	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	db, err := e.pools.Tenant(qctx, tenant.ID)
	if err != nil {
		entry.Err = err.Error()
		entry.ErrKind = KindConnection
		if errors.Is(err, core.ErrTenantNotFound) {
			entry.ErrKind = KindNotFound
		}
		e.observe(tenant.ID, "connection_error", start)
		e.logger.Warn("Tenant unreachable during aggregation",
			zap.Int64("tenant_id", tenant.ID), zap.Error(err))
		return entry
	}

	rows, err := scanInto[T](qctx, db, req)
	if err != nil {
		entry.Err = err.Error()
		entry.ErrKind = KindQuery
		e.observe(tenant.ID, "query_error", start)
		e.logger.Warn("Tenant query failed during aggregation",
			zap.Int64("tenant_id", tenant.ID), zap.Error(err))
		return entry
	}

	entry.Rows = rows
	e.observe(tenant.ID, "ok", start)
	return entry
}

func (e *Engine) observe(tenantID int64, status string, start time.Time) {
	if e.stats != nil {
		e.stats.ObserveTenantQuery(tenantID, status, time.Since(start))
	}
}
