package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	// Fan-out metrics
	queryDuration *prometheus.HistogramVec
	queriesTotal  *prometheus.CounterVec
	fanoutSize    prometheus.Histogram

	// Pool metrics
	poolsActive prometheus.Gauge
	poolOpens   *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		queryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "propstack_tenant_query_duration_seconds",
				Help:    "Duration of per-tenant aggregation queries in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"tenant_id", "status"},
		),

		queriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propstack_tenant_queries_total",
				Help: "Total number of per-tenant queries dispatched by the aggregation engine",
			},
			[]string{"tenant_id", "status"},
		),

		fanoutSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "propstack_aggregation_fanout_size",
				Help:    "Number of tenants targeted by one aggregation request",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
		),

		poolsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "propstack_tenant_pools_active",
				Help: "Number of tenant connection pools currently cached",
			},
		),

		poolOpens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "propstack_tenant_pool_opens_total",
				Help: "Tenant pool creation attempts by outcome",
			},
			[]string{"status"},
		),
	}
}

func (c *Collector) ObserveTenantQuery(tenantID int64, status string, d time.Duration) {
	id := strconv.FormatInt(tenantID, 10)
	c.queryDuration.WithLabelValues(id, status).Observe(d.Seconds())
	c.queriesTotal.WithLabelValues(id, status).Inc()
}

func (c *Collector) ObserveFanout(tenants int) {
	c.fanoutSize.Observe(float64(tenants))
}

func (c *Collector) SetActivePools(n int) {
	c.poolsActive.Set(float64(n))
}

func (c *Collector) RecordPoolOpen(status string) {
	c.poolOpens.WithLabelValues(status).Inc()
}
