package analytics

import (
	"math"
	"sort"

	"github.com/fmachado/propstack/internal/core"
)

type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GlobalStats is the platform-wide KPI rollup. Everything here is a sum or
// rate over per-tenant counts; nothing is persisted.
type GlobalStats struct {
	TotalProperties     int        `json:"total_properties"`
	TotalClosed         int        `json:"total_closed"`
	TotalAgents         int        `json:"total_agents"`
	TotalClients        int        `json:"total_clients"`
	PropertiesThisMonth int        `json:"properties_this_month"`
	ClosureRate         float64    `json:"closure_rate"`
	TopLocations        []KeyCount `json:"top_locations"`
	TopPriceRanges      []KeyCount `json:"top_price_ranges"`
	TenantCount         int        `json:"tenant_count"`
	DegradedTenants     int        `json:"degraded_tenants"`
}

// ClosureRate is closed/total as a percentage rounded to two decimals, 0
// when there is nothing to rate.
func ClosureRate(closed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(closed)/float64(total)*10000) / 100
}

// MergeCounts sums (key, count) rows from many tenants into one map.
func MergeCounts(dst map[string]int, rows []core.KeyCountRow) {
	for _, row := range rows {
		if row.Key == "" {
			continue
		}
		dst[row.Key] += row.Count
	}
}

// TopCounts returns the n largest entries, count descending with key
// ascending on ties for a reproducible order.
func TopCounts(counts map[string]int, n int) []KeyCount {
	out := make([]KeyCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, KeyCount{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// PriceRangeCounts buckets raw prices and counts them per range.
func PriceRangeCounts(prices []float64) map[string]int {
	counts := map[string]int{}
	for _, p := range prices {
		if p <= 0 {
			continue
		}
		counts[BudgetBucket(p)]++
	}
	return counts
}

// Distribution merges grouped (key, count) rows across tenants and sorts
// them count descending, key ascending on ties. Used for the property type
// and status donut views.
func Distribution(rows []core.KeyCountRow) []KeyCount {
	counts := map[string]int{}
	MergeCounts(counts, rows)
	return TopCounts(counts, 0)
}
