package platform

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/aggregate"
	"github.com/fmachado/propstack/internal/core"
)

// SyncOutcome reports one tenant's result from a summary sync run.
type SyncOutcome struct {
	TenantID int64  `json:"tenant_id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// SyncReport is the result of materializing every tenant's performance
// summary into the platform database.
type SyncReport struct {
	RunID    string        `json:"run_id"`
	SyncedAt time.Time     `json:"synced_at"`
	Outcomes []SyncOutcome `json:"results"`
}

// SyncSummaries fans out the summary counts to every active tenant and
// upserts one snapshot row per reachable tenant into the platform
// database. Tenants that fail to answer are reported, not fatal.
func (s *Service) SyncSummaries(ctx context.Context) (*SyncReport, error) {
	counts, err := aggregate.Query[summaryRow](ctx, s.engine, aggregate.Request{SQL: querySummaryCounts})
	if err != nil {
		return nil, err
	}

	types, err := aggregate.Query[core.KeyCountRow](ctx, s.engine, aggregate.Request{SQL: queryTypeDistribution})
	if err != nil {
		return nil, err
	}

	// Index type histograms by tenant so the two fan-outs can be joined.
	typesByTenant := map[int64][]core.KeyCountRow{}
	for _, e := range types.Entries {
		if e.OK() {
			typesByTenant[e.TenantID] = e.Rows
		}
	}

	report := &SyncReport{
		RunID:    uuid.New().String(),
		SyncedAt: s.now(),
	}

	for _, e := range counts.Entries {
		if !e.OK() {
			report.Outcomes = append(report.Outcomes, SyncOutcome{
				TenantID: e.TenantID, Status: "failed", Error: e.Err,
			})
			continue
		}

		var row summaryRow
		if len(e.Rows) > 0 {
			row = e.Rows[0]
		}

		histogram := map[string]int{}
		for _, t := range typesByTenant[e.TenantID] {
			histogram[t.Key] = t.Count
		}
		encoded, _ := json.Marshal(histogram)

		summary := &core.TenantSummary{
			TenantID:         e.TenantID,
			TotalProperties:  row.TotalProperties,
			AvgPriceUSD:      row.AvgPriceUSD,
			PropertiesByType: string(encoded),
			LeadsCount:       row.LeadsCount,
			LastSyncAt:       report.SyncedAt,
		}

		if err := s.registry.UpsertSummary(ctx, summary); err != nil {
			s.logger.Error("Failed to store tenant summary",
				zap.Int64("tenant_id", e.TenantID), zap.Error(err))
			report.Outcomes = append(report.Outcomes, SyncOutcome{
				TenantID: e.TenantID, Status: "failed", Error: err.Error(),
			})
			continue
		}

		report.Outcomes = append(report.Outcomes, SyncOutcome{
			TenantID: e.TenantID, Status: "synced",
		})
	}

	return report, nil
}

// TenantSummary reads back a tenant's last materialized snapshot.
func (s *Service) TenantSummary(ctx context.Context, tenantID int64) (*core.TenantSummary, error) {
	return s.registry.GetSummary(ctx, tenantID)
}
