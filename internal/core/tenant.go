package core

import (
	"time"
)

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Tenant is one row in the platform database. Each tenant owns an isolated
// agency database with an identical schema; the connection coordinates held
// here are the only place that database is ever named.
type Tenant struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	DatabaseName string `json:"database_name" db:"database_name"`

	// Connection coordinates
	DBHost     string `json:"-" db:"db_host"`
	DBUser     string `json:"-" db:"db_user"`
	DBPassword string `json:"-" db:"db_password"`

	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (t *Tenant) Active() bool {
	return t.Status == TenantStatusActive
}

// TenantSummary is the materialized per-tenant performance snapshot written
// to the platform database by the sync operation.
type TenantSummary struct {
	TenantID         int64     `json:"tenant_id" db:"tenant_id"`
	TotalProperties  int       `json:"total_properties" db:"total_properties"`
	AvgPriceUSD      float64   `json:"avg_price_usd" db:"avg_price_usd"`
	PropertiesByType string    `json:"properties_by_type" db:"properties_by_type"`
	LeadsCount       int       `json:"leads_count" db:"leads_count"`
	LastSyncAt       time.Time `json:"last_sync_at" db:"last_sync_at"`
}
