package core

import (
	"time"
)

const PropertyStatusClosed = "closed"

// PropertyRow is the row shape the cross-tenant property queries bind into.
// Nullable columns use pointers so a tenant with sparse data still scans.
type PropertyRow struct {
	ID               int64      `json:"id" db:"id"`
	PropertyType     string     `json:"property_type" db:"property_type"`
	City             string     `json:"city" db:"city"`
	Area             string     `json:"area" db:"area"`
	PriceUSD         *float64   `json:"price_usd" db:"price_usd"`
	Status           string     `json:"status" db:"status"`
	CreatedAt        *time.Time `json:"created_at" db:"created_at"`
	StatusChangedAt  *time.Time `json:"status_changed_at" db:"status_changed_at"`
	ConstructionYear *int       `json:"construction_year" db:"construction_year"`
	AgentName        *string    `json:"agent_name,omitempty" db:"agent_name"`
}

// LeadRow is one lead-bearing property with its aggregated lead count.
type LeadRow struct {
	Area             string   `json:"area" db:"area"`
	PriceUSD         *float64 `json:"price_usd" db:"price_usd"`
	ConstructionYear *int     `json:"construction_year" db:"construction_year"`
	PropertyType     string   `json:"property_type" db:"property_type"`
	LeadCount        int      `json:"lead_count" db:"lead_count"`
}

type ClientRow struct {
	ID        int64      `json:"id" db:"id"`
	Type      string     `json:"type" db:"type"`
	Name      string     `json:"name" db:"name"`
	Phone     *string    `json:"phone" db:"phone"`
	Email     *string    `json:"email" db:"email"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

type UserRow struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     *string    `json:"email" db:"email"`
	Role      string     `json:"role" db:"role"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// KeyCountRow is a generic (key, count) pair from a GROUP BY query.
type KeyCountRow struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}
