package platform

// The query shapes run against tenant databases are fixed and known ahead
// of time; nothing here is derived from user input, and a tenant's database
// name is a connection property of its pool, never query text. The SQL
// sticks to the portable subset so the same shapes run in tests against
// sqlite.
const (
	queryAllProperties = `
		SELECT p.id, p.property_type, p.city, p.area, p.price_usd, p.status,
			   p.created_at, p.status_changed_at, p.construction_year,
			   u.name AS agent_name
		FROM properties p
		LEFT JOIN users u ON p.agent_id = u.id
		ORDER BY p.created_at DESC`

	queryClosedProperties = `
		SELECT p.id, p.property_type, p.city, p.area, p.price_usd, p.status,
			   p.created_at, p.status_changed_at, p.construction_year
		FROM properties p
		WHERE p.status = 'closed'
		  AND p.created_at IS NOT NULL
		  AND p.status_changed_at IS NOT NULL`

	// Rows relevant to one year's closure series: created in the window or
	// closed in it. $1 = window start, $2 = window end (exclusive).
	queryClosureWindow = `
		SELECT p.id, p.property_type, p.city, p.area, p.price_usd, p.status,
			   p.created_at, p.status_changed_at, p.construction_year
		FROM properties p
		WHERE (p.created_at >= $1 AND p.created_at < $2)
		   OR (p.status = 'closed'
			   AND p.status_changed_at >= $1 AND p.status_changed_at < $2)`

	// Lead-bearing properties with their lead counts. The inner join keeps
	// only records with at least one associated lead.
	queryLeadCounts = `
		SELECT p.area, p.price_usd, p.construction_year, p.property_type,
			   COUNT(pl.client_id) AS lead_count
		FROM properties p
		JOIN property_leads pl ON p.id = pl.property_id
		WHERE p.price_usd IS NOT NULL
		GROUP BY p.id, p.area, p.price_usd, p.construction_year, p.property_type`

	// One row of per-tenant KPI counts. $1/$2 bound the current calendar
	// month.
	queryTenantCounts = `
		SELECT
			(SELECT COUNT(*) FROM properties) AS total_properties,
			(SELECT COUNT(*) FROM properties WHERE status = 'closed') AS total_closed,
			(SELECT COUNT(*) FROM users WHERE role = 'agent') AS total_agents,
			(SELECT COUNT(*) FROM clients) AS total_clients,
			(SELECT COUNT(*) FROM properties
			 WHERE created_at >= $1 AND created_at < $2) AS this_month`

	queryLocationCounts = `
		SELECT area AS key, COUNT(*) AS count
		FROM properties
		WHERE area IS NOT NULL AND area != ''
		GROUP BY area`

	queryPrices = `
		SELECT price_usd FROM properties WHERE price_usd > 0`

	queryTypeDistribution = `
		SELECT property_type AS key, COUNT(*) AS count
		FROM properties
		GROUP BY property_type`

	queryStatusDistribution = `
		SELECT status AS key, COUNT(*) AS count
		FROM properties
		GROUP BY status`

	queryAllClients = `
		SELECT c.id, c.type, c.name, c.phone, c.email, c.created_at
		FROM clients c
		ORDER BY c.created_at DESC`

	queryAllAgents = `
		SELECT u.id, u.name, u.email, u.role, u.created_at
		FROM users u
		WHERE u.role = 'agent'
		ORDER BY u.created_at DESC`

	// Per-tenant summary row for the sync operation.
	querySummaryCounts = `
		SELECT
			(SELECT COUNT(*) FROM properties) AS total_properties,
			(SELECT COALESCE(AVG(price_usd), 0) FROM properties
			 WHERE price_usd IS NOT NULL) AS avg_price_usd,
			(SELECT COUNT(*) FROM clients WHERE type = 'lead') AS leads_count`
)

// countsRow binds queryTenantCounts.
type countsRow struct {
	TotalProperties int `db:"total_properties"`
	TotalClosed     int `db:"total_closed"`
	TotalAgents     int `db:"total_agents"`
	TotalClients    int `db:"total_clients"`
	ThisMonth       int `db:"this_month"`
}

// priceRow binds queryPrices.
type priceRow struct {
	PriceUSD float64 `db:"price_usd"`
}

// summaryRow binds querySummaryCounts.
type summaryRow struct {
	TotalProperties int     `db:"total_properties"`
	AvgPriceUSD     float64 `db:"avg_price_usd"`
	LeadsCount      int     `db:"leads_count"`
}
