// Package migrations embeds the SQL migration files. The platform set
// covers the platform database; the tenant set is the schema every tenant
// database must expose.
package migrations

import "embed"

//go:embed platform/*.sql tenant/*.sql
var FS embed.FS
