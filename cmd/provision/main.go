// Provision registers a new tenant: creates its database, applies the
// tenant schema, and inserts the registry row in the platform database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/fmachado/propstack/internal/config"
	"github.com/fmachado/propstack/internal/db"
	"github.com/fmachado/propstack/migrations"
)

func main() {
	_ = godotenv.Load()

	name := flag.String("name", "", "tenant display name")
	database := flag.String("database", "", "tenant database name (defaults to agency_<name>)")
	dbUser := flag.String("db-user", "", "tenant database user")
	dbPassword := flag.String("db-password", "", "tenant database password")
	flag.Parse()

	if *name == "" || *dbUser == "" {
		log.Fatal("usage: provision -name <name> -db-user <user> [-database <db>] [-db-password <pass>]")
	}

	dbName := *database
	if dbName == "" {
		dbName = "agency_" + sanitize(*name)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	platformDB, err := db.Connect(cfg.Platform, cfg.Pools)
	if err != nil {
		log.Fatal("Failed to connect to platform database:", err)
	}
	defer platformDB.Close()

	if err := db.Migrate(platformDB, migrations.FS, "platform"); err != nil {
		log.Fatal("Failed to run platform migrations:", err)
	}

	// Database names cannot be bound as parameters; dbName is built from
	// the sanitized tenant name, never raw input.
	if _, err := platformDB.Exec(fmt.Sprintf(`CREATE DATABASE %q`, dbName)); err != nil {
		log.Fatal("Failed to create tenant database:", err)
	}

	tenantCfg := cfg.Platform
	tenantCfg.Name = dbName
	tenantDB, err := sqlx.Connect("postgres", tenantCfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to tenant database:", err)
	}
	defer tenantDB.Close()

	if err := db.Migrate(tenantDB, migrations.FS, "tenant"); err != nil {
		log.Fatal("Failed to apply tenant schema:", err)
	}

	var id int64
	err = platformDB.QueryRowContext(context.Background(), `
		INSERT INTO tenants (name, database_name, db_host, db_user, db_password, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING id`,
		*name, dbName, cfg.Platform.Host, *dbUser, *dbPassword,
	).Scan(&id)
	if err != nil {
		log.Fatal("Failed to register tenant:", err)
	}

	log.Printf("Provisioned tenant %q (id=%d, database=%s)", *name, id, dbName)
}

func sanitize(name string) string {
	s := strings.ToLower(name)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return b.String()
}
