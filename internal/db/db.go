package db

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fmachado/propstack/internal/config"
)

// Connect opens the platform database pool with the configured bounds.
func Connect(cfg config.DatabaseConfig, limits config.PoolConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(limits.MaxOpenConns)
	db.SetMaxIdleConns(limits.MaxIdleConns)
	db.SetConnMaxLifetime(limits.ConnMaxLifetime)

	return db, nil
}
