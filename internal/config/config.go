package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Platform  DatabaseConfig
	Pools     PoolConfig
	Aggregate AggregateConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

// DatabaseConfig holds the coordinates of the platform database, the one
// database that is ours rather than a tenant's.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AggregateConfig struct {
	// QueryTimeout bounds each per-tenant query independently. A slow tenant
	// times out alone; siblings keep running.
	QueryTimeout time.Duration
	// RateLimit throttles the cross-tenant endpoints, in requests per second
	// with the given burst.
	RateLimit      float64
	RateLimitBurst int
}

type AuthConfig struct {
	JWTSecret string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("PROPSTACK")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("platform.host", "localhost")
	viper.SetDefault("platform.port", 5432)
	viper.SetDefault("platform.user", "postgres")
	viper.SetDefault("platform.name", "platform_db")
	viper.SetDefault("platform.sslmode", "disable")
	viper.SetDefault("pools.maxopenconns", 10)
	viper.SetDefault("pools.maxidleconns", 5)
	viper.SetDefault("pools.connmaxlifetime", "5m")
	viper.SetDefault("aggregate.querytimeout", "15s")
	viper.SetDefault("aggregate.ratelimit", 5)
	viper.SetDefault("aggregate.ratelimitburst", 10)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if host := os.Getenv("PLATFORM_DB_HOST"); host != "" {
		cfg.Platform.Host = host
	}
	if pass := os.Getenv("PLATFORM_DB_PASSWORD"); pass != "" {
		cfg.Platform.Password = pass
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	return &cfg, nil
}
