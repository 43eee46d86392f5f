// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the full service configuration.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	MySQL MySQLConfig
	Redis RedisConfig
	Cache CacheConfig
	JWT   JWTConfig

	DDEnv     string `env:"DD_ENV"`
	DDService string `env:"DD_SERVICE" envDefault:"user-service"`
	DDVersion string `env:"DD_VERSION"`
	DDAgent   string `env:"DD_AGENT_HOST" envDefault:"localhost"`
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string `env:"MYSQL_HOST" envDefault:"localhost"`
	Port     int    `env:"MYSQL_PORT" envDefault:"3306"`
	User     string `env:"MYSQL_USER" envDefault:"root"`
	Password string `env:"MYSQL_PASSWORD"`
	Database string `env:"MYSQL_DATABASE" envDefault:"user_service"`
}

// DSN returns the go-sql-driver connection string. parseTime is required
// so DATE columns scan into time.Time.
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host string `env:"REDIS_HOST" envDefault:"localhost"`
	Port int    `env:"REDIS_PORT" envDefault:"6379"`
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds the cached snapshot TTLs.
type CacheConfig struct {
	UserTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"10m"`
	CardTTL time.Duration `env:"CARD_CACHE_TTL" envDefault:"5m"`
}

// JWTConfig holds the token verification settings.
type JWTConfig struct {
	SecretKey string `env:"JWT_SECRET_KEY,required"`
}

// Load parses the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
