package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "test-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Port != "8080" {
			t.Errorf("Port = %q, want %q", cfg.Port, "8080")
		}
		if cfg.Cache.UserTTL != 10*time.Minute {
			t.Errorf("UserTTL = %v, want 10m", cfg.Cache.UserTTL)
		}
		if cfg.Cache.CardTTL != 5*time.Minute {
			t.Errorf("CardTTL = %v, want 5m", cfg.Cache.CardTTL)
		}
		if got := cfg.MySQL.DSN(); got != "root:@tcp(localhost:3306)/user_service?parseTime=true" {
			t.Errorf("DSN() = %q", got)
		}
		if got := cfg.Redis.Addr(); got != "localhost:6379" {
			t.Errorf("Addr() = %q", got)
		}
		if cfg.DDService != "user-service" {
			t.Errorf("DDService = %q, want %q", cfg.DDService, "user-service")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "test-secret")
		t.Setenv("PORT", "9000")
		t.Setenv("MYSQL_HOST", "db")
		t.Setenv("MYSQL_PASSWORD", "pw")
		t.Setenv("REDIS_HOST", "cache")
		t.Setenv("USER_CACHE_TTL", "30s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Port != "9000" {
			t.Errorf("Port = %q, want %q", cfg.Port, "9000")
		}
		if got := cfg.MySQL.DSN(); got != "root:pw@tcp(db:3306)/user_service?parseTime=true" {
			t.Errorf("DSN() = %q", got)
		}
		if got := cfg.Redis.Addr(); got != "cache:6379" {
			t.Errorf("Addr() = %q", got)
		}
		if cfg.Cache.UserTTL != 30*time.Second {
			t.Errorf("UserTTL = %v, want 30s", cfg.Cache.UserTTL)
		}
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		// t.Setenv registers the restore, Unsetenv clears any value the
		// host environment carries.
		t.Setenv("JWT_SECRET_KEY", "")
		os.Unsetenv("JWT_SECRET_KEY")

		if _, err := Load(); err == nil {
			t.Fatal("Load() error = nil, want required-variable failure")
		}
	})
}
