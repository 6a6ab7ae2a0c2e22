package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/medpraxis/praxis/internal/platform/db"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	DBMaxConnLife   time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	DBMaxConnIdle   time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`
	AuthIssuer      string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience    string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL     string        `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey  string        `mapstructure:"AUTH_SIGNING_KEY"`
	RolePolicyFile  string        `mapstructure:"ROLE_POLICY_FILE"`
	DefaultLanguage string        `mapstructure:"DEFAULT_LANGUAGE"`
	MigrationsDir   string        `mapstructure:"MIGRATIONS_DIR"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"DB_MAX_CONN_LIFETIME", "DB_MAX_CONN_IDLE_TIME",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL", "AUTH_SIGNING_KEY",
	"ROLE_POLICY_FILE", "DEFAULT_LANGUAGE", "MIGRATIONS_DIR",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "1h")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "30m")
	v.SetDefault("DEFAULT_LANGUAGE", "de")
	v.SetDefault("MIGRATIONS_DIR", "./migrations")

	// Unmarshal only sees env vars that are bound explicitly.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ENV=development, unauthenticated requests are treated as admin.")
	}

	return cfg, nil
}

// PoolOptions returns the connection pool settings.
func (c *Config) PoolOptions() db.PoolOptions {
	return db.PoolOptions{
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLife,
		MaxConnIdleTime: c.DBMaxConnIdle,
	}
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuthMode is "development", "shared-key" (AUTH_SIGNING_KEY, HS256) or
// "jwks" (AUTH_JWKS_URL, RS256).
func (c *Config) AuthMode() string {
	switch {
	case c.IsDev():
		return "development"
	case c.AuthSigningKey != "":
		return "shared-key"
	default:
		return "jwks"
	}
}

// Validate checks that a non-development server has a way to verify tokens.
func (c *Config) Validate() error {
	if c.AuthMode() == "jwks" && c.AuthJWKSURL == "" {
		return fmt.Errorf("AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 characters, got %d", len(c.AuthSigningKey))
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
