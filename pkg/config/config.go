// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"finanzas/pkg/store"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "dev-insecure-secret-change"

// AdminSeed describes the user created on first start.
type AdminSeed struct {
	Nombre   string
	Email    string
	Password string
}

type Config struct {
	Env string

	// HTTP server
	Port            string
	FrontendURL     string
	GinMode         string
	ShutdownTimeout time.Duration

	// Database
	Dialect      store.Dialect
	DSN          string
	SQLitePath   string
	AutoMigrate  bool
	MaxOpenConns int

	// Auth
	JWTSecret  string
	TokenTTL   time.Duration
	RefreshTTL time.Duration

	Admin AdminSeed

	problems []string
}

// LoadDotEnv loads ./.env (or the given files) without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// Load reads the configuration from the environment. Call Validate before use.
func Load() *Config {
	cfg := &Config{
		Env:         strings.ToLower(getEnv("APP_ENV", "development")),
		Port:        getEnv("PORT", "3000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		GinMode:     getEnv("GIN_MODE", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/finanzas.db"),
		DSN:         getEnv("DB_DSN", getEnv("DATABASE_URL", "")),
		JWTSecret:   getEnv("JWT_SECRET", DefaultJWTSecret),
		Admin: AdminSeed{
			Nombre:   getEnv("SEED_ADMIN_NOMBRE", "Administrador"),
			Email:    getEnv("SEED_ADMIN_EMAIL", "admin@finanzas.corp"),
			Password: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		},
	}
	cfg.ShutdownTimeout = cfg.getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.TokenTTL = cfg.getEnvDuration("TOKEN_TTL", 8*time.Hour)
	cfg.RefreshTTL = cfg.getEnvDuration("REFRESH_TTL", 30*24*time.Hour)
	cfg.MaxOpenConns = cfg.getEnvInt("DB_MAX_OPEN_CONNS", 10)
	cfg.AutoMigrate = cfg.getEnvBool("DB_AUTO_MIGRATE", true)

	// DB_DIALECT wins; otherwise production means postgres
	if v := os.Getenv("DB_DIALECT"); v != "" {
		d, err := store.ParseDialect(v)
		if err != nil {
			cfg.problems = append(cfg.problems, err.Error())
		}
		cfg.Dialect = d
	} else if cfg.IsProduction() {
		cfg.Dialect = store.Postgres
	} else {
		cfg.Dialect = store.SQLite
	}
	return cfg
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Store returns the backend configuration.
func (c *Config) Store() store.Config {
	return store.Config{
		Dialect:      c.Dialect,
		SQLitePath:   c.SQLitePath,
		PostgresDSN:  c.DSN,
		MaxOpenConns: c.MaxOpenConns,
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	errs := append([]string(nil), c.problems...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Dialect {
	case store.Postgres:
		if c.DSN == "" {
			errs = append(errs, "DB_DSN is required when using postgres")
		}
	case store.SQLite:
		if c.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH cannot be empty when using sqlite")
		}
	default:
		if len(c.problems) == 0 {
			errs = append(errs, fmt.Sprintf("invalid database dialect '%s'", c.Dialect))
		}
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET cannot be empty")
	} else if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, "JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid token ttl %v: must be positive", c.TokenTTL))
	}
	if c.RefreshTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid refresh ttl %v: must be positive", c.RefreshTTL))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}
	if c.MaxOpenConns < 0 {
		errs = append(errs, fmt.Sprintf("invalid max open conns %d", c.MaxOpenConns))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// AllowedOrigins returns the CORS allow-list.
func (c *Config) AllowedOrigins() []string {
	origins := []string{"http://localhost:5173"}
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be a number", key, value))
		return defaultValue
	}
	return i
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("invalid %s '%s': must be a duration", key, value))
		return defaultValue
	}
	return d
}

func (c *Config) getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "":
		return defaultValue
	case "false", "0", "no", "off":
		return false
	default:
		return true
	}
}
