// Package config loads application configuration from environment
// variables. Required values are enforced with fatal log messages at
// startup; tunables fall back to sensible defaults.
package config

import (
	"log"
	"os"
	"strconv"
)

// devJWTSecret is the fallback signing secret used when JWT_SECRET is
// unset outside production. It exists so a fresh checkout runs without
// ceremony; in prod an unset secret is a startup failure, never this.
const devJWTSecret = "dev-secret-do-not-use-in-prod"

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable.
type Config struct {
	Env          string // application environment ("dev", "test", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	JWTSecret    string // secret used to sign access tokens
	TokenTTLDays int    // access token time-to-live in days
	BcryptCost   int    // bcrypt cost for password hashing
}

// Load reads configuration from the environment and returns a Config.
// Missing required variables abort the process. The JWT secret is
// required in prod; elsewhere an unset JWT_SECRET falls back to a fixed
// dev secret with a loud warning so it can never sneak into production
// silently.
func Load() Config {
	cfg := Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TokenTTLDays: intOr("TOKEN_TTL_DAYS", 7),
		BcryptCost:   intOr("BCRYPT_COST", 12),
	}
	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			log.Fatal("JWT_SECRET must be set in prod")
		}
		log.Printf("WARNING: JWT_SECRET not set, using insecure dev secret (env=%s)", cfg.Env)
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

// IsProd reports whether the service runs in the production environment.
// Error responses include detail only when this is false.
func (c Config) IsProd() bool { return c.Env == "prod" }

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr parses an optional integer environment variable, returning def
// when the variable is unset or unparseable.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
