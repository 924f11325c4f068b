package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string

	// File assignment directories
	UploadsDir  string
	AssignedDir string

	// AuthJWKSURL enables bearer-token verification when set; empty
	// disables auth entirely (dev setups).
	AuthJWKSURL string

	// SeedDemoData loads the demo knowledge tree on startup against an
	// empty database.
	SeedDemoData bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  env,
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:  getTablePrefix(env),
		UploadsDir:   getEnv("UPLOADS_DIR", "data/uploads"),
		AssignedDir:  getEnv("ASSIGNED_DIR", "data/assigned-packages"),
		AuthJWKSURL:  getEnv("AUTH_JWKS_URL", ""),
		SeedDemoData: getEnv("SEED_DEMO_DATA", getDefaultSeed(env)) == "true",
	}
}

// getDefaultSeed enables demo seeding outside production
func getDefaultSeed(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
