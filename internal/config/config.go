package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string

	// Supabase (auth + landmark cache)
	SupabaseURL     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json

	// Search providers
	ExaAPIKey     string
	ExaBaseURL    string
	MapboxToken   string
	MapboxBaseURL string

	// Geocoding behavior
	DefaultCity string
	MapboxRPS   string // requests per second budget for the geocoder

	// Orchestration
	PersistFresh bool // write fresh semantic results back into the cache

	// Logging
	LogDir      string // when set, logs also go to timestamped files here
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		SupabaseURL:     supabaseURL,
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,

		ExaAPIKey:     getEnv("EXA_API_KEY", ""),
		ExaBaseURL:    getEnv("EXA_BASE_URL", "https://api.exa.ai"),
		MapboxToken:   getEnv("MAPBOX_ACCESS_TOKEN", ""),
		MapboxBaseURL: getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),

		DefaultCity: getEnv("DEFAULT_CITY", "singapore"),
		MapboxRPS:   getEnv("MAPBOX_RPS", "5"),

		PersistFresh: getEnv("PERSIST_FRESH_RESULTS", "false") == "true",

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: 10,
	}
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
