// Package config loads process-wide configuration once at startup.
package config

import "time"

// Config holds runtime configuration for the API service.
type Config struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	MigrateOnBoot      bool
	EncryptionKey      string
	TokenTTL           time.Duration
	LogBuffer          int
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// Load constructs a Config from environment variables. The ENCRYPTION_KEY
// fallback exists for local development only; a production deployment that
// runs with it unset is misconfigured.
func Load() Config {
	return Config{
		Environment:        GetString("ENVIRONMENT", "development"),
		Addr:               GetString("API_ADDR", ":8080"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://launchlane:launchlane@db:5432/launchlane?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		MigrateOnBoot:      GetBool("DB_AUTO_MIGRATE", true),
		EncryptionKey:      GetString("ENCRYPTION_KEY", "encryption-key"),
		TokenTTL:           time.Duration(GetInt("TOKEN_TTL_MIN", 60)) * time.Minute,
		LogBuffer:          GetInt("WS_LOG_BUFFER", 100),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
