package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	JWTSecret          string
	TokenTTL           time.Duration
	BcryptCost         int
	CORSEnabled        bool
	CORSAllowOrigin    string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
// JWT_SECRET deliberately has no fallback: an empty signing secret is a
// fatal startup condition enforced by the caller.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":5000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://taskhive:taskhive@db:5432/taskhive?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:          GetString("JWT_SECRET", ""),
		TokenTTL:           time.Duration(GetInt("TOKEN_TTL_MIN", 60)) * time.Minute,
		BcryptCost:         GetInt("BCRYPT_COST", 0),
		CORSEnabled:        GetBool("CORS_ENABLED", true),
		CORSAllowOrigin:    GetString("CORS_ALLOW_ORIGIN", "*"),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
