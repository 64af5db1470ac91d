package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the risk core.
type Config struct {
	Port string

	// Database
	DBPath string

	// Auth
	JWTSecret string

	// Paper-trading accounts
	DefaultStartingCapital float64

	// Risk profile presets
	RiskProfilesPath string

	// Idle per-user engines are evicted after this many minutes (0 disables).
	AccountIdleTTLMin int

	// Per-IP API rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	// Database path: prefer DB_PATH, then DATABASE_PATH for backward compatibility.
	dbPath := getEnv("DB_PATH", "")
	if dbPath == "" {
		dbPath = getEnv("DATABASE_PATH", "./data/riskcore.db")
	}

	return &Config{
		Port:                   getEnv("PORT", "8080"),
		DBPath:                 dbPath,
		JWTSecret:              getEnv("JWT_SECRET", "dev-secret"),
		DefaultStartingCapital: getEnvFloat("DEFAULT_STARTING_CAPITAL", 10000.0),
		RiskProfilesPath:       getEnv("RISK_PROFILES_PATH", "./configs/risk_profiles.yaml"),
		AccountIdleTTLMin:      getEnvInt("ACCOUNT_IDLE_TTL_MIN", 60),
		RateLimitRPS:           getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 50),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
