package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer   string // Required: issuer claim for tokens
	Audience string // Audience claim for tokens

	Algorithm      string // Optional: JWT signing algorithm (RS256, EdDSA) (default: RS256)
	KID            string // Optional: key identifier published in tokens and JWKS
	RSABits        int    // Optional: RSA key size for RS256 (default: 2048)
	PrivateKeyFile string // Optional: path to PEM private key; empty means ephemeral

	AdminUser     string // Admin Basic auth username
	AdminPass     string // Admin Basic auth password (plaintext; prefer AdminPassHash)
	AdminPassHash string // Admin Basic auth password as argon2id PHC hash

	DatabaseFile string // Path to SQLite audit ledger file (default: ./keygate.db)

	RevocationBackend string // "memory" or "redis" (default: memory, redis when RedisURL set)
	RedisURL          string // Redis connection URL for the shared revocation set

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Revocation sweep interval, memory backend only (default: 10m)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("KEYGATE_ISSUER", "keygate-issuer"),
		Audience:       getEnvOrDefault("KEYGATE_AUDIENCE", "keygate-clients"),
		Algorithm:      getEnvOrDefault("KEYGATE_ALGORITHM", "RS256"),
		KID:            getEnvOrDefault("KEYGATE_KID", "primary"),
		PrivateKeyFile: os.Getenv("KEYGATE_PRIVATE_KEY_FILE"),

		AdminUser:     getEnvOrDefault("KEYGATE_ADMIN_USER", "admin"),
		AdminPass:     os.Getenv("KEYGATE_ADMIN_PASS"),
		AdminPassHash: os.Getenv("KEYGATE_ADMIN_PASS_HASH"),

		DatabaseFile: getEnvOrDefault("KEYGATE_DATABASE_FILE", "keygate.db"),

		RevocationBackend: os.Getenv("KEYGATE_REVOCATION_BACKEND"),
		RedisURL:          os.Getenv("REDIS_URL"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 10*time.Minute),
	}

	// Parse RSA bits (only relevant for RS256)
	if rsaBitsStr := os.Getenv("KEYGATE_RSA_BITS"); rsaBitsStr != "" {
		if bits, err := strconv.Atoi(rsaBitsStr); err == nil {
			cfg.RSABits = bits
		}
		// If parsing fails, RSABits remains 0 (will use the default)
	}

	// A Redis URL implies the redis backend unless explicitly overridden.
	if cfg.RevocationBackend == "" {
		if cfg.RedisURL != "" {
			cfg.RevocationBackend = "redis"
		} else {
			cfg.RevocationBackend = "memory"
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
