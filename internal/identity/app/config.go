package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer string // Required: issuer claim for tokens

	AccessSecret  string // Required: HMAC secret for access tokens
	RefreshSecret string // Required: HMAC secret for refresh tokens, must differ

	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 7d)

	ResetTokenTTL    time.Duration // Optional: reset link token lifetime (default: 30m)
	ResetOTPTTL      time.Duration // Optional: reset OTP lifetime (default: 10m)
	ResetMaxAttempts int           // Optional: OTP attempts before forced revocation (default: 3)
	ResetOTPDigits   int           // Optional: OTP length (default: 6)

	SeedStaffEmail       string // Optional: provision a staff account on boot
	SeedStaffPassword    string // Optional: password for the seeded staff account
	SeedCustomerEmail    string // Optional: provision a customer account on boot
	SeedCustomerPassword string // Optional: password for the seeded customer account

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./identity.db)
	PepperFile           string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer: getEnvOrDefault("IDENTITY_ISSUER", "innkeep-identity"),

		AccessSecret:  os.Getenv("IDENTITY_ACCESS_SECRET"),
		RefreshSecret: os.Getenv("IDENTITY_REFRESH_SECRET"),

		AccessTokenTTL:  getEnvLifetimeOrDefault("IDENTITY_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvLifetimeOrDefault("IDENTITY_REFRESH_TOKEN_TTL", 7*24*time.Hour),

		ResetTokenTTL:    getEnvLifetimeOrDefault("IDENTITY_RESET_TOKEN_TTL", 30*time.Minute),
		ResetOTPTTL:      getEnvLifetimeOrDefault("IDENTITY_RESET_OTP_TTL", 10*time.Minute),
		ResetMaxAttempts: getEnvIntOrDefault("IDENTITY_RESET_MAX_ATTEMPTS", 3),
		ResetOTPDigits:   getEnvIntOrDefault("IDENTITY_RESET_OTP_DIGITS", 6),

		SeedStaffEmail:       os.Getenv("IDENTITY_SEED_STAFF_EMAIL"),
		SeedStaffPassword:    os.Getenv("IDENTITY_SEED_STAFF_PASSWORD"),
		SeedCustomerEmail:    os.Getenv("IDENTITY_SEED_CUSTOMER_EMAIL"),
		SeedCustomerPassword: os.Getenv("IDENTITY_SEED_CUSTOMER_PASSWORD"),

		DatabaseFile:         getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:           getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvLifetimeOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvLifetimeOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
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

func getEnvLifetimeOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := parseLifetime(value); err == nil {
		return d
	}
	return defaultValue
}

// parseLifetime parses a token lifetime. Accepts Go duration strings
// ("15m", "90s"), a "d" suffix for days ("7d"), and unit-less values which
// default to seconds ("900" is 900 seconds).
func parseLifetime(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)

	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return time.ParseDuration(value)
}
