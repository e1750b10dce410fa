package config // package config loads application configuration from environment variables

import (
	"encoding/base64"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable read once at startup; nothing in this struct is
// mutated afterwards. The signing key is decoded from base64 here so that the
// token issuer never touches the raw environment.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	SigningKey     []byte        // HMAC key for access tokens, decoded from base64 JWT_SECRET
	AccessTTL      time.Duration // access token time-to-live (ACCESS_TOKEN_TTL_MS)
	RefreshTTL     time.Duration // refresh token time-to-live (REFRESH_TOKEN_TTL_MS)
	ResetTokenTTL  time.Duration // password reset token lifetime, fixed at one hour
	BcryptCost     int           // bcrypt cost for password hashing
	PriceCheckCron string        // cron expression for the price sweep (optional)
}

// Load reads configuration values from the environment and returns a Config.
// A .env file in the working directory is honored when present. Required
// variables are enforced by must() and missing values cause the process to
// exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // best effort; real deployments set the environment directly

	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		SigningKey:     mustKey("JWT_SECRET"),
		AccessTTL:      time.Duration(mustInt("ACCESS_TOKEN_TTL_MS")) * time.Millisecond,
		RefreshTTL:     time.Duration(mustInt("REFRESH_TOKEN_TTL_MS")) * time.Millisecond,
		ResetTokenTTL:  time.Hour,
		BcryptCost:     mustInt("BCRYPT_COST"),
		PriceCheckCron: os.Getenv("PRICE_CHECK_CRON"), // empty disables the sweep
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustKey decodes a required base64 environment variable into raw key bytes.
func mustKey(key string) []byte {
	s := must(key)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		log.Fatalf("invalid base64 for %s: %v", key, err)
	}
	return b
}
