package config // package config loads application configuration from environment variables

import (
	"encoding/base64" // platform secrets arrive base64-encoded
	"log"             // log is used to report configuration errors and halt execution
	"os"              // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The two secrets are stored decoded: the
// platform console hands them out base64-encoded, but the bytes are the
// actual HMAC keys.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	ClientID         string // extension client id, sent as the Client-Id header upstream
	ClientSecret     string // OAuth client secret for the token endpoint exchanges
	OAuthRedirectURL string // redirect URI registered for the authorization-code flow
	SessionSecret    []byte // decoded HMAC key for session credentials
	ReceiptSecret    []byte // decoded HMAC key for purchase receipts
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  RECEIPT_SECRET is
// optional and defaults to the session secret, matching deployments where
// the platform signs both credential classes with one key.
func Load() Config {
	cfg := Config{
		Env:              must("APP_ENV"),           // environment (dev/test/prod)
		Port:             must("APP_PORT"),          // port to bind the HTTP server
		DBUser:           must("DB_USER"),           // database user
		DBPass:           os.Getenv("DB_PASS"),      // database password (empty allowed)
		DBHost:           must("DB_HOST"),           // database host
		DBPort:           must("DB_PORT"),           // database port
		DBName:           must("DB_NAME"),           // database name
		ClientID:         must("EXT_CLIENT_ID"),     // extension client id
		ClientSecret:     must("EXT_CLIENT_SECRET"), // OAuth client secret
		OAuthRedirectURL: must("OAUTH_REDIRECT_URL"),
	}
	cfg.SessionSecret = mustSecret("EXT_SECRET")
	if raw := os.Getenv("RECEIPT_SECRET"); raw != "" {
		cfg.ReceiptSecret = decodeSecret("RECEIPT_SECRET", raw)
	} else {
		cfg.ReceiptSecret = cfg.SessionSecret
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustSecret is like must() but base64-decodes the retrieved value.
func mustSecret(key string) []byte {
	return decodeSecret(key, must(key))
}

// decodeSecret decodes a base64 secret, exiting on malformed input so a
// typo in deployment config cannot silently produce a key that verifies
// nothing.
func decodeSecret(key, raw string) []byte {
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		log.Fatalf("invalid base64 for %s: %v", key, err)
	}
	return b
}
