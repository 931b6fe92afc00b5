package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer       string // Issuer claim for minted tokens (default: blufox-auth)
	SiteURL      string // Optional: where the callback redirects after login
	DatabaseFile string // Path to SQLite database file (default: ./blufox.db)
	SigningKey   string // Optional: path to Ed25519 PKCS8 PEM key; ephemeral if unset

	OAuthClientID     string // Required: provider client id
	OAuthClientSecret string // Required: provider client secret
	OAuthAuthorizeURL string // Required: provider authorize endpoint
	OAuthTokenURL     string // Required: provider token endpoint
	OAuthUserInfoURL  string // Required: provider userinfo endpoint
	OAuthProfileURL   string // Optional: provider profile enrichment endpoint
	OAuthRevokeURL    string // Optional: provider token revocation endpoint
	OAuthRedirectURI  string // Required: registered callback URI
	OAuthScopes       []string
	OAuthPrompt       string

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	SessionTTL  time.Duration // Server-side session lifetime (default: 24h)
	RememberTTL time.Duration // Remember-me cookie lifetime (default: 30 days)
	StateTTL    time.Duration // Pending authorization state lifetime (default: 10m)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("BLUFOX_ISSUER", "blufox-auth"),
		SiteURL:      os.Getenv("BLUFOX_SITE_URL"),
		DatabaseFile: getEnvOrDefault("BLUFOX_DATABASE_FILE", "blufox.db"),
		SigningKey:   os.Getenv("BLUFOX_SIGNING_KEY_FILE"),

		OAuthClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		OAuthAuthorizeURL: os.Getenv("OAUTH_AUTHORIZE_URL"),
		OAuthTokenURL:     os.Getenv("OAUTH_TOKEN_URL"),
		OAuthUserInfoURL:  os.Getenv("OAUTH_USERINFO_URL"),
		OAuthProfileURL:   os.Getenv("OAUTH_PROFILE_URL"),
		OAuthRevokeURL:    os.Getenv("OAUTH_REVOKE_URL"),
		OAuthRedirectURI:  os.Getenv("OAUTH_REDIRECT_URI"),
		OAuthPrompt:       os.Getenv("OAUTH_PROMPT"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		SessionTTL:  getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		RememberTTL: getEnvDurationOrDefault("REMEMBER_TTL", 30*24*time.Hour),
		StateTTL:    getEnvDurationOrDefault("OAUTH_STATE_TTL", 10*time.Minute),
	}

	scopes := getEnvOrDefault("OAUTH_SCOPES", "identify email")
	cfg.OAuthScopes = strings.Fields(scopes)

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

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
