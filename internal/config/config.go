package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProviderCredentials holds one OAuth provider's client configuration. A
// provider with an empty ClientID or ClientSecret is treated as not configured.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Configured reports whether the provider can be activated
func (p ProviderCredentials) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// Config holds all configuration values for the gateway
type Config struct {
	Port        string
	LogLevel    string
	Environment string

	// Secrets. All three are required; Load fails without them.
	JWTSecret     string
	SessionSecret string
	AdminPassword string

	// DownstreamURL is the only target a token-bearing redirect may use. Its
	// hostname is checked against AllowedRedirectHosts once, at load time.
	DownstreamURL        string
	AllowedRedirectHosts []string

	DatabaseURL string
	RedisURL    string

	Google ProviderCredentials
	GitHub ProviderCredentials

	TokenTTL     time.Duration
	SessionTTL   time.Duration
	CookieSecure bool

	BodyLimit       int64
	RateLimitWindow time.Duration
	RateLimitGlobal int
	RateLimitAuth   int
	RateLimitAdmin  int

	// ContentSecurityPolicy maps CSP directives to their allowed sources.
	ContentSecurityPolicy map[string][]string

	StaticDir string
}

const defaultDownstreamURL = "https://archie.averroes.cloud"

// Load loads configuration from environment variables and validates it. Any
// missing secret or a downstream URL outside the redirect allowlist is a fatal
// configuration error.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Environment:   getEnv("ENVIRONMENT", "production"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		DownstreamURL:        getEnv("DOWNSTREAM_URL", defaultDownstreamURL),
		AllowedRedirectHosts: parseList(getEnv("ALLOWED_REDIRECT_HOSTS", "archie.averroes.cloud")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		Google: ProviderCredentials{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			CallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "https://averroes.cloud/auth/google/callback"),
		},
		GitHub: ProviderCredentials{
			ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			CallbackURL:  getEnv("GITHUB_CALLBACK_URL", "https://averroes.cloud/auth/github/callback"),
		},

		TokenTTL:     getDurationEnv("TOKEN_TTL", 24*time.Hour),
		SessionTTL:   getDurationEnv("SESSION_TTL", 24*time.Hour),
		CookieSecure: getBoolEnv("COOKIE_SECURE", true),

		BodyLimit:       1 << 10, // 1KB, bodies on this surface are tiny
		RateLimitWindow: getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitGlobal: getIntEnv("RATE_LIMIT_GLOBAL", 100),
		RateLimitAuth:   getIntEnv("RATE_LIMIT_AUTH", 20),
		RateLimitAdmin:  getIntEnv("RATE_LIMIT_ADMIN", 5),

		ContentSecurityPolicy: defaultContentSecurityPolicy(),

		StaticDir: os.Getenv("STATIC_DIR"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.AdminPassword == "" {
		missing = append(missing, "ADMIN_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required configuration: DATABASE_URL")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("missing required configuration: REDIS_URL")
	}

	u, err := url.Parse(c.DownstreamURL)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("DOWNSTREAM_URL %q is not a valid URL", c.DownstreamURL)
	}
	if !c.hostAllowed(u.Hostname()) {
		return fmt.Errorf("DOWNSTREAM_URL hostname %q is not in the redirect allowlist", u.Hostname())
	}

	return nil
}

func (c *Config) hostAllowed(host string) bool {
	for _, h := range c.AllowedRedirectHosts {
		if h == host {
			return true
		}
	}
	return false
}

// defaultContentSecurityPolicy is the directive set served on every response.
// Sources cover the OAuth consent screens and the providers' avatar hosts.
func defaultContentSecurityPolicy() map[string][]string {
	return map[string][]string{
		"default-src": {"'self'"},
		"script-src":  {"'self'", "'unsafe-inline'", "https://accounts.google.com", "https://apis.google.com"},
		"style-src":   {"'self'", "'unsafe-inline'"},
		"font-src":    {"'self'"},
		"img-src":     {"'self'", "data:", "https://lh3.googleusercontent.com", "https://avatars.githubusercontent.com"},
		"connect-src": {"'self'"},
		"frame-src":   {"https://accounts.google.com"},
		"object-src":  {"'none'"},
		"base-uri":    {"'self'"},
		"form-action": {"'self'", "https://accounts.google.com", "https://github.com"},
	}
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseList parses a comma-separated value into a slice
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
