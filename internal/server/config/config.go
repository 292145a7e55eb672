// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the taskboard server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - PasswordCost: bcrypt work factor for new password hashes.
//   - SessionTTL: how long a session stays valid; 0 disables expiry.
//   - CookieSecure: mark the session cookie Secure (HTTPS deployments).
//   - SessionSecret: key used to authenticate the session cookie.
//   - RedisAddr: optional Redis for the board/dashboard cache. Empty disables it.
//   - AllowedOrigins: comma separated CORS origins for the browser client.
//   - LogLevel: debug, info, warn or error.
//   - LoginRateLimit: login attempts allowed per client per minute; 0 disables the limit.
//   - TrustProxy: take the client address from X-Forwarded-For and friends.
//     Only enable behind a reverse proxy that overwrites those headers.
type Config struct {
	HTTPAddr       string
	DatabaseDSN    string
	PasswordCost   int
	SessionTTL     time.Duration
	CookieSecure   bool
	SessionSecret  string
	RedisAddr      string
	AllowedOrigins string
	LogLevel       string
	LoginRateLimit int
	TrustProxy     bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: SessionSecret must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = ""
	c.PasswordCost = 10
	c.SessionTTL = 0
	c.CookieSecure = false
	c.SessionSecret = "dev-session-secret-change-me-32by"
	c.RedisAddr = ""
	c.AllowedOrigins = "http://localhost:3000"
	c.LogLevel = "info"
	c.LoginRateLimit = 10
	c.TrustProxy = false
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
