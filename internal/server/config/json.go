package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskboard/internal/flagx"
	"github.com/dmitrijs2005/taskboard/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Pointer
// fields distinguish "absent" from "zero", so a partial file only
// overrides what it mentions.
type JsonConfig struct {
	HTTPAddr       *string         `json:"http_addr"`
	DatabaseDSN    *string         `json:"database_dsn"`
	PasswordCost   *int            `json:"password_cost"`
	SessionTTL     *timex.Duration `json:"session_ttl"`
	CookieSecure   *bool           `json:"cookie_secure"`
	SessionSecret  *string         `json:"session_secret"`
	RedisAddr      *string         `json:"redis_addr"`
	AllowedOrigins *string         `json:"allowed_origins"`
	LogLevel       *string         `json:"log_level"`
	LoginRateLimit *int            `json:"login_rate_limit"`
	TrustProxy     *bool           `json:"trust_proxy"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Without the flag nothing happens. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.PasswordCost, c.PasswordCost)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.SessionSecret, c.SessionSecret)
	setIf(&config.RedisAddr, c.RedisAddr)
	setIf(&config.AllowedOrigins, c.AllowedOrigins)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.LoginRateLimit, c.LoginRateLimit)
	setIf(&config.TrustProxy, c.TrustProxy)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
