package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN, empty for the in-memory store
//	-w int      bcrypt cost
//	-t int      session lifetime, minutes (0 = no expiry)
//	-s          set the Secure attribute on the session cookie
//	-k string   session cookie secret
//	-r string   Redis address for the view cache
//	-o string   allowed CORS origins, comma separated
//	-l string   log level
//	-m int      login attempts per client per minute (0 = unlimited)
//	-p          trust proxy headers for the client address
//
// Only the flags above are picked out of os.Args, so -c/-config handled by
// parseJson does not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgsWithSwitches(os.Args[1:],
		[]string{"-a", "-d", "-w", "-t", "-k", "-r", "-o", "-l", "-m"},
		[]string{"-s", "-p"},
	)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.PasswordCost, "w", config.PasswordCost, "bcrypt cost")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes, 0 = never expires)")

	fs.BoolVar(&config.CookieSecure, "s", config.CookieSecure, "secure session cookie")
	fs.StringVar(&config.SessionSecret, "k", config.SessionSecret, "session cookie secret")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.AllowedOrigins, "o", config.AllowedOrigins, "allowed CORS origins")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.IntVar(&config.LoginRateLimit, "m", config.LoginRateLimit, "login attempts per minute")
	fs.BoolVar(&config.TrustProxy, "p", config.TrustProxy, "trust X-Forwarded-For / X-Real-IP")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
