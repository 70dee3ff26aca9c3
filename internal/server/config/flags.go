package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/medialog/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN
//	-s string   session signing key
//	-p string   admin password
//	-t int      session lifetime, minutes
//	-o string   comma separated CORS origins
//	-r int      login attempts per IP and minute
//	-l string   log level
//	-f string   log format (text, json)
//
// Only the flags defined here are parsed, so the -c/-config flag handled by
// parseJson does not trip the parser.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminPassword, "p", config.AdminPassword, "admin password")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session lifetime (in minutes)")
	origins := fs.String("o", strings.Join(config.CORSOrigins, ","), "allowed CORS origins")

	fs.IntVar(&config.LoginRateLimit, "r", config.LoginRateLimit, "login attempts per IP and minute")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	if err := flagx.ParseKnown(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.CORSOrigins = splitList(*origins)
}
