// Package config handles configuration for the server component,
// including defaults, environment, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/medialog/internal/common"
)

// Config holds runtime settings for the medialog server.
//
// Fields:
//   - HTTPAddr: bind address of the REST API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing session tokens (HS256). A random
//     key is generated when empty, so sessions do not survive a restart.
//   - AdminPassword: the single admin password.
//   - SessionTTL: lifetime of an admin session.
//   - CORSOrigins: allowed browser origins.
//   - LoginRateLimit: login attempts per client IP and minute, 0 disables.
//   - LogLevel / LogFormat: slog level and "text" or "json".
type Config struct {
	HTTPAddr       string
	DatabaseDSN    string
	SecretKey      string
	AdminPassword  string
	SessionTTL     time.Duration
	CORSOrigins    []string
	LoginRateLimit int
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the admin password must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.AdminPassword = "play123"
	c.SessionTTL = 24 * time.Hour
	c.CORSOrigins = []string{"*"}
	c.LoginRateLimit = 10
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (including a .env file), an optional JSON file and
// finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, ".env")
	parseJson(cfg)
	parseFlags(cfg)
	if err := cfg.ensureSecret(); err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) ensureSecret() error {
	if c.SecretKey != "" {
		return nil
	}
	key, err := common.MakeRandHexString(32)
	if err != nil {
		return fmt.Errorf("generate secret key: %w", err)
	}
	c.SecretKey = key
	return nil
}
