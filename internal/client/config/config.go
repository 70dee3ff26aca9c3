package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the medialog CLI.
type Config struct {
	ServerURL           string        `mapstructure:"server_url"`
	StorageMode         string        `mapstructure:"storage_mode"`
	FallbackToLocal     bool          `mapstructure:"fallback_to_local"`
	AutoSyncInterval    time.Duration `mapstructure:"auto_sync_interval"`
	OnlineCheckInterval time.Duration `mapstructure:"online_check_interval"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	DataDir             string        `mapstructure:"data_dir"`
	CacheBackend        string        `mapstructure:"cache_backend"`
	PersistQueue        bool          `mapstructure:"persist_queue"`
	LogLevel            string        `mapstructure:"log_level"`
	LogFormat           string        `mapstructure:"log_format"`
	S3                  S3Config      `mapstructure:"s3"`
}

// S3Config addresses the bucket used by `export --s3`.
type S3Config struct {
	Endpoint     string `mapstructure:"endpoint"`
	Region       string `mapstructure:"region"`
	Bucket       string `mapstructure:"bucket"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

const envPrefix = "MEDIALOG"

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".medialog"
	}
	return filepath.Join(home, ".medialog")
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_url", "http://127.0.0.1:3000")
	v.SetDefault("storage_mode", "backend")
	v.SetDefault("fallback_to_local", true)
	v.SetDefault("auto_sync_interval", 5*time.Minute)
	v.SetDefault("online_check_interval", 3*time.Second)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("cache_backend", "sqlite")
	v.SetDefault("persist_queue", true)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_path_style", false)
}

// BindFlags registers the global flags on cmd and binds them to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	f := cmd.PersistentFlags()
	f.String("config", "", "config file path")
	f.StringP("server", "s", "", "server base URL")
	f.StringP("mode", "m", "", "storage mode (backend, local)")
	f.Bool("fallback", true, "fall back to the local cache when the server is unreachable")
	f.Duration("auto-sync", 0, "sync queue drain interval in the shell (0 disables)")
	f.Duration("online-check", 0, "connectivity probe interval in the shell")
	f.Duration("timeout", 0, "per-request timeout")
	f.String("data-dir", "", "data directory (default ~/.medialog)")
	f.String("cache", "", "local cache backend (sqlite, badger, none)")
	f.Bool("persist-queue", true, "keep the sync queue in the local database")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (text, json)")

	_ = v.BindPFlag("server_url", f.Lookup("server"))
	_ = v.BindPFlag("storage_mode", f.Lookup("mode"))
	_ = v.BindPFlag("fallback_to_local", f.Lookup("fallback"))
	_ = v.BindPFlag("auto_sync_interval", f.Lookup("auto-sync"))
	_ = v.BindPFlag("online_check_interval", f.Lookup("online-check"))
	_ = v.BindPFlag("request_timeout", f.Lookup("timeout"))
	_ = v.BindPFlag("data_dir", f.Lookup("data-dir"))
	_ = v.BindPFlag("cache_backend", f.Lookup("cache"))
	_ = v.BindPFlag("persist_queue", f.Lookup("persist-queue"))
	_ = v.BindPFlag("log_level", f.Lookup("log-level"))
	_ = v.BindPFlag("log_format", f.Lookup("log-format"))
}

// Load merges defaults, config file, environment and bound flags. A
// missing default config file is fine; a missing explicit one is not.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("medialog")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageMode {
	case "backend", "local":
	default:
		return fmt.Errorf("invalid storage_mode %q: want backend or local", c.StorageMode)
	}
	switch c.CacheBackend {
	case "sqlite", "badger", "none":
	default:
		return fmt.Errorf("invalid cache_backend %q: want sqlite, badger or none", c.CacheBackend)
	}
	if c.StorageMode == "backend" && c.ServerURL == "" {
		return errors.New("server_url is required in backend mode")
	}
	if c.StorageMode == "local" && c.CacheBackend == "none" {
		return errors.New("local mode needs a cache backend")
	}
	if c.OnlineCheckInterval <= 0 {
		return errors.New("online_check_interval must be positive")
	}
	return nil
}
