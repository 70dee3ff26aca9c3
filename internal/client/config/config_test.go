package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	expected := &Config{
		ServerURL:           "http://127.0.0.1:3000",
		StorageMode:         "backend",
		FallbackToLocal:     true,
		AutoSyncInterval:    5 * time.Minute,
		OnlineCheckInterval: 3 * time.Second,
		RequestTimeout:      10 * time.Second,
		DataDir:             DefaultDataDir(),
		CacheBackend:        "sqlite",
		PersistQueue:        true,
		LogLevel:            "warn",
		LogFormat:           "text",
		S3:                  S3Config{Region: "us-east-1"},
	}
	assert.Empty(t, cmp.Diff(expected, cfg))
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "medialog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: http://file.example:3000
storage_mode: local
auto_sync_interval: 1m
cache_backend: badger
s3:
  bucket: from-file
  use_path_style: true
`), 0o600))

	t.Setenv("MEDIALOG_S3_BUCKET", "from-env")
	t.Setenv("MEDIALOG_LOG_LEVEL", "debug")

	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd, v)
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--log-level", "error", "--timeout", "2s"}))

	cfg, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "http://file.example:3000", cfg.ServerURL)
	assert.Equal(t, "local", cfg.StorageMode)
	assert.Equal(t, time.Minute, cfg.AutoSyncInterval)
	assert.Equal(t, "badger", cfg.CacheBackend)
	assert.Equal(t, "from-env", cfg.S3.Bucket, "env overrides file")
	assert.True(t, cfg.S3.UsePathStyle)
	assert.Equal(t, "error", cfg.LogLevel, "flags override env")
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestLoad_UnchangedFlagsKeepDefaults(t *testing.T) {
	isolate(t)

	v := viper.New()
	cmd := &cobra.Command{Use: "test"}
	BindFlags(cmd, v)
	require.NoError(t, cmd.PersistentFlags().Parse(nil))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.ServerURL)
	assert.Equal(t, 5*time.Minute, cfg.AutoSyncInterval)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{ServerURL: "http://x", StorageMode: "backend", CacheBackend: "sqlite", OnlineCheckInterval: time.Second}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.StorageMode = "cloud" }, "invalid storage_mode"},
		{"bad cache", func(c *Config) { c.CacheBackend = "redis" }, "invalid cache_backend"},
		{"no url", func(c *Config) { c.ServerURL = "" }, "server_url is required"},
		{"local without cache", func(c *Config) { c.StorageMode = "local"; c.CacheBackend = "none" }, "needs a cache"},
		{"local without url", func(c *Config) { c.StorageMode = "local"; c.ServerURL = "" }, ""},
		{"zero probe interval", func(c *Config) { c.OnlineCheckInterval = 0 }, "online_check_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
