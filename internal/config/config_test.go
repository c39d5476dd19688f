package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Source.Kind)
	assert.Equal(t, 10, cfg.Index.QuantileGap)
	assert.Equal(t, 2, cfg.Index.MaxDepth)
	assert.Equal(t, "zstd", cfg.Index.Compression)
	assert.Equal(t, "local", cfg.Store.Kind)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "qbucket.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
source:
  kind: sqlite
  path: products.db
  table: products
  categorical: [company, category]
  numeric: [listPrice]
index:
  quantile_gap: 25
  max_depth: 3
store:
  kind: local
  path: /var/lib/qbucket
server:
  reload_interval: 30s
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Source.Kind)
	assert.Equal(t, []string{"company", "category"}, cfg.Source.Categorical)
	assert.Equal(t, []string{"listPrice"}, cfg.Source.Numeric)
	assert.Equal(t, 25, cfg.Index.QuantileGap)
	assert.Equal(t, 3, cfg.Index.MaxDepth)
	assert.Equal(t, "/var/lib/qbucket", cfg.Store.Path)
	assert.Equal(t, 30*time.Second, cfg.Server.ReloadInterval)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("QBUCKET_SERVER_ADDR", ":9090")
	t.Setenv("QBUCKET_INDEX_MAX_DEPTH", "1")
	t.Setenv("QBUCKET_STORE_KIND", "s3")
	t.Setenv("QBUCKET_STORE_BUCKET", "indexes")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.Index.MaxDepth)
	assert.Equal(t, "s3", cfg.Store.Kind)
	assert.Equal(t, "indexes", cfg.Store.Bucket)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown source", func(c *Config) { c.Source.Kind = "csv" }, ErrInvalidSource},
		{"postgres without dsn", func(c *Config) { c.Source.Kind = "postgres"; c.Source.Table = "t" }, ErrInvalidSource},
		{"duckdb without table", func(c *Config) { c.Source.Kind = "duckdb" }, ErrInvalidSource},
		{"unknown store", func(c *Config) { c.Store.Kind = "gcs" }, ErrInvalidStore},
		{"s3 without bucket", func(c *Config) { c.Store.Kind = "s3" }, ErrInvalidStore},
		{"minio without endpoint", func(c *Config) { c.Store.Kind = "minio"; c.Store.Bucket = "b" }, ErrInvalidStore},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLog},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidLog},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
