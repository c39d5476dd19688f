// Package config loads the qbucket CLI configuration from a file and
// QBUCKET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. QBUCKET_SERVER_ADDR.
const EnvPrefix = "QBUCKET"

// Source selects and configures the data source of a build.
type Source struct {
	// Kind is one of memory, duckdb, sqlite, postgres.
	Kind        string   `json:"kind" mapstructure:"kind" yaml:"kind"`
	Path        string   `json:"path" mapstructure:"path" yaml:"path"`
	DSN         string   `json:"dsn" mapstructure:"dsn" yaml:"dsn"`
	Table       string   `json:"table" mapstructure:"table" yaml:"table"`
	Categorical []string `json:"categorical" mapstructure:"categorical" yaml:"categorical"`
	Numeric     []string `json:"numeric" mapstructure:"numeric" yaml:"numeric"`
	Predicate   string   `json:"predicate" mapstructure:"predicate" yaml:"predicate"`
	RateLimit   float64  `json:"rate_limit" mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst       int      `json:"burst" mapstructure:"burst" yaml:"burst"`
}

// Index holds build and persistence parameters.
type Index struct {
	QuantileGap int    `json:"quantile_gap" mapstructure:"quantile_gap" yaml:"quantile_gap"`
	MaxDepth    int    `json:"max_depth" mapstructure:"max_depth" yaml:"max_depth"`
	Workers     int    `json:"workers" mapstructure:"workers" yaml:"workers"`
	Codec       string `json:"codec" mapstructure:"codec" yaml:"codec"`
	Compression string `json:"compression" mapstructure:"compression" yaml:"compression"`
}

// Store selects the blob store holding the catalog.
type Store struct {
	// Kind is one of local, s3, minio.
	Kind        string `json:"kind" mapstructure:"kind" yaml:"kind"`
	Path        string `json:"path" mapstructure:"path" yaml:"path"`
	Bucket      string `json:"bucket" mapstructure:"bucket" yaml:"bucket"`
	Prefix      string `json:"prefix" mapstructure:"prefix" yaml:"prefix"`
	Region      string `json:"region" mapstructure:"region" yaml:"region"`
	Endpoint    string `json:"endpoint" mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey   string `json:"access_key" mapstructure:"access_key" yaml:"access_key"`
	SecretKey   string `json:"secret_key" mapstructure:"secret_key" yaml:"-"`
	UseSSL      bool   `json:"use_ssl" mapstructure:"use_ssl" yaml:"use_ssl"`
	CommitTable string `json:"commit_table" mapstructure:"commit_table" yaml:"commit_table"`
	CacheSize   int    `json:"cache_size" mapstructure:"cache_size" yaml:"cache_size"`
}

// Server configures the HTTP query API.
type Server struct {
	Addr           string        `json:"addr" mapstructure:"addr" yaml:"addr"`
	ReadTimeout    time.Duration `json:"read_timeout" mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" mapstructure:"write_timeout" yaml:"write_timeout"`
	ReloadInterval time.Duration `json:"reload_interval" mapstructure:"reload_interval" yaml:"reload_interval"`
	MaxInflight    int64         `json:"max_inflight" mapstructure:"max_inflight" yaml:"max_inflight"`
}

// Log configures the process logger.
type Log struct {
	Level  string `json:"level" mapstructure:"level" yaml:"level"`
	Format string `json:"format" mapstructure:"format" yaml:"format"`
}

// Config is the complete CLI configuration.
type Config struct {
	Source Source `json:"source" mapstructure:"source" yaml:"source"`
	Index  Index  `json:"index" mapstructure:"index" yaml:"index"`
	Store  Store  `json:"store" mapstructure:"store" yaml:"store"`
	Server Server `json:"server" mapstructure:"server" yaml:"server"`
	Log    Log    `json:"log" mapstructure:"log" yaml:"log"`
}

// Validation errors.
var (
	ErrInvalidSource = errors.New("invalid source config")
	ErrInvalidStore  = errors.New("invalid store config")
	ErrInvalidLog    = errors.New("invalid log config")
)

// New returns a viper instance with defaults and environment overrides bound.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("source.kind", "memory")
	v.SetDefault("source.path", "")
	v.SetDefault("source.dsn", "")
	v.SetDefault("source.table", "")
	v.SetDefault("source.categorical", []string{})
	v.SetDefault("source.numeric", []string{})
	v.SetDefault("source.predicate", "")
	v.SetDefault("source.rate_limit", 0)
	v.SetDefault("source.burst", 1)

	v.SetDefault("index.quantile_gap", 10)
	v.SetDefault("index.max_depth", 2)
	v.SetDefault("index.workers", 0)
	v.SetDefault("index.codec", "go-json")
	v.SetDefault("index.compression", "zstd")

	v.SetDefault("store.kind", "local")
	v.SetDefault("store.path", "./qbucket-data")
	v.SetDefault("store.bucket", "")
	v.SetDefault("store.prefix", "")
	v.SetDefault("store.region", "")
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.access_key", "")
	v.SetDefault("store.secret_key", "")
	v.SetDefault("store.use_ssl", true)
	v.SetDefault("store.commit_table", "")
	v.SetDefault("store.cache_size", 0)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.reload_interval", time.Duration(0))
	v.SetDefault("server.max_inflight", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file (optional) into a validated Config.
func Load(file string) (*Config, error) {
	v := New()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and required fields. Index parameters are
// validated by the indexer itself.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "memory", "duckdb", "sqlite":
	case "postgres":
		if c.Source.DSN == "" {
			return fmt.Errorf("%w: postgres requires dsn", ErrInvalidSource)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSource, c.Source.Kind)
	}
	if c.Source.Kind != "memory" && c.Source.Table == "" {
		return fmt.Errorf("%w: %s requires table", ErrInvalidSource, c.Source.Kind)
	}

	switch c.Store.Kind {
	case "local":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: local requires path", ErrInvalidStore)
		}
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("%w: %s requires bucket", ErrInvalidStore, c.Store.Kind)
		}
		if c.Store.Kind == "minio" && c.Store.Endpoint == "" {
			return fmt.Errorf("%w: minio requires endpoint", ErrInvalidStore)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStore, c.Store.Kind)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidLog, c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLog, err)
	}
	return level, nil
}
