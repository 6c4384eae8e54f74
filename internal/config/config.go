package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// storage: "postgres" or "sqlite"
	Storage        string `toml:"storage"`
	SQLitePath     string `toml:"sqlite_path"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// debounce between the last mutation and the background save
	SyncDebounce        Duration `toml:"sync_debounce"`
	SyncRateLimitPerMin int      `toml:"sync_rate_limit_per_min"`

	// summary responses cache, in megabytes
	SummaryCacheSizeMB int `toml:"summary_cache_size_mb"`

	AllowedOrigins []string `toml:"allowed_origins"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
}

// Duration reads TOML strings like "2s" or "1500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	DockerDev   *Config `toml:"dockerdev"`
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "ddev", "dockerdev":
		cfg = t.DockerDev
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with
// defaults filled in and the result validated.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Storage == "" {
		c.Storage = StorageSQLite
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "./data/macrotrack.db"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.SyncDebounce.Duration <= 0 {
		c.SyncDebounce.Duration = 2 * time.Second
	}
	if c.SyncRateLimitPerMin <= 0 {
		c.SyncRateLimitPerMin = 30
	}
	if c.SummaryCacheSizeMB <= 0 {
		c.SummaryCacheSizeMB = 10
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	switch c.Storage {
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite storage without sqlite_path")
		}
	case StoragePostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return fmt.Errorf("postgres storage needs postgres_host and postgres_db_name")
		}
	default:
		return fmt.Errorf("unknown storage: %s", c.Storage)
	}
	return nil
}

// Secrets are never kept in the config file.
type Secrets struct {
	PostgresPassword  string `env:"MACROTRACK_POSTGRES_PASSWORD"`
	RedisPassword     string `env:"MACROTRACK_REDIS_PASS"`
	AdminUsername     string `env:"MACROTRACK_ADMIN_USERNAME"`
	AdminPasswordHash string `env:"MACROTRACK_ADMIN_PASSWORD_HASH"`
	SentryDSN         string `env:"SENTRY_DSN"`
	HoneycombEnabled  bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey   string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName   string `env:"OTEL_SERVICE_NAME, default=macrotrack"`
}

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	return loadSecrets(ctx, envconfig.OsLookuper())
}

func loadSecrets(ctx context.Context, lookuper envconfig.Lookuper) (*Secrets, error) {
	var s Secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &s, nil
}
