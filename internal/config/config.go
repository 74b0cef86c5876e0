package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/abtracker/internal/workout/catalog"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// CORS, besides these any origin from localhost is allowed in development
	AllowedOrigins []string `toml:"allowed_origins"`

	// "postgres" or "memory"
	LogStore                   string `toml:"log_store"`
	AllowPartialSessions       bool   `toml:"allow_partial_sessions"`
	SessionsRateLimitPerMin    int    `toml:"sessions_rate_limit_per_min"`
	ProgressCacheSizeMegabytes int    `toml:"progress_cache_size_mb"`

	// optional catalog override, the built-in A/B catalog is used when empty
	Exercises []catalog.Exercise `toml:"exercises"`
	Templates []catalog.Template `toml:"templates"`

	Environment string `toml:"-"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for an already read config.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}

	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.LogStore == "" {
		c.LogStore = "postgres"
	}
	if c.SessionsRateLimitPerMin == 0 {
		c.SessionsRateLimitPerMin = 30
	}
	if c.ProgressCacheSizeMegabytes == 0 {
		c.ProgressCacheSizeMegabytes = 8
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
}

func (c *Config) validate() error {
	switch c.LogStore {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown log store: %s", c.LogStore)
	}
	if c.LogStore == "postgres" && (c.PostgresHost == "" || c.PostgresDBName == "") {
		return errors.New("postgres host and db name must be set for the postgres log store")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	// a catalog override replaces both lists, sessions can only be logged against templates
	if len(c.Exercises) > 0 && len(c.Templates) == 0 {
		return errors.New("catalog override defines exercises but no templates")
	}
	if len(c.Templates) > 0 && len(c.Exercises) == 0 {
		return errors.New("catalog override defines templates but no exercises")
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// Catalog builds the exercise catalog, using the built-in one unless the
// config defines its own exercises.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	if len(c.Exercises) == 0 {
		return catalog.Default(), nil
	}
	return catalog.New(c.Exercises, c.Templates)
}
