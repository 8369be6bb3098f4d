package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

type DataSource string

const (
	// DataSourceStore serves the dashboard from the local user store
	DataSourceStore DataSource = "store"
	// DataSourceAPI serves the dashboard from a remote sportsee backend
	DataSourceAPI DataSource = "api"
)

type UserStore string

const (
	UserStoreFixture  UserStore = "fixture"
	UserStorePostgres UserStore = "postgres"
)

const (
	defaultTokenTTL          = 24 * time.Hour
	defaultAPICacheTTL       = 30 * time.Second
	defaultAPITimeout        = 10 * time.Second
	defaultWeeklyGoal        = 6
	defaultLoginRateLimit    = 15
	defaultAPICacheSizeBytes = 64 * 1024 * 1024
)

// Duration lets toml durations be written as "24h", "30s" ...
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Config struct {
	Environment string
	Host        string
	Port        int
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// data
	DataSource    DataSource `toml:"data_source"`
	UserStore     UserStore  `toml:"user_store"`
	FixturePath   string     `toml:"fixture_path"`
	APIBaseURL    string     `toml:"api_base_url"`
	APITimeout    Duration   `toml:"api_timeout"`
	APICacheTTL   Duration   `toml:"api_cache_ttl"`
	APICacheBytes int        `toml:"api_cache_bytes"`
	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	// redis
	RedisEnabled bool   `toml:"redis_enabled"`
	RedisHost    string `toml:"redis_host"`
	RedisPort    string `toml:"redis_port"`
	// auth
	TokenTTL                    Duration `toml:"token_ttl"`
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`
	AllowedOrigins              []string `toml:"allowed_origins"`
	// dashboard
	Locale            string `toml:"locale"`
	KPIStrictRange    bool   `toml:"kpi_strict_range"`
	WeeklyGoalDefault int    `toml:"weekly_goal_default"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
		env = "development"
	case "prod", "production":
		cfg = t.Production
		env = "production"
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	cfg.Environment = env

	return cfg, nil
}

// Load reads the toml file at path and returns the validated config for env.
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
		return nil, fmt.Errorf("invalid %s config: %w", cfg.Environment, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataSource == "" {
		c.DataSource = DataSourceStore
	}
	if c.UserStore == "" {
		c.UserStore = UserStoreFixture
	}
	if c.TokenTTL.Duration == 0 {
		c.TokenTTL.Duration = defaultTokenTTL
	}
	if c.APITimeout.Duration == 0 {
		c.APITimeout.Duration = defaultAPITimeout
	}
	if c.APICacheTTL.Duration == 0 {
		c.APICacheTTL.Duration = defaultAPICacheTTL
	}
	if c.APICacheBytes == 0 {
		c.APICacheBytes = defaultAPICacheSizeBytes
	}
	if c.WeeklyGoalDefault == 0 {
		c.WeeklyGoalDefault = defaultWeeklyGoal
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = defaultLoginRateLimit
	}
	if c.Locale == "" {
		c.Locale = "fr"
	}
}

func (c *Config) Validate() error {
	var err error

	if c.Port <= 0 {
		err = multierr.Append(err, fmt.Errorf("port must be positive, got %d", c.Port))
	}

	switch c.DataSource {
	case DataSourceStore:
	case DataSourceAPI:
		if c.APIBaseURL == "" {
			err = multierr.Append(err, errors.New("api_base_url is required for the api data source"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown data_source %q (want %q or %q)", c.DataSource, DataSourceStore, DataSourceAPI))
	}

	switch c.UserStore {
	case UserStoreFixture:
		if c.FixturePath == "" {
			err = multierr.Append(err, errors.New("fixture_path is required for the fixture user store"))
		}
	case UserStorePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			err = multierr.Append(err, errors.New("postgres host, port and db name are required for the postgres user store"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("unknown user_store %q (want %q or %q)", c.UserStore, UserStoreFixture, UserStorePostgres))
	}

	switch strings.ToLower(c.Locale) {
	case "fr", "en":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown locale %q", c.Locale))
	}

	if c.RedisEnabled && (c.RedisHost == "" || c.RedisPort == "") {
		err = multierr.Append(err, errors.New("redis host and port are required when redis is enabled"))
	}

	return err
}
