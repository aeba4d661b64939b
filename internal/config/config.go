package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PROPERTYHUB"

// Config holds process-wide settings for the API server, the billing
// scheduler and the one-shot CLI commands.
type Config struct {
	Environment string          `mapstructure:"environment"`
	ServiceName string          `mapstructure:"service_name"`
	Version     string          `mapstructure:"version"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Snowflake   SnowflakeConfig `mapstructure:"snowflake"`
	Payments    PaymentsConfig  `mapstructure:"payments"`
	Billing     BillingConfig   `mapstructure:"billing"`
	Scheduler   SchedulerConfig `mapstructure:"scheduler"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	Bootstrap   BootstrapConfig `mapstructure:"bootstrap"`
}

// HTTPConfig configures the API listener. SubmitRateLimit caps card
// submissions per actor per SubmitRateWindow; zero disables the cap.
type HTTPConfig struct {
	Addr             string        `mapstructure:"addr"`
	SubmitRateLimit  int           `mapstructure:"submit_rate_limit"`
	SubmitRateWindow time.Duration `mapstructure:"submit_rate_window"`
}

type DatabaseConfig struct {
	DSN          string        `mapstructure:"dsn"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
}

type SnowflakeConfig struct {
	Node int64 `mapstructure:"node"`
}

// PaymentsConfig controls the settlement state machine.
// MaxAttempts of zero allows unlimited retries of failed payments.
type PaymentsConfig struct {
	Gateway           string        `mapstructure:"gateway"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
}

type BillingConfig struct {
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
}

type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// BootstrapConfig controls development-only startup data.
type BootstrapConfig struct {
	SeedDemoData bool `mapstructure:"seed_demo_data"`
}

type TracingConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Endpoint      string  `mapstructure:"endpoint"`
	Protocol      string  `mapstructure:"protocol"`
	SamplingRatio float64 `mapstructure:"sampling_ratio"`
}

// IsProduction reports whether the process runs with production defaults.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("service_name", "propertyhub")
	v.SetDefault("version", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.submit_rate_limit", 10)
	v.SetDefault("http.submit_rate_window", time.Minute)
	v.SetDefault("database.dsn", "file:propertyhub.db?_busy_timeout=5000&_foreign_keys=on")
	v.SetDefault("database.query_timeout", 5*time.Second)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("snowflake.node", 1)
	v.SetDefault("payments.gateway", "demo")
	v.SetDefault("payments.max_attempts", 0)
	v.SetDefault("payments.processing_timeout", 10*time.Minute)
	v.SetDefault("billing.retry_attempts", 2)
	v.SetDefault("billing.retry_backoff", 200*time.Millisecond)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.poll_interval", time.Hour)
	v.SetDefault("scheduler.batch_size", 100)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.protocol", "grpc")
	v.SetDefault("tracing.sampling_ratio", 0.1)
	v.SetDefault("bootstrap.seed_demo_data", false)
}

// Load reads defaults, an optional config file and PROPERTYHUB_* environment
// variables, in increasing order of precedence. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path = strings.TrimSpace(path)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	ErrInvalidDSN           = errors.New("invalid_database_dsn")
	ErrInvalidSnowflakeNode = errors.New("invalid_snowflake_node")
	ErrInvalidMaxAttempts   = errors.New("invalid_max_attempts")
)

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return ErrInvalidDSN
	}
	if c.Snowflake.Node < 0 || c.Snowflake.Node > 1023 {
		return ErrInvalidSnowflakeNode
	}
	if c.Payments.MaxAttempts < 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}
