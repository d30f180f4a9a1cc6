// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Tracking() TrackingConfig
	Judge() JudgeConfig
	Capture() CaptureConfig
}

// Config holds the entire application configuration. Fields are exported
// for viper's unmarshaling; access elsewhere goes through the Interface
// getters.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	TrackingCfg TrackingConfig `mapstructure:"tracking" yaml:"tracking"`
	JudgeCfg    JudgeConfig    `mapstructure:"judge" yaml:"judge"`
	CaptureCfg  CaptureConfig  `mapstructure:"capture" yaml:"capture"`
}

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Tracking() TrackingConfig { return c.TrackingCfg }
func (c *Config) Judge() JudgeConfig       { return c.JudgeCfg }
func (c *Config) Capture() CaptureConfig   { return c.CaptureCfg }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// TrackingConfig configures the telemetry tracker and its sinks.
type TrackingConfig struct {
	// LogDir is the run directory. Empty means a timestamped
	// tracking_logs_YYYYMMDD_HHMMSS directory under the working directory.
	LogDir        string        `mapstructure:"log_dir" yaml:"log_dir"`
	BatchSize     int           `mapstructure:"batch_size" yaml:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval" yaml:"flush_interval"`

	CSV        CSVSinkConfig       `mapstructure:"csv" yaml:"csv"`
	Dashboard  DashboardSinkConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Postgres   PostgresConfig      `mapstructure:"postgres" yaml:"postgres"`
	ClickHouse ClickHouseConfig    `mapstructure:"clickhouse" yaml:"clickhouse"`
}

// CSVSinkConfig configures the local CSV sink.
type CSVSinkConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	FileName string `mapstructure:"file_name" yaml:"file_name"`
}

// DashboardSinkConfig configures the experiment-dashboard sink.
type DashboardSinkConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey         string        `mapstructure:"api_key" yaml:"-"`
	Project        string        `mapstructure:"project" yaml:"project"`
	RunName        string        `mapstructure:"run_name" yaml:"run_name"`
	ThumbnailWidth int           `mapstructure:"thumbnail_width" yaml:"thumbnail_width"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PostgresConfig holds the connection details for a PostgreSQL database.
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"-"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
	Table    string `mapstructure:"table" yaml:"table"`
}

// DSN renders the pool connection string.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   p.DBName,
	}
	q := url.Values{}
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ClickHouseConfig holds the connection details for a ClickHouse database.
type ClickHouseConfig struct {
	Enabled  bool     `mapstructure:"enabled" yaml:"enabled"`
	Addr     []string `mapstructure:"addr" yaml:"addr"`
	Database string   `mapstructure:"database" yaml:"database"`
	User     string   `mapstructure:"user" yaml:"user"`
	Password string   `mapstructure:"password" yaml:"-"`
	Table    string   `mapstructure:"table" yaml:"table"`
}

// LLMProvider defines the supported evaluation-model providers.
type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderGemini    LLMProvider = "gemini"
	ProviderAnthropic LLMProvider = "anthropic"
)

// JudgeConfig configures the reward-model judge and its LLM client.
type JudgeConfig struct {
	Provider          LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Endpoint          string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature       float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Attempts          int           `mapstructure:"attempts" yaml:"attempts"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// CaptureConfig holds settings for the headless screenshot capturer.
type CaptureConfig struct {
	Headless       bool          `mapstructure:"headless" yaml:"headless"`
	ViewportWidth  int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	FullPage       bool          `mapstructure:"full_page" yaml:"full_page"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; failing to unmarshal them is a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reticle")
	v.SetDefault("logger.log_file", "reticle.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Tracking --
	v.SetDefault("tracking.log_dir", "")
	v.SetDefault("tracking.batch_size", 16)
	v.SetDefault("tracking.flush_interval", "10s")
	v.SetDefault("tracking.csv.enabled", true)
	v.SetDefault("tracking.csv.file_name", "tracking_data.csv")
	v.SetDefault("tracking.dashboard.enabled", false)
	v.SetDefault("tracking.dashboard.project", "reticle")
	v.SetDefault("tracking.dashboard.thumbnail_width", 320)
	v.SetDefault("tracking.dashboard.timeout", "30s")
	v.SetDefault("tracking.postgres.enabled", false)
	v.SetDefault("tracking.postgres.host", "localhost")
	v.SetDefault("tracking.postgres.port", 5432)
	v.SetDefault("tracking.postgres.user", "postgres")
	v.SetDefault("tracking.postgres.password", "")
	v.SetDefault("tracking.postgres.dbname", "reticle")
	v.SetDefault("tracking.postgres.sslmode", "disable")
	v.SetDefault("tracking.postgres.table", "tracking_samples")
	v.SetDefault("tracking.clickhouse.enabled", false)
	v.SetDefault("tracking.clickhouse.addr", []string{"localhost:9000"})
	v.SetDefault("tracking.clickhouse.database", "default")
	v.SetDefault("tracking.clickhouse.user", "default")
	v.SetDefault("tracking.clickhouse.table", "tracking_samples")

	// -- Judge --
	v.SetDefault("judge.provider", "openai")
	v.SetDefault("judge.model", "gpt-4o-2024-08-06")
	v.SetDefault("judge.api_timeout", "60s")
	v.SetDefault("judge.temperature", 0.0)
	v.SetDefault("judge.max_tokens", 1000)
	v.SetDefault("judge.attempts", 2)
	v.SetDefault("judge.requests_per_second", 1.0)

	// -- Capture --
	v.SetDefault("capture.headless", true)
	v.SetDefault("capture.viewport_width", 1200)
	v.SetDefault("capture.viewport_height", 720)
	v.SetDefault("capture.timeout", "45s")
	v.SetDefault("capture.full_page", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive and deploy-specific data.
	v.BindEnv("judge.api_key", "RETICLE_JUDGE_API_KEY")
	v.BindEnv("judge.endpoint", "RETICLE_JUDGE_ENDPOINT")
	v.BindEnv("tracking.dashboard.api_key", "RETICLE_DASHBOARD_API_KEY")
	v.BindEnv("tracking.dashboard.endpoint", "RETICLE_DASHBOARD_ENDPOINT")
	v.BindEnv("tracking.postgres.password", "RETICLE_PG_PASSWORD")
	v.BindEnv("tracking.clickhouse.password", "RETICLE_CH_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.TrackingCfg.Validate(); err != nil {
		return fmt.Errorf("tracking configuration invalid: %w", err)
	}
	if err := c.JudgeCfg.Validate(); err != nil {
		return fmt.Errorf("judge configuration invalid: %w", err)
	}
	if err := c.CaptureCfg.Validate(); err != nil {
		return fmt.Errorf("capture configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the tracking settings.
func (t *TrackingConfig) Validate() error {
	if t.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be a positive integer")
	}
	if t.FlushInterval <= 0 {
		return fmt.Errorf("flush_interval must be a positive duration")
	}
	if t.Dashboard.Enabled && t.Dashboard.Endpoint == "" {
		return fmt.Errorf("dashboard.endpoint is required when the dashboard sink is enabled")
	}
	if t.Postgres.Enabled && t.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required when the postgres sink is enabled")
	}
	if t.ClickHouse.Enabled && len(t.ClickHouse.Addr) == 0 {
		return fmt.Errorf("clickhouse.addr is required when the clickhouse sink is enabled")
	}
	return nil
}

// Validate checks the judge settings.
func (j *JudgeConfig) Validate() error {
	switch j.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported provider %q", j.Provider)
	}
	if j.Model == "" {
		return fmt.Errorf("model is required")
	}
	if j.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be a positive integer")
	}
	if j.Attempts <= 0 {
		return fmt.Errorf("attempts must be a positive integer")
	}
	if j.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if j.Temperature < 0 || j.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2]")
	}
	return nil
}

// Validate checks the capture settings.
func (c *CaptureConfig) Validate() error {
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	return nil
}
