package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/spuriolabs/spurio/internal/engine"
)

type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Datasets    DatasetsConfig    `mapstructure:"datasets"`
	Feedback    FeedbackConfig    `mapstructure:"feedback"`
	ResultCache ResultCacheConfig `mapstructure:"result_cache"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Security    SecurityConfig    `mapstructure:"security"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime string `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig mirrors engine.Config with durations as strings so it can come
// straight out of YAML or the environment.
type EngineConfig struct {
	SampleSize        int     `mapstructure:"sample_size"`
	MaxComparisons    int     `mapstructure:"max_comparisons"`
	MinSamples        int     `mapstructure:"min_samples"`
	MinCorrelation    float64 `mapstructure:"min_correlation"`
	MaxPValue         float64 `mapstructure:"max_p_value"`
	Method            string  `mapstructure:"method"`
	CacheTTL          string  `mapstructure:"cache_ttl"`
	PoolMultiple      int     `mapstructure:"pool_multiple"`
	FetchMultiple     int     `mapstructure:"fetch_multiple"`
	DiversityWindow   int     `mapstructure:"diversity_window"`
	MaxReuse          int     `mapstructure:"max_reuse"`
	PriorityThreshold float64 `mapstructure:"priority_threshold"`
	TargetMin         float64 `mapstructure:"target_min"`
	TargetMax         float64 `mapstructure:"target_max"`
	NegateProbability float64 `mapstructure:"negate_probability"`
	JitterStdDev      float64 `mapstructure:"jitter_stddev"`
}

// Settings converts the raw config block into engine settings, validating the
// method name, the cache TTL and the transform bounds on the way.
func (e EngineConfig) Settings() (engine.Config, error) {
	method, err := engine.ParseMethod(e.Method)
	if err != nil {
		return engine.Config{}, err
	}
	ttl, err := time.ParseDuration(e.CacheTTL)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid engine cache_ttl: %w", err)
	}
	if e.MinCorrelation <= 0 || e.MinCorrelation > 1 {
		return engine.Config{}, fmt.Errorf("engine min_correlation must be in (0, 1], got %v", e.MinCorrelation)
	}
	if e.MaxPValue <= 0 || e.MaxPValue > 1 {
		return engine.Config{}, fmt.Errorf("engine max_p_value must be in (0, 1], got %v", e.MaxPValue)
	}
	if e.TargetMin <= 0 || e.TargetMax >= 1 || e.TargetMin > e.TargetMax {
		return engine.Config{}, fmt.Errorf("engine target bounds must satisfy 0 < target_min <= target_max < 1, got [%v, %v]", e.TargetMin, e.TargetMax)
	}
	if e.NegateProbability < 0 || e.NegateProbability > 1 {
		return engine.Config{}, fmt.Errorf("engine negate_probability must be in [0, 1], got %v", e.NegateProbability)
	}
	if e.JitterStdDev < 0 {
		return engine.Config{}, fmt.Errorf("engine jitter_stddev must be non-negative, got %v", e.JitterStdDev)
	}

	return engine.Config{
		SampleSize:        e.SampleSize,
		MaxComparisons:    e.MaxComparisons,
		MinSamples:        e.MinSamples,
		MinCorrelation:    e.MinCorrelation,
		MaxPValue:         e.MaxPValue,
		Method:            method,
		CacheTTL:          ttl,
		PoolMultiple:      e.PoolMultiple,
		FetchMultiple:     e.FetchMultiple,
		DiversityWindow:   e.DiversityWindow,
		MaxReuse:          e.MaxReuse,
		PriorityThreshold: e.PriorityThreshold,
		Transform: engine.TransformParams{
			TargetMin:         e.TargetMin,
			TargetMax:         e.TargetMax,
			NegateProbability: e.NegateProbability,
			JitterStdDev:      e.JitterStdDev,
		},
	}, nil
}

type DatasetsConfig struct {
	WorldBank     WorldBankConfig `mapstructure:"world_bank"`
	MaxReal       int             `mapstructure:"max_real"`
	SyntheticSeed int64           `mapstructure:"synthetic_seed"`
}

type WorldBankConfig struct {
	ServiceURL string   `mapstructure:"service_url"`
	Timeout    int      `mapstructure:"timeout"`
	Countries  []string `mapstructure:"countries"`
	Indicators []string `mapstructure:"indicators"`
	StartYear  int      `mapstructure:"start_year"`
	EndYear    int      `mapstructure:"end_year"`
}

func (w WorldBankConfig) GetServiceURL() string {
	return w.ServiceURL
}

func (w WorldBankConfig) GetTimeout() int {
	return w.Timeout
}

type FeedbackConfig struct {
	RetentionHours         int `mapstructure:"retention_hours"`
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes"`
}

type ResultCacheConfig struct {
	TTL    string `mapstructure:"ttl"`
	Prefix string `mapstructure:"prefix"`
}

// TTLDuration parses the configured TTL.
func (r ResultCacheConfig) TTLDuration() (time.Duration, error) {
	ttl, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid result_cache ttl: %w", err)
	}
	return ttl, nil
}

type RateLimitConfig struct {
	Requests int    `mapstructure:"requests"`
	Window   string `mapstructure:"window"`
}

// WindowDuration parses the configured window.
func (r RateLimitConfig) WindowDuration() (time.Duration, error) {
	window, err := time.ParseDuration(r.Window)
	if err != nil {
		return 0, fmt.Errorf("invalid rate_limit window: %w", err)
	}
	return window, nil
}

type TelegramConfig struct {
	BotToken       string  `mapstructure:"bot_token" json:"-" yaml:"-"`
	ChatID         string  `mapstructure:"chat_id"`
	ShareThreshold float64 `mapstructure:"share_threshold"`
}

type SecurityConfig struct {
	AdminKeyHash string `mapstructure:"admin_key_hash" json:"-" yaml:"-"`
	BcryptCost   int    `mapstructure:"bcrypt_cost"`
}

type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type SentryConfig struct {
	DSN              string  `mapstructure:"dsn" json:"-" yaml:"-"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind specific environment variables
	if err := viper.BindEnv("security.admin_key_hash", "ADMIN_KEY_HASH"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_KEY_HASH environment variable: %w", err)
	}
	if err := viper.BindEnv("database.database_url", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind DATABASE_URL environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	config.Environment = strings.ToLower(config.Environment)

	// Validate the engine block up front so a bad method or TTL fails at
	// startup instead of on the first request.
	if _, err := config.Engine.Settings(); err != nil {
		return nil, err
	}

	if _, err := config.ResultCache.TTLDuration(); err != nil {
		return nil, err
	}
	if _, err := config.RateLimit.WindowDuration(); err != nil {
		return nil, err
	}

	if config.Datasets.WorldBank.StartYear > config.Datasets.WorldBank.EndYear {
		return nil, fmt.Errorf("datasets start_year %d is after end_year %d",
			config.Datasets.WorldBank.StartYear, config.Datasets.WorldBank.EndYear)
	}

	if config.Telegram.ShareThreshold < 0 || config.Telegram.ShareThreshold > 1 {
		return nil, fmt.Errorf("telegram share_threshold must be in [0, 1], got %v",
			config.Telegram.ShareThreshold)
	}

	// Validate bcrypt cost parameter
	if config.Security.BcryptCost < bcrypt.MinCost || config.Security.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, config.Security.BcryptCost)
	}

	// The admin key arrives pre-hashed; reject anything that is not a bcrypt
	// digest so a plaintext key cannot end up in the environment by mistake.
	if config.Security.AdminKeyHash != "" && !strings.HasPrefix(config.Security.AdminKeyHash, "$2") {
		return nil, fmt.Errorf("admin_key_hash must be a bcrypt hash")
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Set database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "spurio")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Engine
	viper.SetDefault("engine.sample_size", 8)
	viper.SetDefault("engine.max_comparisons", 15)
	viper.SetDefault("engine.min_samples", 10)
	viper.SetDefault("engine.min_correlation", 0.3)
	viper.SetDefault("engine.max_p_value", 0.05)
	viper.SetDefault("engine.method", "pearson")
	viper.SetDefault("engine.cache_ttl", "60s")
	viper.SetDefault("engine.pool_multiple", 3)
	viper.SetDefault("engine.fetch_multiple", 8)
	viper.SetDefault("engine.diversity_window", 100)
	viper.SetDefault("engine.max_reuse", 2)
	viper.SetDefault("engine.priority_threshold", 0.5)
	viper.SetDefault("engine.target_min", 0.7)
	viper.SetDefault("engine.target_max", 0.9)
	viper.SetDefault("engine.negate_probability", 0.3)
	viper.SetDefault("engine.jitter_stddev", 0.1)

	// Datasets
	viper.SetDefault("datasets.world_bank.service_url", "https://api.worldbank.org/v2")
	viper.SetDefault("datasets.world_bank.timeout", 30)
	viper.SetDefault("datasets.world_bank.countries", []string{"us", "gb", "de", "fr", "jp"})
	viper.SetDefault("datasets.world_bank.indicators", []string{
		"SP.POP.TOTL", "NY.GDP.MKTP.CD", "SP.DYN.LE00.IN",
		"EN.POP.DNST", "SL.UEM.TOTL.ZS", "IT.NET.USER.ZS",
	})
	viper.SetDefault("datasets.world_bank.start_year", 2010)
	viper.SetDefault("datasets.world_bank.end_year", 2024)
	viper.SetDefault("datasets.max_real", 3)
	viper.SetDefault("datasets.synthetic_seed", 0)

	// Feedback
	viper.SetDefault("feedback.retention_hours", 720)
	viper.SetDefault("feedback.cleanup_interval_minutes", 60)

	// Result cache
	viper.SetDefault("result_cache.ttl", "300s")
	viper.SetDefault("result_cache.prefix", "correlation")

	// Rate limiting
	viper.SetDefault("rate_limit.requests", 30)
	viper.SetDefault("rate_limit.window", "60s")

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")
	viper.SetDefault("telegram.share_threshold", 0.85)

	// Security
	viper.SetDefault("security.admin_key_hash", "")
	viper.SetDefault("security.bcrypt_cost", 12)

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.service_name", "spurio")
	viper.SetDefault("telemetry.exporter", "stdout")
	viper.SetDefault("telemetry.endpoint", "localhost:4318")
	viper.SetDefault("telemetry.insecure", true)
	viper.SetDefault("telemetry.sample_rate", 1.0)

	// Sentry
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.traces_sample_rate", 0.2)
}
