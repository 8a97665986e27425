package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"        validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database"      validate:"required"`
	LLM           LLMConfig           `mapstructure:"llm"           validate:"required"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"    validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// FrontendURL is always added to CORSOrigins.
	FrontendURL     string        `mapstructure:"frontend_url"     validate:"omitempty,url"`
	CORSOrigins     []string      `mapstructure:"cors_origins"     validate:"dive,required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"            validate:"required,oneof=postgres sqlite"`
	URL             string        `mapstructure:"url"               validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ModelConfig describes one entry of the model allow-list.
type ModelConfig struct {
	ID          string `mapstructure:"id"          validate:"required"`
	Name        string `mapstructure:"name"        validate:"required"`
	Description string `mapstructure:"description"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	DefaultModel string `mapstructure:"default_model"  validate:"required"`

	// Models overrides the built-in allow-list when not empty.
	Models []ModelConfig `mapstructure:"models" validate:"dive"`

	MaxAttempts        int           `mapstructure:"max_attempts"         validate:"gte=1,lte=10"`
	BackoffUnit        time.Duration `mapstructure:"backoff_unit"         validate:"gt=0"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"      validate:"gt=0"`
	PromptTemplatePath string        `mapstructure:"prompt_template_path" validate:"omitempty,file"`
}

// RateLimitConfig holds the request governor limits.
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute" validate:"required,gt=0"`
	PerDay    int `mapstructure:"per_day"    validate:"required,gt=0,gtefield=PerMinute"`
}

// ObservabilityConfig controls metrics and tracing.
type ObservabilityConfig struct {
	ServiceName     string  `mapstructure:"service_name"     validate:"required"`
	MetricsEnabled  bool    `mapstructure:"metrics_enabled"`
	MetricsPort     int     `mapstructure:"metrics_port"     validate:"gt=0,lt=65536"`
	MetricsPath     string  `mapstructure:"metrics_path"     validate:"required,startswith=/"`
	TracingEnabled  bool    `mapstructure:"tracing_enabled"`
	TracingExporter string  `mapstructure:"tracing_exporter" validate:"oneof=stdout otlp"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"    validate:"required_if=TracingExporter otlp"`
	SampleRate      float64 `mapstructure:"sample_rate"      validate:"gte=0,lte=1"`
}
