package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "SYLLABUS_CONFIG"

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Server      ServerConfig      `yaml:"server"`
	TextExtract TextExtractConfig `yaml:"textExtract"`
	LLM         LLMConfig         `yaml:"llm"`
	Normalize   NormalizeConfig   `yaml:"normalize"`
	Calendar    CalendarConfig    `yaml:"calendar"`
	Log         LogConfig         `yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"` // postgres | sqlite
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"maxConns"`
	MinConns         int32         `yaml:"minConns"`
	MaxConnLifetime  time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime  time.Duration `yaml:"maxConnIdleTime"`
	DialTimeout      time.Duration `yaml:"dialTimeout"`
	StatementTimeout time.Duration `yaml:"statementTimeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"httpAddr"`
	GRPCAddr        string        `yaml:"grpcAddr"` // health service only
	MaxUploadBytes  int64         `yaml:"maxUploadBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// TextExtractConfig holds document text extraction configuration
type TextExtractConfig struct {
	Pdftotext string        `yaml:"pdftotext"` // optional fallback binary; empty disables it
	Timeout   time.Duration `yaml:"timeout"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // anthropic | openai
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NormalizeConfig selects the assignment color policy.
type NormalizeConfig struct {
	ColorPolicy string `yaml:"colorPolicy"` // random | seeded | round_robin
	Seed        int64  `yaml:"seed"`
}

// CalendarConfig holds calendar submission configuration
type CalendarConfig struct {
	CalendarID     string        `yaml:"calendarId"`
	Workers        int           `yaml:"workers"`
	ReminderMethod string        `yaml:"reminderMethod"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			GRPCAddr:        ":9090",
			MaxUploadBytes:  20 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		TextExtract: TextExtractConfig{
			Timeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "anthropic",
			Model:     "", // provider default
			MaxTokens: 4096,
			Timeout:   60 * time.Second,
		},
		Normalize: NormalizeConfig{
			ColorPolicy: "random",
		},
		Calendar: CalendarConfig{
			CalendarID:     "primary",
			Workers:        4,
			ReminderMethod: "email",
			RequestTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the defaults, overlays the YAML file named by SYLLABUS_CONFIG
// (if any), then applies environment variable overrides.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("cannot read %s", path), err)
		}
		// Fields absent from the file keep their defaults.
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("cannot parse %s", path), err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.TextExtract.Pdftotext = getEnv("PDFTOTEXT_BIN", c.TextExtract.Pdftotext)
	c.TextExtract.Timeout = getEnvAsDuration("TEXT_EXTRACT_TIMEOUT", c.TextExtract.Timeout)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	// Provider-specific key variables win over the generic one.
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)
	switch c.LLM.Provider {
	case "anthropic":
		c.LLM.APIKey = getEnv("ANTHROPIC_API_KEY", c.LLM.APIKey)
	case "openai":
		c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	}

	c.Normalize.ColorPolicy = getEnv("COLOR_POLICY", c.Normalize.ColorPolicy)
	c.Normalize.Seed = getEnvAsInt64("COLOR_SEED", c.Normalize.Seed)

	c.Calendar.CalendarID = getEnv("CALENDAR_ID", c.Calendar.CalendarID)
	c.Calendar.Workers = getEnvAsInt("CALENDAR_WORKERS", c.Calendar.Workers)
	c.Calendar.ReminderMethod = getEnv("CALENDAR_REMINDER_METHOD", c.Calendar.ReminderMethod)
	c.Calendar.RequestTimeout = getEnvAsDuration("CALENDAR_TIMEOUT", c.Calendar.RequestTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		slog.Warn("config.env.invalid_int", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
		slog.Warn("config.env.invalid_int", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
		slog.Warn("config.env.invalid_int", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
		slog.Warn("config.env.invalid_float", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		slog.Warn("config.env.invalid_duration", "key", key, "value", value)
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if err := c.ValidateLLM(); err != nil {
		return err
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Calendar.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "CALENDAR_WORKERS must be positive", ErrInvalidInput)
	}
	switch c.Normalize.ColorPolicy {
	case "random", "seeded", "round_robin":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown COLOR_POLICY %q", c.Normalize.ColorPolicy), ErrInvalidInput)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LOG_FORMAT %q", c.Log.Format), ErrInvalidInput)
	}
	return nil
}

// ValidateDatabase checks only the database section.
func (c *Config) ValidateDatabase() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	return nil
}

// ValidateLLM checks only the model provider section.
func (c *Config) ValidateLLM() error {
	switch c.LLM.Provider {
	case "anthropic", "openai":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "LLM_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
