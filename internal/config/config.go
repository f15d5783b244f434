package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Gemini    GeminiConfig
	LinkedIn  LinkedInConfig
	Telegram  TelegramConfig
	Publish   PublishConfig
	Scheduler SchedulerConfig
	Operator  OperatorConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	LogLevel       string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// GeminiConfig holds generative text API settings
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// LinkedInConfig holds LinkedIn OAuth app and publish endpoint settings
type LinkedInConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	PostURL      string
}

// TelegramConfig holds Telegram bot settings. Publishing is disabled when
// BotToken is empty.
type TelegramConfig struct {
	BotToken    string
	DefaultChat string
}

// PublishConfig bounds outbound publish calls
type PublishConfig struct {
	Timeout    time.Duration
	RatePerSec int
}

// SchedulerConfig controls the post dispatcher
type SchedulerConfig struct {
	Tick    string
	Workers int
}

// OperatorConfig holds the bcrypt hash guarding schedule management routes
type OperatorConfig struct {
	KeyHash string
}

// RateLimitConfig holds the inbound per-client limiter settings
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// envFiles are loaded in order; later files override earlier ones.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads any local env files into the process environment.
// Missing files are skipped.
func LoadEnvFiles(logger *slog.Logger) []string {
	loaded := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.Warn("failed to load env file", "file", file, "error", err)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger != nil && len(loaded) > 0 {
		logger.Debug("loaded env files", "files", strings.Join(loaded, ", "))
	}
	return loaded
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "herald"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout: getDurationEnv("GEMINI_TIMEOUT", 60*time.Second),
		},
		LinkedIn: LinkedInConfig{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("LINKEDIN_REDIRECT_URI", ""),
			PostURL:      getEnv("LINKEDIN_API_URL", "https://api.linkedin.com/v2/ugcPosts"),
		},
		Telegram: TelegramConfig{
			BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
			DefaultChat: getEnv("TELEGRAM_DEFAULT_CHAT", ""),
		},
		Publish: PublishConfig{
			Timeout:    getDurationEnv("PUBLISH_TIMEOUT", 30*time.Second),
			RatePerSec: getIntEnv("PUBLISH_RATE_PER_SEC", 5),
		},
		Scheduler: SchedulerConfig{
			Tick:    getEnv("SCHEDULER_TICK", "* * * * *"),
			Workers: getIntEnv("SCHEDULER_WORKERS", 1),
		},
		Operator: OperatorConfig{
			KeyHash: getEnv("OPERATOR_KEY_HASH", ""),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
			Burst:     getIntEnv("RATE_LIMIT_BURST", 10),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsTest returns true if running under the test environment
func (c *Config) IsTest() bool {
	return c.Server.Env == "test"
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// Generation
	if c.Gemini.APIKey == "" && !c.IsTest() {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Gemini.Model == "" {
		errs = append(errs, errors.New("GEMINI_MODEL is required"))
	}
	if c.Gemini.Timeout <= 0 {
		errs = append(errs, errors.New("GEMINI_TIMEOUT must be positive"))
	}

	// LinkedIn OAuth - all or nothing
	if c.LinkedIn.IsConfigured() {
		if err := c.LinkedIn.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("LinkedIn OAuth: %w", err))
		}
	}
	if c.LinkedIn.PostURL == "" {
		errs = append(errs, errors.New("LINKEDIN_API_URL is required"))
	}

	// Publishing
	if c.Publish.Timeout <= 0 {
		errs = append(errs, errors.New("PUBLISH_TIMEOUT must be positive"))
	}
	if c.Publish.RatePerSec <= 0 {
		errs = append(errs, errors.New("PUBLISH_RATE_PER_SEC must be positive"))
	}

	// Scheduler
	if _, err := ParseTick(c.Scheduler.Tick); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULER_TICK is invalid: %w", err))
	}
	if c.Scheduler.Workers < 1 {
		errs = append(errs, errors.New("SCHEDULER_WORKERS must be at least 1"))
	}

	// Inbound rate limit
	if c.RateLimit.PerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IsConfigured returns true if any LinkedIn OAuth field is set
func (l LinkedInConfig) IsConfigured() bool {
	return l.ClientID != "" || l.ClientSecret != "" || l.RedirectURI != ""
}

// Validate checks that all required LinkedIn OAuth fields are present
func (l LinkedInConfig) Validate() error {
	var missing []string
	if l.ClientID == "" {
		missing = append(missing, "LINKEDIN_CLIENT_ID")
	}
	if l.ClientSecret == "" {
		missing = append(missing, "LINKEDIN_CLIENT_SECRET")
	}
	if l.RedirectURI == "" {
		missing = append(missing, "LINKEDIN_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// tickParser accepts standard five-field expressions, an optional leading
// seconds field, and descriptors such as @every 1m.
var tickParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseTick parses a SCHEDULER_TICK expression.
func ParseTick(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty expression")
	}
	return tickParser.Parse(expr)
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
