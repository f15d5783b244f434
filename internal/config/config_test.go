package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			AllowedOrigins: []string{"http://localhost:3000"},
			LogLevel:       "info",
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "herald",
			Database:  "main",
		},
		Gemini: GeminiConfig{
			APIKey:  "key",
			Model:   "gemini-1.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: time.Minute,
		},
		LinkedIn: LinkedInConfig{
			PostURL: "https://api.linkedin.com/v2/ugcPosts",
		},
		Publish: PublishConfig{
			Timeout:    30 * time.Second,
			RatePerSec: 5,
		},
		Scheduler: SchedulerConfig{
			Tick:    "* * * * *",
			Workers: 1,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 60,
			Burst:     10,
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	if err := validBaseConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "invalid"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid SERVER_ENV")
	}
	if !strings.Contains(err.Error(), "SERVER_ENV") {
		t.Errorf("expected error to mention SERVER_ENV, got: %v", err)
	}
}

func TestConfig_Validate_MissingGeminiKey(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Gemini.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing GEMINI_API_KEY")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("expected error to mention GEMINI_API_KEY, got: %v", err)
	}

	cfg.Server.Env = "test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("GEMINI_API_KEY should be optional in test env, got: %v", err)
	}
}

func TestConfig_Validate_PartialLinkedIn(t *testing.T) {
	cfg := validBaseConfig()
	cfg.LinkedIn.ClientID = "client"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for partial LinkedIn config")
	}
	if !strings.Contains(err.Error(), "LINKEDIN_CLIENT_SECRET") || !strings.Contains(err.Error(), "LINKEDIN_REDIRECT_URI") {
		t.Errorf("expected missing LinkedIn fields in error, got: %v", err)
	}
}

func TestConfig_Validate_BadTick(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Scheduler.Tick = "every minute please"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid SCHEDULER_TICK")
	}
	if !strings.Contains(err.Error(), "SCHEDULER_TICK") {
		t.Errorf("expected error to mention SCHEDULER_TICK, got: %v", err)
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""
	cfg.Scheduler.Workers = 0
	cfg.Publish.Timeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"SERVER_PORT", "SCHEDULER_WORKERS", "PUBLISH_TIMEOUT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got: %v", want, err)
		}
	}
}

func TestParseTick(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"0 * * * * *", false},
		{"@every 30s", false},
		{"@hourly", false},
		{"", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ParseTick(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTick(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestParseTick_MinuteBoundary(t *testing.T) {
	sched, err := ParseTick("* * * * *")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 9, 0, 17, 0, time.UTC)
	want := time.Date(2026, 3, 1, 9, 1, 0, 0, time.UTC)
	if got := sched.Next(now); !got.Equal(want) {
		t.Errorf("Next(%v) = %v, want %v", now, got, want)
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := validBaseConfig()
		cfg.Server.LogLevel = in
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCHEDULER_TICK", "")
	t.Setenv("PUBLISH_TIMEOUT", "")
	t.Setenv("DB_NAMESPACE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scheduler.Tick != "* * * * *" {
		t.Errorf("Tick = %q", cfg.Scheduler.Tick)
	}
	if cfg.Publish.Timeout != 30*time.Second {
		t.Errorf("Publish.Timeout = %v", cfg.Publish.Timeout)
	}
	if cfg.Database.Namespace != "herald" {
		t.Errorf("Namespace = %q", cfg.Database.Namespace)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SCHEDULER_WORKERS", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("GEMINI_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scheduler.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Scheduler.Workers)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Gemini.Timeout != 5*time.Second {
		t.Errorf("Gemini.Timeout = %v", cfg.Gemini.Timeout)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HERALD_TEST_VALUE=base\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env.local"), []byte("HERALD_TEST_VALUE=local\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HERALD_TEST_VALUE", "")

	loaded := LoadEnvFiles(nil)
	if len(loaded) != 2 {
		t.Fatalf("loaded = %v, want both files", loaded)
	}
	if got := os.Getenv("HERALD_TEST_VALUE"); got != "local" {
		t.Errorf("HERALD_TEST_VALUE = %q, want local", got)
	}
}
