// Package config manages application configuration for the Herald API.
//
// Configuration is read from environment variables. Local .env and .env.local
// files are merged into the environment first when present:
//
//	config.LoadEnvFiles(logger)
//	cfg, err := config.Load()
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS, log level)
//   - DatabaseConfig: SurrealDB connection settings
//   - GeminiConfig: content generation API
//   - LinkedInConfig / TelegramConfig: publishing platforms
//   - PublishConfig: per-publish timeout and outbound rate
//   - SchedulerConfig: dispatcher tick expression and worker count
//   - OperatorConfig: bcrypt hash protecting schedule management
//   - RateLimitConfig: inbound per-client limiter
//
// # Environment Variables
//
//	SERVER_PORT          - HTTP server port (default: 8080)
//	LOG_LEVEL            - debug, info, warn, error (default: info)
//	GEMINI_API_KEY       - required outside SERVER_ENV=test
//	SCHEDULER_TICK       - cron expression for tick boundaries (default: every minute)
//	PUBLISH_TIMEOUT      - deadline for one publish call (default: 30s)
//	OPERATOR_KEY_HASH    - bcrypt hash; empty disables /api/marketing/schedule
package config
