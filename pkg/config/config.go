package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rolodexhq/rolodex/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Mail          MailConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig

	// PublicBaseURL is the externally reachable URL used in email links
	PublicBaseURL string

	// BirthdaySchedule is the cron expression for the daily greeting job
	BirthdaySchedule string

	// CORSAllowedOrigins lists origins allowed by the CORS middleware
	CORSAllowedOrigins []string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// RedisConfig holds Redis configuration for the identity cache and rate limiter
type RedisConfig struct {
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// AuthConfig holds token signing and caching configuration
type AuthConfig struct {
	// JWTSecret signs all tokens; required, no default
	JWTSecret string
	// JWTAlgorithm is fixed per deployment; only HS256 is supported
	JWTAlgorithm string
	// AccessTokenTTL bounds the session duration
	AccessTokenTTL time.Duration
	// IdentityCacheTTL bounds cached identity snapshots
	IdentityCacheTTL time.Duration
}

// MailConfig holds SMTP configuration for transactional email
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FromName    string
	TemplateDir string
}

// RateLimitConfig holds request rate limiting settings
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
	BurstSize         int
	// Distributed switches to the Redis-backed limiter
	Distributed bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:             loadServerConfig(),
		Database:           loadDatabaseConfig(),
		Redis:              loadRedisConfig(),
		Auth:               loadAuthConfig(),
		Mail:               loadMailConfig(),
		RateLimit:          loadRateLimitConfig(),
		Observability:      loadObservabilityConfig(),
		PublicBaseURL:      getEnv("ROLODEX_PUBLIC_BASE_URL", "http://localhost:8080"),
		BirthdaySchedule:   getEnv("ROLODEX_BIRTHDAY_SCHEDULE", "0 8 * * *"),
		CORSAllowedOrigins: strings.Split(getEnv("ROLODEX_CORS_ORIGINS", "*"), ","),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("ROLODEX_HOST", "0.0.0.0"),
		Port:            getEnv("ROLODEX_PORT", "8080"),
		ReadTimeout:     getEnvDuration("ROLODEX_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("ROLODEX_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("ROLODEX_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("ROLODEX_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("ROLODEX_HEALTH_PORT", "9090"),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:      getEnv("ROLODEX_POSTGRES_URL", ""),
		MaxConns: getEnvInt("ROLODEX_POSTGRES_MAX_CONNS", 25),
		MinConns: getEnvInt("ROLODEX_POSTGRES_MIN_CONNS", 5),
		Timeout:  getEnvDuration("ROLODEX_POSTGRES_TIMEOUT", 5*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:        getEnv("ROLODEX_REDIS_URL", "redis://localhost:6379/0"),
		Password:   getEnv("ROLODEX_REDIS_PASSWORD", ""),
		DB:         getEnvInt("ROLODEX_REDIS_DB", -1),
		MaxRetries: getEnvInt("ROLODEX_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("ROLODEX_REDIS_POOL_SIZE", 10),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:        getEnv("ROLODEX_JWT_SECRET", ""),
		JWTAlgorithm:     getEnv("ROLODEX_JWT_ALGORITHM", "HS256"),
		AccessTokenTTL:   getEnvDuration("ROLODEX_ACCESS_TOKEN_TTL", 15*time.Minute),
		IdentityCacheTTL: getEnvDuration("ROLODEX_IDENTITY_CACHE_TTL", time.Hour),
	}
}

func loadMailConfig() MailConfig {
	return MailConfig{
		Host:        getEnv("ROLODEX_MAIL_HOST", "localhost"),
		Port:        getEnvInt("ROLODEX_MAIL_PORT", 587),
		Username:    getEnv("ROLODEX_MAIL_USERNAME", ""),
		Password:    getEnv("ROLODEX_MAIL_PASSWORD", ""),
		From:        getEnv("ROLODEX_MAIL_FROM", "noreply@rolodex.local"),
		FromName:    getEnv("ROLODEX_MAIL_FROM_NAME", "Rolodex"),
		TemplateDir: getEnv("ROLODEX_MAIL_TEMPLATE_DIR", "templates"),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: getEnvInt("ROLODEX_RATELIMIT_REQUESTS", 10),
		WindowDuration:    getEnvDuration("ROLODEX_RATELIMIT_WINDOW", time.Minute),
		BurstSize:         getEnvInt("ROLODEX_RATELIMIT_BURST", 5),
		Distributed:       getEnvBool("ROLODEX_RATELIMIT_DISTRIBUTED", false),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           ParseLogLevel(getEnv("ROLODEX_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("ROLODEX_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("ROLODEX_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("ROLODEX_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("ROLODEX_OTEL_SERVICE_NAME", "rolodex-api"),
		OTelServiceVersion: getEnv("ROLODEX_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("ROLODEX_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.JWTAlgorithm != "HS256" {
		return fmt.Errorf("unsupported JWT algorithm: %s (only HS256 is supported)", c.Auth.JWTAlgorithm)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}
	if c.Auth.IdentityCacheTTL <= 0 {
		return fmt.Errorf("identity cache TTL must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// ParseLogLevel parses a log level string
func ParseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
// Accepts Go duration strings ("90s", "1h") or plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
