// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string
	LogLevel    string
	Debug       bool

	// HTTP server (local mode)
	Port            int
	ShutdownTimeout time.Duration

	// AWS
	AWSRegion string

	// DynamoDB tables
	CacheTable         string
	UsersTable         string
	OrganizationsTable string
	InvitationsTable   string

	// Cache tiers. Store kinds select between networked clients and
	// in-memory implementations for local development and tests.
	HotStoreKind  string // "redis" or "memory"
	ColdStoreKind string // "dynamo" or "memory"
	RedisAddr     string
	RedisPassword string
	HotTTL        time.Duration
	ColdTTL       time.Duration

	// GitHub
	GitHubToken   string
	GitHubBaseURL string

	// AI insights
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	AIModel           string
	AITimeout         time.Duration

	// Auth
	JWTSecret    string
	JWTIssuer    string
	TokenTTL     time.Duration
	RateLimitRPS int

	// Observability
	MetricsEnabled   bool
	MetricsNamespace string
	TracingEnabled   bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() Config {
	return Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Debug:       getEnvBool("DEBUG", false),

		Port:            getEnvInt("PORT", 8080),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		AWSRegion: getEnv("AWS_REGION", "us-east-1"),

		CacheTable:         getEnv("CACHE_TABLE_NAME", "devinsights-cache"),
		UsersTable:         getEnv("USERS_TABLE_NAME", "devinsights-users"),
		OrganizationsTable: getEnv("ORGANIZATIONS_TABLE_NAME", "devinsights-organizations"),
		InvitationsTable:   getEnv("INVITATIONS_TABLE_NAME", "devinsights-invitations"),

		HotStoreKind:  getEnv("HOT_STORE", "redis"),
		ColdStoreKind: getEnv("COLD_STORE", "dynamo"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		HotTTL:        getEnvDuration("CACHE_HOT_TTL", time.Hour),
		ColdTTL:       getEnvDuration("CACHE_COLD_TTL", 30*24*time.Hour),

		GitHubToken:   getEnv("GITHUB_TOKEN", ""),
		GitHubBaseURL: getEnv("GITHUB_API_URL", "https://api.github.com"),

		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:           getEnv("AI_MODEL", "anthropic/claude-3-haiku"),
		AITimeout:         getEnvDuration("AI_TIMEOUT", 30*time.Second),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "devinsights"),
		TokenTTL:     getEnvDuration("TOKEN_TTL", 24*time.Hour),
		RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 10),

		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "DevInsights"),
		TracingEnabled:   getEnvBool("TRACING_ENABLED", false),
	}
}

// Validate checks that production deployments carry the settings they need.
func (c Config) Validate() error {
	if c.Environment != "production" {
		return nil
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.HotStoreKind == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when HOT_STORE=redis")
	}
	if c.ColdStoreKind == "dynamo" && c.CacheTable == "" {
		return fmt.Errorf("CACHE_TABLE_NAME is required when COLD_STORE=dynamo")
	}
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
