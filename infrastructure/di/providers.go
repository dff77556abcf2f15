// Package di wires the application together with google/wire.
package di

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"devinsights-backend/application/services"
	"devinsights-backend/infrastructure/cache"
	"devinsights-backend/infrastructure/config"
	"devinsights-backend/infrastructure/github"
	"devinsights-backend/infrastructure/identity"
	"devinsights-backend/infrastructure/observability"
	"devinsights-backend/infrastructure/persistence/dynamodb"
	"devinsights-backend/interfaces/http/rest"
	"devinsights-backend/interfaces/http/rest/handlers"
	"devinsights-backend/pkg/auth"
	"devinsights-backend/pkg/errors"
)

// ProvideConfig loads and validates configuration
func ProvideConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.TracingEnabled {
		observability.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideRedisClient creates a Redis client. The connection is lazy, so
// deployments running on the in-memory hot store pay nothing for it.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

// ProvideHotStore selects the hot cache tier implementation
func ProvideHotStore(cfg *config.Config, client *redis.Client, logger *zap.Logger) cache.HotStore {
	if cfg.HotStoreKind == "memory" {
		logger.Info("using in-memory hot cache store")
		return cache.NewMemoryHotStore()
	}
	return cache.NewRedisStore(client, logger)
}

// ProvideColdStore selects the cold cache tier implementation
func ProvideColdStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) cache.ColdStore {
	if cfg.ColdStoreKind == "memory" {
		logger.Info("using in-memory cold cache store")
		return cache.NewMemoryColdStore()
	}
	return cache.NewDynamoStore(client, cfg.CacheTable, logger)
}

// ProvideMetricsRecorder selects the cache metrics sink
func ProvideMetricsRecorder(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) cache.MetricsRecorder {
	if !cfg.MetricsEnabled {
		return cache.NopMetrics{}
	}
	return observability.NewCloudWatchMetrics(client, cfg.MetricsNamespace, logger)
}

// ProvideMultiTierCache creates the tiered analytics cache
func ProvideMultiTierCache(hot cache.HotStore, cold cache.ColdStore, cfg *config.Config, logger *zap.Logger, metrics cache.MetricsRecorder) *cache.MultiTierCache {
	return cache.NewMultiTierCache(hot, cold, cfg.HotTTL, cfg.ColdTTL, logger, metrics)
}

// ProvideGitHubClient creates the GitHub API client
func ProvideGitHubClient(cfg *config.Config, logger *zap.Logger) *github.Client {
	return github.NewClient(cfg.GitHubBaseURL, cfg.GitHubToken, logger)
}

// ProvideJWTManager creates the token issuer/validator
func ProvideJWTManager(cfg *config.Config) *auth.JWTManager {
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
}

// ProvideRateLimiter creates the per-IP request limiter
func ProvideRateLimiter(cfg *config.Config) auth.RateLimiter {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 10
	}
	return auth.NewTokenBucketLimiter(rps, time.Second/time.Duration(rps))
}

// ProvideOrganizationStore selects the organization persistence
func ProvideOrganizationStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) services.OrganizationStore {
	if cfg.ColdStoreKind == "memory" {
		return identity.NewMemoryOrganizationStore()
	}
	return dynamodb.NewOrganizationRepository(client, cfg.OrganizationsTable, logger)
}

// ProvideUserStore selects the user persistence
func ProvideUserStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) services.UserStore {
	if cfg.ColdStoreKind == "memory" {
		return identity.NewMemoryUserStore()
	}
	return dynamodb.NewUserRepository(client, cfg.UsersTable, logger)
}

// ProvideInvitationStore selects the invitation persistence
func ProvideInvitationStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) services.InvitationStore {
	if cfg.ColdStoreKind == "memory" {
		return identity.NewMemoryInvitationStore()
	}
	return dynamodb.NewInvitationRepository(client, cfg.InvitationsTable, logger)
}

// ProvideAnalyticsService creates the analytics computation service
func ProvideAnalyticsService(logger *zap.Logger) *services.AnalyticsService {
	return services.NewAnalyticsService(logger)
}

// ProvideDashboardService creates the dashboard orchestration service
func ProvideDashboardService(client *github.Client, tiered *cache.MultiTierCache, analytics *services.AnalyticsService, logger *zap.Logger) *services.DashboardService {
	return services.NewDashboardService(client, tiered, analytics, logger)
}

// ProvideAccountService creates the account service
func ProvideAccountService(orgs services.OrganizationStore, users services.UserStore, invitations services.InvitationStore, jwt *auth.JWTManager, logger *zap.Logger) *services.AccountService {
	return services.NewAccountService(orgs, users, invitations, jwt, logger)
}

// ProvideAIService creates the AI insight service
func ProvideAIService(cfg *config.Config, logger *zap.Logger) *services.AIService {
	return services.NewAIService(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.AIModel, cfg.AITimeout, logger)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.Debug)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	dashboards *services.DashboardService,
	accounts *services.AccountService,
	ai *services.AIService,
	errorHandler *errors.ErrorHandler,
	jwt *auth.JWTManager,
	limiter auth.RateLimiter,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(
		handlers.NewAnalyticsHandler(dashboards, logger),
		handlers.NewAuthHandler(accounts, errorHandler, logger),
		handlers.NewTeamHandler(accounts, errorHandler, logger),
		handlers.NewInsightsHandler(ai, logger),
		jwt,
		limiter,
		logger,
	)
}
