//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"devinsights-backend/application/services"
	"devinsights-backend/infrastructure/cache"
	"devinsights-backend/infrastructure/config"
	"devinsights-backend/infrastructure/github"
	"devinsights-backend/interfaces/http/rest"
	"devinsights-backend/pkg/auth"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	HotStore    cache.HotStore
	Cache       *cache.MultiTierCache
	GitHub      *github.Client
	Dashboards  *services.DashboardService
	Accounts    *services.AccountService
	Insights    *services.AIService
	JWT         *auth.JWTManager
	RateLimiter auth.RateLimiter
	Router      *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideCloudWatchClient,
	ProvideRedisClient,
	ProvideHotStore,
	ProvideColdStore,
	ProvideMetricsRecorder,
	ProvideMultiTierCache,
	ProvideGitHubClient,
	ProvideJWTManager,
	ProvideRateLimiter,
	ProvideOrganizationStore,
	ProvideUserStore,
	ProvideInvitationStore,
	ProvideAnalyticsService,
	ProvideDashboardService,
	ProvideAccountService,
	ProvideAIService,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
