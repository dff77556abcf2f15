package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"devinsights-backend/domain/analytics"
	"devinsights-backend/domain/github"
	"devinsights-backend/infrastructure/cache"
)

// ActivitySource is the slice of the GitHub client the dashboard needs.
type ActivitySource interface {
	ListUserRepositories(ctx context.Context, username string, limit int) ([]github.Repository, error)
	ListRepositoryCommits(ctx context.Context, owner, repo string, since time.Time, limit int) ([]github.Commit, error)
	ListRepositoryPullRequests(ctx context.Context, owner, repo string, limit int) ([]github.PullRequest, error)
	ListRepositoryIssues(ctx context.Context, owner, repo string, limit int) ([]github.Issue, error)
}

// AnalyticsCache is the slice of the multi-tier cache the dashboard needs.
type AnalyticsCache interface {
	GetAnalytics(ctx context.Context, subject string) *cache.Entry
	SaveAnalytics(ctx context.Context, subject string, payload json.RawMessage) cache.SaveResult
	ClearAnalytics(ctx context.Context, subject string) cache.ClearResult
	Stats(ctx context.Context) cache.Stats
}

// DashboardOptions tune one dashboard request.
type DashboardOptions struct {
	Days       int
	ReposLimit int
	Refresh    bool
}

func (o DashboardOptions) normalized() DashboardOptions {
	if o.Days <= 0 {
		o.Days = 30
	}
	if o.ReposLimit <= 0 {
		o.ReposLimit = 5
	}
	return o
}

// DashboardResult is a dashboard plus where it came from.
type DashboardResult struct {
	Dashboard       analytics.Dashboard `json:"dashboard"`
	FromCache       bool                `json:"from_cache"`
	CacheTier       cache.Tier          `json:"cache_tier,omitempty"`
	CacheAgeSeconds int64               `json:"cache_age_seconds,omitempty"`
	PromotedToHot   bool                `json:"promoted_to_hot,omitempty"`
	GenerationMs    int64               `json:"generation_ms,omitempty"`
}

const (
	repositoryFetchLimit = 10
	perRepoCommitLimit   = 100
	perRepoPRLimit       = 30
	perRepoIssueLimit    = 30
	repoFetchConcurrency = 4
)

// DashboardService serves analytics dashboards cache-first and generates
// them from GitHub on misses. Concurrent requests for the same subject are
// collapsed into one generation.
type DashboardService struct {
	source    ActivitySource
	cache     AnalyticsCache
	analytics *AnalyticsService
	logger    *zap.Logger

	group  singleflight.Group
	saveWG sync.WaitGroup
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(source ActivitySource, analyticsCache AnalyticsCache, analyticsService *AnalyticsService, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		source:    source,
		cache:     analyticsCache,
		analytics: analyticsService,
		logger:    logger,
	}
}

// GetDashboard returns the dashboard for a GitHub username, from cache
// when possible. With Refresh set the cache read is skipped; the fresh
// result still lands in both tiers.
func (s *DashboardService) GetDashboard(ctx context.Context, username string, opts DashboardOptions) (*DashboardResult, error) {
	opts = opts.normalized()

	if !opts.Refresh {
		if entry := s.cache.GetAnalytics(ctx, username); entry != nil {
			var dashboard analytics.Dashboard
			if err := json.Unmarshal(entry.Payload, &dashboard); err != nil {
				s.logger.Warn("discarding undecodable cached dashboard",
					zap.String("subject", username),
					zap.Error(err),
				)
			} else {
				return &DashboardResult{
					Dashboard:       dashboard,
					FromCache:       true,
					CacheTier:       entry.CacheTier,
					CacheAgeSeconds: entry.CacheAgeSeconds,
					PromotedToHot:   entry.PromotedToHot,
				}, nil
			}
		}
	}

	key := fmt.Sprintf("%s:%d:%d", username, opts.Days, opts.ReposLimit)
	result, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.generate(ctx, username, opts)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("dashboard generation deduplicated", zap.String("subject", username))
	}
	return result.(*DashboardResult), nil
}

func (s *DashboardService) generate(ctx context.Context, username string, opts DashboardOptions) (*DashboardResult, error) {
	start := time.Now()

	repos, err := s.source.ListUserRepositories(ctx, username, repositoryFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", username, err)
	}

	analyzed := repos
	if len(analyzed) > opts.ReposLimit {
		analyzed = analyzed[:opts.ReposLimit]
	}

	since := start.AddDate(0, 0, -opts.Days)

	var mu sync.Mutex
	var allCommits []github.Commit
	var allPRs []github.PullRequest
	var allIssues []github.Issue

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(repoFetchConcurrency)
	for _, repo := range analyzed {
		repo := repo
		g.Go(func() error {
			commits, err := s.source.ListRepositoryCommits(gctx, username, repo.Name, since, perRepoCommitLimit)
			if err != nil {
				s.logger.Warn("skipping repository, commit fetch failed",
					zap.String("repository", repo.Name),
					zap.Error(err),
				)
				return nil
			}
			prs, err := s.source.ListRepositoryPullRequests(gctx, username, repo.Name, perRepoPRLimit)
			if err != nil {
				s.logger.Warn("pull request fetch failed",
					zap.String("repository", repo.Name),
					zap.Error(err),
				)
			}
			issues, err := s.source.ListRepositoryIssues(gctx, username, repo.Name, perRepoIssueLimit)
			if err != nil {
				s.logger.Warn("issue fetch failed",
					zap.String("repository", repo.Name),
					zap.Error(err),
				)
			}

			mu.Lock()
			allCommits = append(allCommits, commits...)
			allPRs = append(allPRs, prs...)
			allIssues = append(allIssues, issues...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := s.analytics.BuildReport(repos, allCommits, allPRs, allIssues, opts.Days, start)
	dashboard := analytics.Dashboard{
		Report: report,
		RawCounts: analytics.RawCounts{
			Repositories:  len(repos),
			Commits:       len(allCommits),
			PullRequests:  len(allPRs),
			Issues:        len(allIssues),
			AnalyzedRepos: len(analyzed),
		},
	}

	s.saveAsync(ctx, username, dashboard)

	return &DashboardResult{
		Dashboard:    dashboard,
		GenerationMs: time.Since(start).Milliseconds(),
	}, nil
}

// saveAsync persists a fresh dashboard without blocking the response. The
// write outcome is logged; a failed write only costs the next request a
// regeneration.
func (s *DashboardService) saveAsync(ctx context.Context, username string, dashboard analytics.Dashboard) {
	payload, err := json.Marshal(dashboard)
	if err != nil {
		s.logger.Error("failed to encode dashboard for caching",
			zap.String("subject", username),
			zap.Error(err),
		)
		return
	}

	saveCtx := context.WithoutCancel(ctx)
	s.saveWG.Add(1)
	go func() {
		defer s.saveWG.Done()
		result := s.cache.SaveAnalytics(saveCtx, username, payload)
		if result.Success {
			s.logger.Info("dashboard cached",
				zap.String("subject", username),
			)
			return
		}
		s.logger.Warn("dashboard caching incomplete",
			zap.String("subject", username),
			zap.Bool("hot_saved", result.HotSaved),
			zap.Bool("cold_saved", result.ColdSaved),
		)
	}()
}

// ListRepositories returns a user's repositories, forks excluded.
func (s *DashboardService) ListRepositories(ctx context.Context, username string, limit int) ([]github.Repository, error) {
	if limit <= 0 {
		limit = repositoryFetchLimit
	}
	return s.source.ListUserRepositories(ctx, username, limit)
}

// RepositoryCommits returns a repository's commits from the last days.
func (s *DashboardService) RepositoryCommits(ctx context.Context, owner, repo string, days int) ([]github.Commit, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)
	return s.source.ListRepositoryCommits(ctx, owner, repo, since, perRepoCommitLimit)
}

// RepositoryPullRequests returns a repository's pull requests.
func (s *DashboardService) RepositoryPullRequests(ctx context.Context, owner, repo string) ([]github.PullRequest, error) {
	return s.source.ListRepositoryPullRequests(ctx, owner, repo, perRepoPRLimit)
}

// RepositoryIssues returns a repository's issues.
func (s *DashboardService) RepositoryIssues(ctx context.Context, owner, repo string) ([]github.Issue, error) {
	return s.source.ListRepositoryIssues(ctx, owner, repo, perRepoIssueLimit)
}

// ClearDashboard invalidates the cached dashboard for a subject.
func (s *DashboardService) ClearDashboard(ctx context.Context, username string) cache.ClearResult {
	return s.cache.ClearAnalytics(ctx, username)
}

// CacheStats reports the state of both cache tiers.
func (s *DashboardService) CacheStats(ctx context.Context) cache.Stats {
	return s.cache.Stats(ctx)
}
