package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devinsights-backend/domain/github"
	"devinsights-backend/infrastructure/cache"
)

type fakeSource struct {
	repos      []github.Repository
	commits    map[string][]github.Commit
	prs        map[string][]github.PullRequest
	issues     map[string][]github.Issue
	failRepos  bool
	failCommit map[string]bool

	listCalls atomic.Int32
}

func (f *fakeSource) ListUserRepositories(ctx context.Context, username string, limit int) ([]github.Repository, error) {
	f.listCalls.Add(1)
	if f.failRepos {
		return nil, errors.New("github down")
	}
	return f.repos, nil
}

func (f *fakeSource) ListRepositoryCommits(ctx context.Context, owner, repo string, since time.Time, limit int) ([]github.Commit, error) {
	if f.failCommit[repo] {
		return nil, errors.New("commit fetch failed")
	}
	return f.commits[repo], nil
}

func (f *fakeSource) ListRepositoryPullRequests(ctx context.Context, owner, repo string, limit int) ([]github.PullRequest, error) {
	return f.prs[repo], nil
}

func (f *fakeSource) ListRepositoryIssues(ctx context.Context, owner, repo string, limit int) ([]github.Issue, error) {
	return f.issues[repo], nil
}

func newDashboardFixture(t *testing.T, source *fakeSource) (*DashboardService, *cache.MultiTierCache) {
	t.Helper()
	hot := cache.NewMemoryHotStore()
	t.Cleanup(hot.Close)
	tiered := cache.NewMultiTierCache(hot, cache.NewMemoryColdStore(), time.Hour, 30*24*time.Hour, zap.NewNop(), nil)
	svc := NewDashboardService(source, tiered, NewAnalyticsService(zap.NewNop()), zap.NewNop())
	return svc, tiered
}

func testSource() *fakeSource {
	return &fakeSource{
		repos: []github.Repository{
			{Name: "api", Language: "Go", UpdatedAt: day(5, 0)},
			{Name: "web", Language: "TypeScript", UpdatedAt: day(4, 0)},
		},
		commits: map[string][]github.Commit{
			"api": {commit("a", "alice", "a@x", "api", day(2, 0))},
			"web": {commit("b", "bob", "b@x", "web", day(3, 0))},
		},
		prs:    map[string][]github.PullRequest{},
		issues: map[string][]github.Issue{},
	}
}

func TestGetDashboard_GeneratesOnMissAndCaches(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	svc, _ := newDashboardFixture(t, source)

	result, err := svc.GetDashboard(ctx, "octocat", DashboardOptions{})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 2, result.Dashboard.RawCounts.Repositories)
	assert.Equal(t, 2, result.Dashboard.RawCounts.Commits)
	assert.Equal(t, 2, result.Dashboard.RawCounts.AnalyzedRepos)
	assert.Equal(t, 2, result.Dashboard.Report.Overview.TotalCommits)

	svc.saveWG.Wait()

	cached, err := svc.GetDashboard(ctx, "octocat", DashboardOptions{})
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, cache.TierHot, cached.CacheTier)
	assert.Equal(t, result.Dashboard.Report.Overview, cached.Dashboard.Report.Overview)
	assert.Equal(t, int32(1), source.listCalls.Load())
}

func TestGetDashboard_RefreshBypassesCache(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	svc, _ := newDashboardFixture(t, source)

	_, err := svc.GetDashboard(ctx, "octocat", DashboardOptions{})
	require.NoError(t, err)
	svc.saveWG.Wait()

	result, err := svc.GetDashboard(ctx, "octocat", DashboardOptions{Refresh: true})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, int32(2), source.listCalls.Load())
}

func TestGetDashboard_SkipsFailingRepository(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	source.failCommit = map[string]bool{"api": true}
	svc, _ := newDashboardFixture(t, source)

	result, err := svc.GetDashboard(ctx, "octocat", DashboardOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dashboard.RawCounts.Commits)
}

func TestGetDashboard_SourceFailure(t *testing.T) {
	source := testSource()
	source.failRepos = true
	svc, _ := newDashboardFixture(t, source)

	_, err := svc.GetDashboard(context.Background(), "octocat", DashboardOptions{})
	assert.Error(t, err)
}

func TestGetDashboard_ReposLimitCapsAnalysis(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	svc, _ := newDashboardFixture(t, source)

	result, err := svc.GetDashboard(ctx, "octocat", DashboardOptions{ReposLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dashboard.RawCounts.AnalyzedRepos)
	assert.Equal(t, 2, result.Dashboard.RawCounts.Repositories)
	assert.Equal(t, 1, result.Dashboard.RawCounts.Commits)
}

func TestClearDashboard(t *testing.T) {
	ctx := context.Background()
	source := testSource()
	svc, tiered := newDashboardFixture(t, source)

	_, err := svc.GetDashboard(ctx, "octocat", DashboardOptions{})
	require.NoError(t, err)
	svc.saveWG.Wait()
	require.NotNil(t, tiered.GetAnalytics(ctx, "octocat"))

	result := svc.ClearDashboard(ctx, "octocat")
	assert.True(t, result.Success)
	assert.True(t, result.HotCleared)
	assert.True(t, result.ColdCleared)
	assert.Nil(t, tiered.GetAnalytics(ctx, "octocat"))
}
