package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devinsights-backend/domain/github"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, 8, d, hour, 0, 0, 0, time.UTC)
}

func commit(sha, name, email, repo string, at time.Time) github.Commit {
	return github.Commit{
		SHA:        sha,
		Author:     github.CommitAuthor{Name: name, Email: email, Date: at},
		Repository: repo,
	}
}

func TestCommitTrends(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	trends := s.CommitTrends([]github.Commit{
		commit("a", "alice", "a@x", "api", day(1, 9)),
		commit("b", "alice", "a@x", "api", day(1, 14)),
		commit("c", "bob", "b@x", "api", day(1, 18)),
		commit("d", "bob", "b@x", "web", day(3, 8)),
	})

	require.Len(t, trends, 2)
	assert.Equal(t, "2026-08-01", trends[0].Date)
	assert.Equal(t, 3, trends[0].Count)
	assert.Equal(t, 2, trends[0].Authors)
	assert.Equal(t, "2026-08-03", trends[1].Date)
	assert.Equal(t, 1, trends[1].Count)
}

func TestCommitTrends_Empty(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())
	assert.Empty(t, s.CommitTrends(nil))
}

func TestAuthorProductivity(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	authors := s.AuthorProductivity([]github.Commit{
		commit("a", "alice", "a@x", "api", day(1, 9)),
		commit("b", "alice", "a@x", "api", day(2, 9)),
		commit("c", "alice", "a@x", "api", day(2, 15)),
		commit("d", "bob", "b@x", "api", day(1, 10)),
	})

	require.Len(t, authors, 2)
	assert.Equal(t, "alice", authors[0].Name)
	assert.Equal(t, 3, authors[0].Commits)
	assert.Equal(t, 2, authors[0].ActiveDays)
	assert.Equal(t, day(1, 9).Format(time.RFC3339), authors[0].FirstCommit)
	assert.Equal(t, day(2, 15).Format(time.RFC3339), authors[0].LastCommit)
	assert.Equal(t, "bob", authors[1].Name)
}

func TestRepositoryMetrics(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	repos := []github.Repository{
		{Name: "api", UpdatedAt: day(5, 0)},
		{Name: "web", UpdatedAt: day(6, 0)},
	}
	commits := []github.Commit{
		commit("a", "alice", "a@x", "api", day(1, 0)),
		commit("b", "alice", "a@x", "api", day(2, 0)),
		commit("c", "bob", "b@x", "web", day(3, 0)),
	}

	metrics := s.RepositoryMetrics(repos, commits)
	assert.Equal(t, 2, metrics.TotalRepositories)
	assert.Equal(t, 3, metrics.TotalCommits)
	assert.Equal(t, 2, metrics.UniqueContributors)
	assert.Equal(t, "api", metrics.MostActiveRepo)
	assert.Equal(t, 1.5, metrics.CommitsPerDay) // 3 commits over a 2-day span
	assert.Greater(t, metrics.ActivityScore, 0.0)
	assert.LessOrEqual(t, metrics.ActivityScore, 10.0)
}

func TestRepositoryMetrics_NoRepositories(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	metrics := s.RepositoryMetrics(nil, nil)
	assert.Equal(t, "N/A", metrics.MostActiveRepo)
	assert.Zero(t, metrics.TotalCommits)
}

func TestRepositoryMetrics_NoCommitsFallsBackToRecentRepo(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	repos := []github.Repository{
		{Name: "old", UpdatedAt: day(1, 0)},
		{Name: "fresh", UpdatedAt: day(9, 0)},
	}
	metrics := s.RepositoryMetrics(repos, nil)
	assert.Equal(t, "fresh", metrics.MostActiveRepo)
	assert.Equal(t, 0.0, metrics.ActivityScore)
}

func TestPullRequestMetrics(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	mergedAt := day(3, 0)
	prs := []github.PullRequest{
		{State: "closed", MergedAt: &mergedAt, TimeToMerge: &github.TimeDelta{Hours: 48}},
		{State: "closed", MergedAt: &mergedAt, TimeToMerge: &github.TimeDelta{Hours: 24}},
		{State: "open"},
		{State: "closed"},
	}

	metrics := s.PullRequestMetrics(prs)
	assert.Equal(t, 4, metrics.Total)
	assert.Equal(t, 2, metrics.Merged)
	assert.Equal(t, 1, metrics.Open)
	assert.Equal(t, 3, metrics.Closed)
	assert.Equal(t, 36, metrics.AvgTimeToMergeHours)
	assert.Equal(t, 50.0, metrics.MergeRate)
}

func TestIssueMetrics(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	issues := []github.Issue{
		{State: "open", Age: github.TimeDelta{Days: 45}, IsBug: true},
		{State: "open", Age: github.TimeDelta{Days: 2}},
		{State: "closed", TimeToClose: &github.TimeDelta{Hours: 10}, IsFeature: true},
		{State: "closed", TimeToClose: &github.TimeDelta{Hours: 30}},
	}

	metrics := s.IssueMetrics(issues)
	assert.Equal(t, 4, metrics.Total)
	assert.Equal(t, 2, metrics.Open)
	assert.Equal(t, 2, metrics.Closed)
	assert.Equal(t, 1, metrics.Bugs)
	assert.Equal(t, 1, metrics.Features)
	assert.Equal(t, 1, metrics.Stale)
	assert.Equal(t, 20, metrics.AvgResolutionHours)
}

func TestHealthScore_Bounds(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	assert.Equal(t, 50, s.HealthScore(nil, nil, nil))

	mergedAt := day(3, 0)
	commits := make([]github.Commit, 200)
	prs := []github.PullRequest{{State: "closed", MergedAt: &mergedAt}}
	issues := []github.Issue{{State: "closed"}}
	assert.Equal(t, 100, s.HealthScore(commits, prs, issues))
}

func TestBuildReport(t *testing.T) {
	s := NewAnalyticsService(zap.NewNop())

	repos := []github.Repository{{Name: "api", Language: "Go", Stars: 3, UpdatedAt: day(4, 0)}}
	commits := []github.Commit{commit("a", "alice", "a@x", "api", day(2, 0))}

	report := s.BuildReport(repos, commits, nil, nil, 30, day(10, 0))
	assert.Equal(t, 1, report.Overview.TotalRepositories)
	assert.Equal(t, 1, report.Overview.TotalCommits)
	assert.Equal(t, "api", report.Overview.MostActiveRepo)
	assert.Equal(t, 30, report.TimePeriod.Days)
	require.Len(t, report.RepositoryBreakdown, 1)
	assert.Equal(t, 1, report.RepositoryBreakdown[0].Commits)
	require.Len(t, report.CommitTrends, 1)
}
