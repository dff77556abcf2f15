// Package services holds the application services that orchestrate the
// domain: analytics computation, dashboard generation, AI insights and
// account management.
package services

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"devinsights-backend/domain/analytics"
	"devinsights-backend/domain/github"
)

// AnalyticsService computes dashboard reports from raw GitHub activity.
// All methods are pure; the service carries only a logger.
type AnalyticsService struct {
	logger *zap.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{logger: logger}
}

const (
	authorProductivityLimit  = 10
	repositoryBreakdownLimit = 5
	staleIssueDays           = 30
)

// BuildReport assembles the full dashboard report for one analysis window.
func (s *AnalyticsService) BuildReport(
	repos []github.Repository,
	commits []github.Commit,
	prs []github.PullRequest,
	issues []github.Issue,
	windowDays int,
	now time.Time,
) analytics.Report {
	repoMetrics := s.RepositoryMetrics(repos, commits)
	prMetrics := s.PullRequestMetrics(prs)
	issueMetrics := s.IssueMetrics(issues)

	authors := s.AuthorProductivity(commits)
	if len(authors) > authorProductivityLimit {
		authors = authors[:authorProductivityLimit]
	}

	return analytics.Report{
		Overview: analytics.Overview{
			TotalRepositories:  repoMetrics.TotalRepositories,
			TotalCommits:       repoMetrics.TotalCommits,
			UniqueContributors: repoMetrics.UniqueContributors,
			CommitsPerDay:      repoMetrics.CommitsPerDay,
			ActivityScore:      repoMetrics.ActivityScore,
			MostActiveRepo:     repoMetrics.MostActiveRepo,
			TotalPullRequests:  prMetrics.Total,
			MergedPRs:          prMetrics.Merged,
			PRMergeRate:        prMetrics.MergeRate,
			TotalIssues:        issueMetrics.Total,
			OpenIssues:         issueMetrics.Open,
			BugsReported:       issueMetrics.Bugs,
		},
		CommitTrends:        s.CommitTrends(commits),
		AuthorProductivity:  authors,
		PullRequestMetrics:  prMetrics,
		IssueMetrics:        issueMetrics,
		RepositoryBreakdown: s.RepositoryBreakdown(repos, commits),
		TimePeriod: analytics.TimePeriod{
			Days: windowDays,
			From: now.AddDate(0, 0, -windowDays).UTC().Format(time.RFC3339),
			To:   now.UTC().Format(time.RFC3339),
		},
	}
}

// CommitTrends groups commits into a per-day time series with unique
// author counts.
func (s *AnalyticsService) CommitTrends(commits []github.Commit) []analytics.CommitTrendPoint {
	if len(commits) == 0 {
		return []analytics.CommitTrendPoint{}
	}

	type dayBucket struct {
		count   int
		authors map[string]struct{}
	}
	byDate := make(map[string]*dayBucket)
	for _, commit := range commits {
		date := commit.Author.Date.UTC().Format("2006-01-02")
		bucket, ok := byDate[date]
		if !ok {
			bucket = &dayBucket{authors: make(map[string]struct{})}
			byDate[date] = bucket
		}
		bucket.count++
		bucket.authors[commit.Author.Name] = struct{}{}
	}

	points := make([]analytics.CommitTrendPoint, 0, len(byDate))
	for date, bucket := range byDate {
		points = append(points, analytics.CommitTrendPoint{
			Date:    date,
			Count:   bucket.count,
			Authors: len(bucket.authors),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// AuthorProductivity aggregates per-author commit stats, sorted by commit
// count descending.
func (s *AnalyticsService) AuthorProductivity(commits []github.Commit) []analytics.AuthorProductivity {
	if len(commits) == 0 {
		return []analytics.AuthorProductivity{}
	}

	type authorAgg struct {
		analytics.AuthorProductivity
		first      time.Time
		last       time.Time
		activeDays map[string]struct{}
	}
	byAuthor := make(map[string]*authorAgg)
	for _, commit := range commits {
		name := commit.Author.Name
		agg, ok := byAuthor[name]
		if !ok {
			agg = &authorAgg{
				AuthorProductivity: analytics.AuthorProductivity{
					Name:  name,
					Email: commit.Author.Email,
				},
				first:      commit.Author.Date,
				last:       commit.Author.Date,
				activeDays: make(map[string]struct{}),
			}
			byAuthor[name] = agg
		}
		agg.Commits++
		agg.activeDays[commit.Author.Date.UTC().Format("2006-01-02")] = struct{}{}
		if commit.Author.Date.After(agg.last) {
			agg.last = commit.Author.Date
		}
		if commit.Author.Date.Before(agg.first) {
			agg.first = commit.Author.Date
		}
	}

	authors := make([]analytics.AuthorProductivity, 0, len(byAuthor))
	for _, agg := range byAuthor {
		agg.FirstCommit = agg.first.UTC().Format(time.RFC3339)
		agg.LastCommit = agg.last.UTC().Format(time.RFC3339)
		agg.ActiveDays = len(agg.activeDays)
		authors = append(authors, agg.AuthorProductivity)
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].Commits != authors[j].Commits {
			return authors[i].Commits > authors[j].Commits
		}
		return authors[i].Name < authors[j].Name
	})
	return authors
}

// RepositoryMetrics computes the statistical aggregates over all repos.
func (s *AnalyticsService) RepositoryMetrics(repos []github.Repository, commits []github.Commit) analytics.RepositoryMetrics {
	if len(repos) == 0 {
		return analytics.RepositoryMetrics{MostActiveRepo: "N/A"}
	}

	uniqueAuthors := make(map[string]struct{})
	for _, commit := range commits {
		uniqueAuthors[commit.Author.Email] = struct{}{}
	}

	daySpan := commitDateSpan(commits)
	commitsPerDay := 0.0
	if daySpan > 0 {
		commitsPerDay = round2(float64(len(commits)) / float64(daySpan))
	}

	return analytics.RepositoryMetrics{
		TotalRepositories:  len(repos),
		TotalCommits:       len(commits),
		UniqueContributors: len(uniqueAuthors),
		CommitsPerDay:      commitsPerDay,
		MostActiveRepo:     mostActiveRepository(repos, commits),
		ActivityScore:      activityScore(len(commits), len(uniqueAuthors), daySpan),
	}
}

// commitDateSpan returns the whole days between the earliest and latest
// commit, at least 1 when any commits exist.
func commitDateSpan(commits []github.Commit) int {
	if len(commits) == 0 {
		return 0
	}
	min, max := commits[0].Author.Date, commits[0].Author.Date
	for _, commit := range commits[1:] {
		if commit.Author.Date.Before(min) {
			min = commit.Author.Date
		}
		if commit.Author.Date.After(max) {
			max = commit.Author.Date
		}
	}
	days := int(math.Ceil(max.Sub(min).Hours() / 24))
	if days == 0 {
		days = 1
	}
	return days
}

func mostActiveRepository(repos []github.Repository, commits []github.Commit) string {
	if len(commits) == 0 {
		if len(repos) == 0 {
			return "Unknown"
		}
		latest := repos[0]
		for _, repo := range repos[1:] {
			if repo.UpdatedAt.After(latest.UpdatedAt) {
				latest = repo
			}
		}
		return latest.Name
	}

	counts := make(map[string]int)
	for _, commit := range commits {
		name := commit.Repository
		if name == "" {
			name = "Unknown"
		}
		counts[name]++
	}
	best, bestCount := "Unknown", -1
	for name, count := range counts {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	return best
}

// activityScore blends commit volume, team size and consistency into a
// 0-10 score with one decimal.
func activityScore(commits, authors, days int) float64 {
	if commits == 0 {
		return 0
	}
	commitScore := math.Min(float64(commits)/10, 10)
	authorScore := math.Min(float64(authors)*2, 10)
	consistencyScore := 0.0
	if days > 0 {
		consistencyScore = math.Min(float64(commits)/float64(days)*10, 10)
	}
	total := (commitScore + authorScore + consistencyScore) / 3
	return math.Round(total*10) / 10
}

// PullRequestMetrics aggregates pull request throughput.
func (s *AnalyticsService) PullRequestMetrics(prs []github.PullRequest) analytics.PullRequestMetrics {
	if len(prs) == 0 {
		return analytics.PullRequestMetrics{}
	}

	metrics := analytics.PullRequestMetrics{Total: len(prs)}
	mergeHours := 0
	for _, pr := range prs {
		switch pr.State {
		case "open":
			metrics.Open++
		case "closed":
			metrics.Closed++
		}
		if pr.Merged() {
			metrics.Merged++
			if pr.TimeToMerge != nil {
				mergeHours += pr.TimeToMerge.Hours
			}
		}
	}
	if metrics.Merged > 0 {
		metrics.AvgTimeToMergeHours = int(math.Round(float64(mergeHours) / float64(metrics.Merged)))
	}
	metrics.MergeRate = round1(float64(metrics.Merged) / float64(metrics.Total) * 100)
	return metrics
}

// IssueMetrics aggregates issue throughput and categorization. Open issues
// older than 30 days count as stale.
func (s *AnalyticsService) IssueMetrics(issues []github.Issue) analytics.IssueMetrics {
	if len(issues) == 0 {
		return analytics.IssueMetrics{}
	}

	metrics := analytics.IssueMetrics{Total: len(issues)}
	resolutionHours, resolved := 0, 0
	for _, issue := range issues {
		switch issue.State {
		case "open":
			metrics.Open++
			if issue.Age.Days > staleIssueDays {
				metrics.Stale++
			}
		case "closed":
			metrics.Closed++
			if issue.TimeToClose != nil {
				resolutionHours += issue.TimeToClose.Hours
				resolved++
			}
		}
		if issue.IsBug {
			metrics.Bugs++
		}
		if issue.IsFeature {
			metrics.Features++
		}
	}
	if resolved > 0 {
		metrics.AvgResolutionHours = int(math.Round(float64(resolutionHours) / float64(resolved)))
	}
	return metrics
}

// RepositoryBreakdown lists the first repositories with their commit
// counts from the analysis window.
func (s *AnalyticsService) RepositoryBreakdown(repos []github.Repository, commits []github.Commit) []analytics.RepositoryBreakdown {
	counts := make(map[string]int)
	for _, commit := range commits {
		counts[commit.Repository]++
	}

	limit := len(repos)
	if limit > repositoryBreakdownLimit {
		limit = repositoryBreakdownLimit
	}
	breakdown := make([]analytics.RepositoryBreakdown, 0, limit)
	for _, repo := range repos[:limit] {
		breakdown = append(breakdown, analytics.RepositoryBreakdown{
			Name:        repo.Name,
			Language:    repo.Language,
			Stars:       repo.Stars,
			Commits:     counts[repo.Name],
			LastUpdated: repo.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return breakdown
}

// HealthScore blends commit, PR and issue throughput into a 0-100 score.
func (s *AnalyticsService) HealthScore(commits []github.Commit, prs []github.PullRequest, issues []github.Issue) int {
	score := 50.0

	if len(commits) > 0 {
		score += math.Min(float64(len(commits))/5, 20)
	}

	if len(prs) > 0 {
		merged := 0
		for _, pr := range prs {
			if pr.Merged() {
				merged++
			}
		}
		score += float64(merged) / float64(len(prs)) * 15
	}

	if len(issues) > 0 {
		closed := 0
		for _, issue := range issues {
			if issue.State == "closed" {
				closed++
			}
		}
		score += float64(closed) / float64(len(issues)) * 15
	}

	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
