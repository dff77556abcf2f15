// Package analytics holds the computed report types produced by the
// aggregation pipeline and cached by the multi-tier cache.
package analytics

// Overview is the headline block of a dashboard report.
type Overview struct {
	TotalRepositories  int     `json:"total_repositories"`
	TotalCommits       int     `json:"total_commits"`
	UniqueContributors int     `json:"unique_contributors"`
	CommitsPerDay      float64 `json:"commits_per_day"`
	ActivityScore      float64 `json:"activity_score"`
	MostActiveRepo     string  `json:"most_active_repo"`
	TotalPullRequests  int     `json:"total_pull_requests"`
	MergedPRs          int     `json:"merged_prs"`
	PRMergeRate        float64 `json:"pr_merge_rate"`
	TotalIssues        int     `json:"total_issues"`
	OpenIssues         int     `json:"open_issues"`
	BugsReported       int     `json:"bugs_reported"`
}

// CommitTrendPoint is one day of commit activity.
type CommitTrendPoint struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Authors int    `json:"authors"`
}

// AuthorProductivity summarizes one author's activity over the window.
type AuthorProductivity struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Commits     int    `json:"commits"`
	FirstCommit string `json:"first_commit"`
	LastCommit  string `json:"last_commit"`
	ActiveDays  int    `json:"active_days"`
}

// RepositoryMetrics are the statistical aggregates over all analyzed repos.
type RepositoryMetrics struct {
	TotalRepositories  int     `json:"total_repositories"`
	TotalCommits       int     `json:"total_commits"`
	UniqueContributors int     `json:"unique_contributors"`
	CommitsPerDay      float64 `json:"commits_per_day"`
	MostActiveRepo     string  `json:"most_active_repo"`
	ActivityScore      float64 `json:"activity_score"`
}

// PullRequestMetrics aggregates pull request throughput.
type PullRequestMetrics struct {
	Total               int     `json:"total"`
	Merged              int     `json:"merged"`
	Open                int     `json:"open"`
	Closed              int     `json:"closed"`
	AvgTimeToMergeHours int     `json:"avg_time_to_merge_hours"`
	MergeRate           float64 `json:"merge_rate"`
}

// IssueMetrics aggregates issue throughput and categorization.
type IssueMetrics struct {
	Total              int `json:"total"`
	Open               int `json:"open"`
	Closed             int `json:"closed"`
	Bugs               int `json:"bugs"`
	Features           int `json:"features"`
	Stale              int `json:"stale"`
	AvgResolutionHours int `json:"avg_resolution_hours"`
}

// RepositoryBreakdown is the per-repository slice of the report.
type RepositoryBreakdown struct {
	Name        string `json:"name"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars"`
	Commits     int    `json:"commits"`
	LastUpdated string `json:"last_updated"`
}

// TimePeriod describes the analysis window.
type TimePeriod struct {
	Days int    `json:"days"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Report is the complete dashboard payload stored in the cache.
type Report struct {
	Overview            Overview              `json:"overview"`
	CommitTrends        []CommitTrendPoint    `json:"commit_trends"`
	AuthorProductivity  []AuthorProductivity  `json:"author_productivity"`
	PullRequestMetrics  PullRequestMetrics    `json:"pull_request_metrics"`
	IssueMetrics        IssueMetrics          `json:"issue_metrics"`
	RepositoryBreakdown []RepositoryBreakdown `json:"repository_breakdown"`
	TimePeriod          TimePeriod            `json:"time_period"`
}

// RawCounts records how much source material went into a report.
type RawCounts struct {
	Repositories  int `json:"repositories"`
	Commits       int `json:"commits"`
	PullRequests  int `json:"pull_requests"`
	Issues        int `json:"issues"`
	AnalyzedRepos int `json:"analyzed_repos"`
}

// Dashboard pairs a report with its raw-input counts; this is the unit the
// cache stores per subject.
type Dashboard struct {
	Report    Report    `json:"analytics"`
	RawCounts RawCounts `json:"raw_data"`
}
