// Package github defines the typed GitHub activity records the aggregation
// pipeline works with.
package github

import (
	"fmt"
	"strings"
	"time"
)

// Repository is a repository owned by the analyzed user or organization.
// Forked repositories are filtered out by the client before they reach here.
type Repository struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	FullName  string    `json:"full_name"`
	Private   bool      `json:"private"`
	Language  string    `json:"language,omitempty"`
	Stars     int       `json:"stars"`
	Forks     int       `json:"forks"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CommitAuthor identifies who authored a commit and when.
type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// Commit is a single commit, annotated with the repository it came from once
// the aggregator has fanned out across repositories.
type Commit struct {
	SHA        string       `json:"sha"`
	Message    string       `json:"message"`
	Author     CommitAuthor `json:"author"`
	URL        string       `json:"url"`
	Repository string       `json:"repository,omitempty"`
}

// TimeDelta expresses the span between two events in a report-friendly form.
type TimeDelta struct {
	Hours     int    `json:"hours"`
	Days      int    `json:"days"`
	Formatted string `json:"formatted"`
}

// NewTimeDelta computes the delta between start and end.
func NewTimeDelta(start, end time.Time) TimeDelta {
	hours := int(end.Sub(start).Hours())
	days := hours / 24
	formatted := ""
	if days > 0 {
		formatted = formatDays(days, hours%24)
	} else {
		formatted = formatHours(hours)
	}
	return TimeDelta{Hours: hours, Days: days, Formatted: formatted}
}

// PullRequest is a pull request with its review/merge timing metrics.
type PullRequest struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	State        string     `json:"state"`
	AuthorLogin  string     `json:"author_login"`
	AuthorAvatar string     `json:"author_avatar,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	TimeToClose  *TimeDelta `json:"time_to_close,omitempty"`
	TimeToMerge  *TimeDelta `json:"time_to_merge,omitempty"`
	Reviewers    []string   `json:"reviewers,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	Repository   string     `json:"repository,omitempty"`
}

// Merged reports whether the pull request was merged.
func (pr PullRequest) Merged() bool {
	return pr.MergedAt != nil
}

// Priority buckets issues by label severity.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IssueLabel is a label with its display color.
type IssueLabel struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Issue is an issue (pull requests are excluded by the client) with the
// categorization derived from its labels.
type Issue struct {
	ID          int64        `json:"id"`
	Number      int          `json:"number"`
	Title       string       `json:"title"`
	State       string       `json:"state"`
	AuthorLogin string       `json:"author_login"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ClosedAt    *time.Time   `json:"closed_at,omitempty"`
	TimeToClose *TimeDelta   `json:"time_to_close,omitempty"`
	Age         TimeDelta    `json:"age"`
	Labels      []IssueLabel `json:"labels,omitempty"`
	Assignees   []string     `json:"assignees,omitempty"`
	Comments    int          `json:"comments"`
	IsBug       bool         `json:"is_bug"`
	IsFeature   bool         `json:"is_feature"`
	Priority    Priority     `json:"priority"`
	Repository  string       `json:"repository,omitempty"`
}

// ClassifyLabels derives bug/feature flags and a priority bucket from issue labels.
func ClassifyLabels(labels []IssueLabel) (isBug, isFeature bool, priority Priority) {
	priority = PriorityMedium
	joined := make([]string, 0, len(labels))
	for _, l := range labels {
		name := strings.ToLower(l.Name)
		joined = append(joined, name)
		if strings.Contains(name, "bug") {
			isBug = true
		}
		if strings.Contains(name, "feature") || strings.Contains(name, "enhancement") {
			isFeature = true
		}
	}
	all := strings.Join(joined, " ")
	switch {
	case strings.Contains(all, "critical") || strings.Contains(all, "urgent"):
		priority = PriorityHigh
	case strings.Contains(all, "low") || strings.Contains(all, "minor"):
		priority = PriorityLow
	}
	return isBug, isFeature, priority
}

func formatDays(days, hours int) string {
	return fmt.Sprintf("%dd %dh", days, hours)
}

func formatHours(hours int) string {
	return fmt.Sprintf("%dh", hours)
}
