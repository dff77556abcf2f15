// Package github is a typed client for the subset of the GitHub REST API
// the analytics pipeline consumes.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	ghdomain "devinsights-backend/domain/github"
)

// ErrRateLimited is returned when GitHub reports an exhausted rate limit.
var ErrRateLimited = errors.New("github rate limit exhausted")

// ErrNotFound is returned for unknown users or repositories.
var ErrNotFound = errors.New("github resource not found")

// errEmptyRepository marks the 409 GitHub answers for repositories with no
// commits yet.
var errEmptyRepository = errors.New("github repository is empty")

// Client calls the GitHub REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// NewClient creates a Client. An empty token makes unauthenticated calls,
// which GitHub rate-limits far more aggressively.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		token:      token,
		logger:     logger,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling github: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return errEmptyRepository
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding github response: %w", err)
	}
	return nil
}

type wireRepository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Private         bool      `json:"private"`
	Fork            bool      `json:"fork"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	UpdatedAt       time.Time `json:"updated_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListUserRepositories returns the user's most recently updated
// repositories, with forks filtered out.
func (c *Client) ListUserRepositories(ctx context.Context, username string, limit int) ([]ghdomain.Repository, error) {
	query := url.Values{
		"sort":     {"updated"},
		"per_page": {strconv.Itoa(limit)},
	}
	var wire []wireRepository
	if err := c.get(ctx, "/users/"+url.PathEscape(username)+"/repos", query, &wire); err != nil {
		return nil, err
	}

	repos := make([]ghdomain.Repository, 0, len(wire))
	for _, w := range wire {
		if w.Fork {
			continue
		}
		repos = append(repos, ghdomain.Repository{
			ID:        w.ID,
			Name:      w.Name,
			FullName:  w.FullName,
			Private:   w.Private,
			Language:  w.Language,
			Stars:     w.StargazersCount,
			Forks:     w.ForksCount,
			UpdatedAt: w.UpdatedAt,
			CreatedAt: w.CreatedAt,
		})
	}
	return repos, nil
}

type wireCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
}

// ListRepositoryCommits returns commits since the given time. An empty
// repository yields an empty slice, not an error.
func (c *Client) ListRepositoryCommits(ctx context.Context, owner, repo string, since time.Time, limit int) ([]ghdomain.Commit, error) {
	query := url.Values{
		"since":    {since.UTC().Format(time.RFC3339)},
		"per_page": {strconv.Itoa(limit)},
	}
	var wire []wireCommit
	err := c.get(ctx, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo)+"/commits", query, &wire)
	if err != nil {
		if errors.Is(err, errEmptyRepository) {
			return nil, nil
		}
		return nil, err
	}

	commits := make([]ghdomain.Commit, 0, len(wire))
	for _, w := range wire {
		commits = append(commits, ghdomain.Commit{
			SHA:     w.SHA,
			Message: w.Commit.Message,
			Author: ghdomain.CommitAuthor{
				Name:  w.Commit.Author.Name,
				Email: w.Commit.Author.Email,
				Date:  w.Commit.Author.Date,
			},
			URL:        w.HTMLURL,
			Repository: repo,
		})
	}
	return commits, nil
}

type wireUser struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

type wireLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type wirePullRequest struct {
	ID                 int64       `json:"id"`
	Number             int         `json:"number"`
	Title              string      `json:"title"`
	State              string      `json:"state"`
	User               wireUser    `json:"user"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	ClosedAt           *time.Time  `json:"closed_at"`
	MergedAt           *time.Time  `json:"merged_at"`
	RequestedReviewers []wireUser  `json:"requested_reviewers"`
	Labels             []wireLabel `json:"labels"`
	Additions          int         `json:"additions"`
	Deletions          int         `json:"deletions"`
	ChangedFiles       int         `json:"changed_files"`
}

// ListRepositoryPullRequests returns pull requests in every state, with
// time-to-close and time-to-merge deltas precomputed.
func (c *Client) ListRepositoryPullRequests(ctx context.Context, owner, repo string, limit int) ([]ghdomain.PullRequest, error) {
	query := url.Values{
		"state":    {"all"},
		"sort":     {"updated"},
		"per_page": {strconv.Itoa(limit)},
	}
	var wire []wirePullRequest
	if err := c.get(ctx, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo)+"/pulls", query, &wire); err != nil {
		return nil, err
	}

	prs := make([]ghdomain.PullRequest, 0, len(wire))
	for _, w := range wire {
		pr := ghdomain.PullRequest{
			ID:           w.ID,
			Number:       w.Number,
			Title:        w.Title,
			State:        w.State,
			AuthorLogin:  w.User.Login,
			AuthorAvatar: w.User.AvatarURL,
			CreatedAt:    w.CreatedAt,
			UpdatedAt:    w.UpdatedAt,
			ClosedAt:     w.ClosedAt,
			MergedAt:     w.MergedAt,
			Additions:    w.Additions,
			Deletions:    w.Deletions,
			ChangedFiles: w.ChangedFiles,
			Repository:   repo,
		}
		if w.ClosedAt != nil {
			delta := ghdomain.NewTimeDelta(w.CreatedAt, *w.ClosedAt)
			pr.TimeToClose = &delta
		}
		if w.MergedAt != nil {
			delta := ghdomain.NewTimeDelta(w.CreatedAt, *w.MergedAt)
			pr.TimeToMerge = &delta
		}
		for _, reviewer := range w.RequestedReviewers {
			pr.Reviewers = append(pr.Reviewers, reviewer.Login)
		}
		for _, label := range w.Labels {
			pr.Labels = append(pr.Labels, label.Name)
		}
		prs = append(prs, pr)
	}
	return prs, nil
}

type wireIssue struct {
	ID          int64       `json:"id"`
	Number      int         `json:"number"`
	Title       string      `json:"title"`
	State       string      `json:"state"`
	User        wireUser    `json:"user"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ClosedAt    *time.Time  `json:"closed_at"`
	Labels      []wireLabel `json:"labels"`
	Assignees   []wireUser  `json:"assignees"`
	Comments    int         `json:"comments"`
	PullRequest *struct{}   `json:"pull_request,omitempty"`
}

// ListRepositoryIssues returns issues in every state. The issues endpoint
// also returns pull requests; those are filtered out here.
func (c *Client) ListRepositoryIssues(ctx context.Context, owner, repo string, limit int) ([]ghdomain.Issue, error) {
	query := url.Values{
		"state":    {"all"},
		"sort":     {"updated"},
		"per_page": {strconv.Itoa(limit)},
	}
	var wire []wireIssue
	if err := c.get(ctx, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo)+"/issues", query, &wire); err != nil {
		return nil, err
	}

	now := time.Now()
	issues := make([]ghdomain.Issue, 0, len(wire))
	for _, w := range wire {
		if w.PullRequest != nil {
			continue
		}
		issue := ghdomain.Issue{
			ID:          w.ID,
			Number:      w.Number,
			Title:       w.Title,
			State:       w.State,
			AuthorLogin: w.User.Login,
			CreatedAt:   w.CreatedAt,
			UpdatedAt:   w.UpdatedAt,
			ClosedAt:    w.ClosedAt,
			Age:         ghdomain.NewTimeDelta(w.CreatedAt, now),
			Comments:    w.Comments,
			Repository:  repo,
		}
		if w.ClosedAt != nil {
			delta := ghdomain.NewTimeDelta(w.CreatedAt, *w.ClosedAt)
			issue.TimeToClose = &delta
		}
		for _, label := range w.Labels {
			issue.Labels = append(issue.Labels, ghdomain.IssueLabel{Name: label.Name, Color: label.Color})
		}
		for _, assignee := range w.Assignees {
			issue.Assignees = append(issue.Assignees, assignee.Login)
		}
		issue.IsBug, issue.IsFeature, issue.Priority = ghdomain.ClassifyLabels(issue.Labels)
		issues = append(issues, issue)
	}
	return issues, nil
}
