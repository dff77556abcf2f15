package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"devinsights-backend/application/services"
	"devinsights-backend/domain/github"
	"devinsights-backend/infrastructure/cache"
	"devinsights-backend/infrastructure/identity"
	"devinsights-backend/interfaces/http/rest/handlers"
	"devinsights-backend/pkg/auth"
	apperrors "devinsights-backend/pkg/errors"
)

type stubSource struct{}

func (stubSource) ListUserRepositories(ctx context.Context, username string, limit int) ([]github.Repository, error) {
	return []github.Repository{{Name: "api", Language: "Go", UpdatedAt: time.Now()}}, nil
}

func (stubSource) ListRepositoryCommits(ctx context.Context, owner, repo string, since time.Time, limit int) ([]github.Commit, error) {
	return []github.Commit{{
		SHA:        "abc",
		Author:     github.CommitAuthor{Name: "alice", Email: "a@x", Date: time.Now().Add(-24 * time.Hour)},
		Repository: repo,
	}}, nil
}

func (stubSource) ListRepositoryPullRequests(ctx context.Context, owner, repo string, limit int) ([]github.PullRequest, error) {
	return nil, nil
}

func (stubSource) ListRepositoryIssues(ctx context.Context, owner, repo string, limit int) ([]github.Issue, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	hot := cache.NewMemoryHotStore()
	t.Cleanup(hot.Close)
	tiered := cache.NewMultiTierCache(hot, cache.NewMemoryColdStore(), time.Hour, 30*24*time.Hour, logger, nil)

	jwt := auth.NewJWTManager("test-secret", "devinsights-test", time.Hour)
	errorHandler := apperrors.NewErrorHandler(logger, false)

	accountSvc := services.NewAccountService(
		identity.NewMemoryOrganizationStore(),
		identity.NewMemoryUserStore(),
		identity.NewMemoryInvitationStore(),
		jwt,
		logger,
	)
	dashboardSvc := services.NewDashboardService(stubSource{}, tiered, services.NewAnalyticsService(logger), logger)
	aiSvc := services.NewAIService("http://unused", "", "test-model", time.Second, logger)

	router := NewRouter(
		handlers.NewAnalyticsHandler(dashboardSvc, logger),
		handlers.NewAuthHandler(accountSvc, errorHandler, logger),
		handlers.NewTeamHandler(accountSvc, errorHandler, logger),
		handlers.NewInsightsHandler(aiSvc, logger),
		jwt,
		nil,
		logger,
	)

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, client *http.Client, url, token string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func signUp(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, server.Client(), server.URL+"/api/auth/signup", "", map[string]string{
		"organization_name": "Acme",
		"name":              "Alice",
		"email":             "alice@acme.test",
		"password":          "s3cret-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &session)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDashboardRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/api/github/octocat/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignUpLoginAndDashboardFlow(t *testing.T) {
	server := newTestServer(t)
	token := signUp(t, server)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/github/octocat/dashboard?days=7", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Dashboard struct {
			Analytics struct {
				Overview struct {
					TotalCommits int `json:"total_commits"`
				} `json:"overview"`
			} `json:"analytics"`
		} `json:"dashboard"`
		FromCache bool `json:"from_cache"`
	}
	decodeData(t, resp, &result)
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, result.Dashboard.Analytics.Overview.TotalCommits)
}

func TestLoginWithBadPassword(t *testing.T) {
	server := newTestServer(t)
	signUp(t, server)

	resp := postJSON(t, server.Client(), server.URL+"/api/auth/login", "", map[string]string{
		"email":    "alice@acme.test",
		"password": "wrong-password",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	server := newTestServer(t)
	token := signUp(t, server)

	resp := postJSON(t, server.Client(), server.URL+"/api/teams/invitations", token, map[string]string{
		"email": "bob@acme.test",
		"role":  "member",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var invitation struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &invitation)
	require.NotEmpty(t, invitation.Token)

	resp = postJSON(t, server.Client(), server.URL+"/api/auth/invitations/accept", "", map[string]string{
		"token":    invitation.Token,
		"name":     "Bob",
		"password": "bobs-password",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestInviteRequiresAdminRole(t *testing.T) {
	server := newTestServer(t)
	token := signUp(t, server)

	// Bring in a member and try to invite with their token.
	resp := postJSON(t, server.Client(), server.URL+"/api/teams/invitations", token, map[string]string{
		"email": "bob@acme.test",
		"role":  "member",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var invitation struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &invitation)

	resp = postJSON(t, server.Client(), server.URL+"/api/auth/invitations/accept", "", map[string]string{
		"token":    invitation.Token,
		"name":     "Bob",
		"password": "bobs-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &session)

	resp = postJSON(t, server.Client(), server.URL+"/api/teams/invitations", session.Token, map[string]string{
		"email": "carol@acme.test",
		"role":  "member",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCodeQualityInsightFallback(t *testing.T) {
	server := newTestServer(t)
	token := signUp(t, server)

	resp := postJSON(t, server.Client(), server.URL+"/api/ai/code-quality", token, map[string]interface{}{
		"username": "octocat",
		"sample":   map[string]interface{}{"total_commits": 12},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Mock        bool `json:"mock"`
		CodeQuality struct {
			Score float64 `json:"score"`
		} `json:"code_quality"`
	}
	decodeData(t, resp, &result)
	assert.True(t, result.Mock)
	assert.Equal(t, 7.5, result.CodeQuality.Score)
}

func TestCacheStatsEndpoint(t *testing.T) {
	server := newTestServer(t)
	token := signUp(t, server)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/cache/stats", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Hot struct {
			Available bool `json:"available"`
		} `json:"hot"`
	}
	decodeData(t, resp, &stats)
	assert.True(t, stats.Hot.Available)
}

func TestTokenRefreshFlow(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.Client(), server.URL+"/api/auth/signup", "", map[string]string{
		"organization_name": "Acme",
		"name":              "Alice",
		"email":             "alice@acme.test",
		"password":          "s3cret-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeData(t, resp, &session)
	require.NotEmpty(t, session.RefreshToken)

	// A refresh token cannot be used as a bearer token.
	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session.RefreshToken)
	denied, err := server.Client().Do(req)
	require.NoError(t, err)
	denied.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, denied.StatusCode)

	// Exchanging it yields a fresh working session.
	resp = postJSON(t, server.Client(), server.URL+"/api/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var renewed struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &renewed)
	require.NotEmpty(t, renewed.Token)

	req, err = http.NewRequest(http.MethodGet, server.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+renewed.Token)
	resp2, err := server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var profile struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeData(t, resp2, &profile)
	assert.Equal(t, "alice@acme.test", profile.User.Email)
}

func TestListRepositoriesEndpoint(t *testing.T) {
	server := newTestServer(t)
	token := signUp(t, server)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/github/octocat/repos", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var repos []struct {
		Name string `json:"name"`
	}
	decodeData(t, resp, &repos)
	require.Len(t, repos, 1)
	assert.Equal(t, "api", repos[0].Name)
}

func TestListCommitsEndpoint(t *testing.T) {
	server := newTestServer(t)
	token := signUp(t, server)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/github/octocat/api/commits?days=7", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var commits []struct {
		SHA string `json:"sha"`
	}
	decodeData(t, resp, &commits)
	require.Len(t, commits, 1)
	assert.Equal(t, "abc", commits[0].SHA)
}
