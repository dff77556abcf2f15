// Package handlers contains the REST handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"devinsights-backend/application/services"
	"devinsights-backend/infrastructure/github"
	"devinsights-backend/pkg/common"
)

// AnalyticsHandler serves dashboards and cache management endpoints.
type AnalyticsHandler struct {
	dashboards *services.DashboardService
	logger     *zap.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(dashboards *services.DashboardService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{dashboards: dashboards, logger: logger}
}

// GetDashboard handles GET /api/github/{username}/dashboard
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "username is required")
		return
	}

	query := r.URL.Query()
	opts := services.DashboardOptions{
		Days:       queryInt(r, "days", 30),
		ReposLimit: queryInt(r, "repos_limit", 5),
		Refresh:    query.Get("refresh") == "true" || query.Get("force_refresh") == "true",
	}

	result, err := h.dashboards.GetDashboard(r.Context(), username, opts)
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to generate dashboard", username)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// ListRepositories handles GET /api/github/{username}/repos
func (h *AnalyticsHandler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	repos, err := h.dashboards.ListRepositories(r.Context(), username, queryInt(r, "limit", 10))
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to list repositories", username)
		return
	}
	common.RespondJSON(w, http.StatusOK, repos)
}

// ListCommits handles GET /api/github/{username}/{repo}/commits
func (h *AnalyticsHandler) ListCommits(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	repo := chi.URLParam(r, "repo")
	commits, err := h.dashboards.RepositoryCommits(r.Context(), username, repo, queryInt(r, "days", 30))
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to list commits", username)
		return
	}
	common.RespondJSON(w, http.StatusOK, commits)
}

// ListPullRequests handles GET /api/github/{username}/{repo}/pulls
func (h *AnalyticsHandler) ListPullRequests(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	repo := chi.URLParam(r, "repo")
	prs, err := h.dashboards.RepositoryPullRequests(r.Context(), username, repo)
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to list pull requests", username)
		return
	}
	common.RespondJSON(w, http.StatusOK, prs)
}

// ListIssues handles GET /api/github/{username}/{repo}/issues
func (h *AnalyticsHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	repo := chi.URLParam(r, "repo")
	issues, err := h.dashboards.RepositoryIssues(r.Context(), username, repo)
	if err != nil {
		h.respondUpstreamError(w, err, "Failed to list issues", username)
		return
	}
	common.RespondJSON(w, http.StatusOK, issues)
}

func (h *AnalyticsHandler) respondUpstreamError(w http.ResponseWriter, err error, message, username string) {
	switch {
	case errors.Is(err, github.ErrNotFound):
		common.RespondError(w, http.StatusNotFound,
			common.StandardErrorCodes.NotFound, "GitHub resource not found")
	case errors.Is(err, github.ErrRateLimited):
		common.RespondError(w, http.StatusServiceUnavailable,
			common.StandardErrorCodes.ServiceUnavailable, "GitHub rate limit exhausted, try again later")
	default:
		h.logger.Error("github request failed",
			zap.String("username", username),
			zap.Error(err),
		)
		common.RespondError(w, http.StatusBadGateway,
			common.StandardErrorCodes.InternalError, message)
	}
}

// GetCacheStats handles GET /api/cache/stats
func (h *AnalyticsHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.dashboards.CacheStats(r.Context()))
}

// ClearCache handles DELETE /api/cache/{username}
func (h *AnalyticsHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "username is required")
		return
	}
	common.RespondJSON(w, http.StatusOK, h.dashboards.ClearDashboard(r.Context(), username))
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
