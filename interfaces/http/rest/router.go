// Package rest wires the HTTP surface: router, middleware and handlers.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"devinsights-backend/interfaces/http/rest/handlers"
	"devinsights-backend/interfaces/http/rest/middleware"
	"devinsights-backend/pkg/auth"
	"devinsights-backend/pkg/common"
)

// Router creates and configures the HTTP router
type Router struct {
	analytics *handlers.AnalyticsHandler
	authH     *handlers.AuthHandler
	teams     *handlers.TeamHandler
	insights  *handlers.InsightsHandler
	jwt       *auth.JWTManager
	limiter   auth.RateLimiter
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	analytics *handlers.AnalyticsHandler,
	authHandler *handlers.AuthHandler,
	teams *handlers.TeamHandler,
	insights *handlers.InsightsHandler,
	jwt *auth.JWTManager,
	limiter auth.RateLimiter,
	logger *zap.Logger,
) *Router {
	return &Router{
		analytics: analytics,
		authH:     authHandler,
		teams:     teams,
		insights:  insights,
		jwt:       jwt,
		limiter:   limiter,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.devinsights.dev"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)

	// Public auth endpoints
	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", rt.authH.SignUp)
		r.Post("/login", rt.authH.Login)
		r.Post("/refresh", rt.authH.Refresh)
		r.Post("/invitations/accept", rt.authH.AcceptInvitation)
	})

	// Authenticated API
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.jwt, rt.limiter, rt.logger))

		r.Get("/api/auth/me", rt.authH.Me)

		r.Route("/api/github", func(r chi.Router) {
			r.Get("/{username}/dashboard", rt.analytics.GetDashboard)
			r.Get("/{username}/repos", rt.analytics.ListRepositories)
			r.Get("/{username}/{repo}/commits", rt.analytics.ListCommits)
			r.Get("/{username}/{repo}/pulls", rt.analytics.ListPullRequests)
			r.Get("/{username}/{repo}/issues", rt.analytics.ListIssues)
		})

		r.Route("/api/cache", func(r chi.Router) {
			r.Get("/stats", rt.analytics.GetCacheStats)
			r.Delete("/{username}", rt.analytics.ClearCache)
		})

		r.Route("/api/teams", func(r chi.Router) {
			r.Get("/members", rt.teams.ListMembers)
			r.Get("/invitations", rt.teams.ListInvitations)

			// Only admins manage invitations.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))
				r.Post("/invitations", rt.teams.InviteMember)
				r.Delete("/invitations/{invitationID}", rt.teams.RevokeInvitation)
			})
		})

		r.Route("/api/ai", func(r chi.Router) {
			r.Post("/code-quality", rt.insights.AnalyzeCodeQuality)
			r.Post("/burnout", rt.insights.DetectBurnoutRisk)
			r.Post("/team-performance", rt.insights.AnalyzeTeamPerformance)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "devinsights-backend",
	})
}
