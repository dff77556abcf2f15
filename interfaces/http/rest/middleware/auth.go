package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"devinsights-backend/pkg/auth"
	"devinsights-backend/pkg/common"
)

// Authenticate validates bearer tokens and stashes the caller's identity
// on the request context. Unauthenticated requests are rejected before
// they reach a handler. Per-IP rate limiting runs first so that invalid
// tokens cannot be brute-forced cheaply.
func Authenticate(jwt *auth.JWTManager, limiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil {
				allowed, err := limiter.Allow(r.Context(), clientIP(r))
				if err != nil {
					logger.Warn("rate limiter error", zap.Error(err))
				} else if !allowed {
					common.RespondError(w, http.StatusTooManyRequests,
						common.StandardErrorCodes.TooManyRequests, "Rate limit exceeded")
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				common.RespondError(w, http.StatusUnauthorized,
					common.StandardErrorCodes.Unauthorized, "Missing authorization header")
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				common.RespondError(w, http.StatusUnauthorized,
					common.StandardErrorCodes.Unauthorized, "Authorization header must use the Bearer scheme")
				return
			}

			claims, err := jwt.Validate(token)
			if err != nil {
				logger.Debug("token validation failed", zap.Error(err))
				common.RespondError(w, http.StatusUnauthorized,
					common.StandardErrorCodes.Unauthorized, "Invalid or expired token")
				return
			}
			if claims.TokenType == auth.TokenTypeRefresh {
				common.RespondError(w, http.StatusUnauthorized,
					common.StandardErrorCodes.Unauthorized, "Refresh tokens cannot access the API")
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = common.WithUserID(ctx, claims.UserID)
			ctx = common.WithOrganizationID(ctx, claims.OrganizationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose token does not carry one of the given
// roles. Must run after Authenticate.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.GetUserFromContext(r.Context())
			if !ok {
				common.RespondError(w, http.StatusUnauthorized,
					common.StandardErrorCodes.Unauthorized, "Authentication required")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				common.RespondError(w, http.StatusForbidden,
					common.StandardErrorCodes.Forbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
