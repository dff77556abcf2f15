package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types distinguish short-lived access tokens from the longer
// refresh tokens that can only mint new sessions.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carries the identity embedded in a token.
type Claims struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	TokenType      string `json:"typ"`
	jwt.RegisteredClaims
}

type claimsContextKey struct{}

const refreshTTL = 7 * 24 * time.Hour

// JWTManager issues and validates HMAC-signed tokens.
type JWTManager struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// NewJWTManager creates a JWTManager.
func NewJWTManager(secret, issuer string, tokenTTL time.Duration) *JWTManager {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), issuer: issuer, tokenTTL: tokenTTL}
}

// Issue creates a signed access token for the given identity.
func (m *JWTManager) Issue(userID, email, organizationID, role string) (string, error) {
	return m.sign(userID, email, organizationID, role, TokenTypeAccess, m.tokenTTL)
}

// IssueRefresh creates a signed refresh token for the given identity.
func (m *JWTManager) IssueRefresh(userID, email, organizationID, role string) (string, error) {
	return m.sign(userID, email, organizationID, role, TokenTypeRefresh, refreshTTL)
}

func (m *JWTManager) sign(userID, email, organizationID, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:         userID,
		Email:          email,
		OrganizationID: organizationID,
		Role:           role,
		TokenType:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, returning its claims.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// WithClaims stores validated claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// GetUserFromContext returns the validated claims set by the auth middleware.
func GetUserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok
}
