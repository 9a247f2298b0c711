package auth

import (
	"context"
	"net/http"
	"strings"

	pkghttp "github.com/vitrinelabs/vitrine/pkg/http"

	"github.com/vitrinelabs/vitrine/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// Middleware validates the Authorization bearer token and injects the
// resolved identity into the request context. CSRF validation downstream
// depends on this identity being present.
func Middleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := bearerClaims(tm, r)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or missing credentials")
				return
			}

			// Refresh tokens are only good for the refresh endpoint
			if claims.Type != "access" {
				pkghttp.WriteUnauthorized(w, "invalid or missing credentials")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware resolves the bearer identity when present but lets
// anonymous requests through. The CSRF middleware decides what to do with
// requests that carry no identity.
func OptionalMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := bearerClaims(tm, r); err == nil && claims.Type == "access" {
				ctx := context.WithValue(r.Context(), UserContextKey, claims)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole enforces role-based access. Must run after Middleware.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}
			if claims.Role != role {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the token claims stored by Middleware, or nil
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, _ := r.Context().Value(UserContextKey).(*models.TokenClaims)
	return claims
}

func bearerClaims(tm *TokenManager, r *http.Request) (*models.TokenClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, models.ErrUnauthorized
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, models.ErrUnauthorized
	}

	return tm.ValidateToken(parts[1])
}
