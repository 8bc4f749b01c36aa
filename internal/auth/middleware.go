package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// AuthMiddleware handles authentication for HTTP requests
type AuthMiddleware struct {
	tokenManager *TokenManager
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenManager *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{
		tokenManager: tokenManager,
	}
}

// HTTPMiddleware is HTTP middleware for REST endpoints
// It validates Bearer tokens and adds authentication info to the context
func (am *AuthMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			http.Error(w, fmt.Sprintf(`{"error": %q, "code": 401}`, err), http.StatusUnauthorized)
			return
		}

		claims, err := am.tokenManager.ValidateToken(token)
		if err != nil {
			errorMsg := fmt.Sprintf(`{"error": "invalid token: %v", "code": 401}`, err)
			http.Error(w, errorMsg, http.StatusUnauthorized)
			return
		}

		ctx := ContextWithClaims(r.Context(), claims, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header, falling back
// to the access_token query parameter for EventSource and WebSocket clients
// that cannot set headers.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, nil
		}
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid authorization header format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// ValidateToken validates a JWT token and returns claims
func (am *AuthMiddleware) ValidateToken(token string) (*Claims, error) {
	return am.tokenManager.ValidateToken(token)
}
