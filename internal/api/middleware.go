package api

import (
	"context"
	"net/http"
	"strings"

	"fridge/internal/auth"
	"fridge/internal/models"
)

type contextKey string

const (
	userIDKey    contextKey = "userID"
	userEmailKey contextKey = "userEmail"
)

type AuthMiddleware struct {
	verifier *auth.Verifier
}

func NewAuthMiddleware(verifier *auth.Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.verifier.Verify(parts[1])
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
		ctx = context.WithValue(ctx, userEmailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(r *http.Request) string {
	if v := r.Context().Value(userIDKey); v != nil {
		if userID, ok := v.(string); ok {
			return userID
		}
	}
	return ""
}

func GetUserEmail(r *http.Request) string {
	if v := r.Context().Value(userEmailKey); v != nil {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}

// identityFromRequest rebuilds the caller's identity from the verified token
// claims. CreatedAt is not carried in the token and stays zero.
func identityFromRequest(r *http.Request) *models.Identity {
	return &models.Identity{
		ID:    GetUserID(r),
		Email: GetUserEmail(r),
	}
}
