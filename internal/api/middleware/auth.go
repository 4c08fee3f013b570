package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rohits-web03/reciperater/internal/session"
	"github.com/rohits-web03/reciperater/internal/utils"
)

type contextKey string

const UserIDKey contextKey = "userID"

// UserID returns the owner id set by AuthMiddleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

// WithUserID is used by tests to skip AuthMiddleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// AuthMiddleware accepts the session token from the "token" cookie or a
// Bearer Authorization header.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr := bearerToken(r)
			if tokenStr == "" {
				if c, err := r.Cookie("token"); err == nil {
					tokenStr = c.Value
				}
			}
			if tokenStr == "" {
				unauthorized(w)
				return
			}

			claims, err := session.Parse(secret, tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
}
