package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/zlog"
)

type contextKey string

const userIDKey contextKey = "user_id"

const bearerPrefix = "Bearer "

// TokenVerifier resolves a bearer token to a user identity.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth rejects requests without a valid bearer token and stores the resolved
// user id on the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, "Missing Authorization token")
				return
			}

			token := strings.TrimPrefix(header, bearerPrefix)
			userID, err := verifier.Verify(token)
			if err != nil {
				zlog.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Token verification failed")
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id stored by Auth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID puts a user id on the context the same way Auth does. Intended
// for tests and internal callers that bypass the middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
