package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/security"
)

const authFailedMessage = "Authentication failed!"

type contextKey string

const userIDKey contextKey = "userID"

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// stores the token's user id in the request context. Preflight requests pass
// through unchecked.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				denyAuth(w)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("rejected bearer token")
				denyAuth(w)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = observability.WithLogFields(ctx, "user_id", claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a context carrying the authenticated user id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func denyAuth(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": authFailedMessage})
}
