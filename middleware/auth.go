package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/session"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	SessionIDKey contextKey = "sessionID"
	ExpiresAtKey contextKey = "expiresAt"
	sessionKey   contextKey = "session"
)

// Authenticator resolves a bearer token to its user, session id and expiry.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// TokenFromRequest reads the token from the "token" query parameter, which
// browsers use for websockets, or from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

// AuthMiddleware validates the token against the provider and attaches the
// user's Session to the request context.
func AuthMiddleware(provider Authenticator, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}

			id, err := provider.Authenticate(r.Context(), tokenString)
			if err != nil {
				logger.Sugar.Infof("Invalid token: %v", err)
				http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
				return
			}

			sess, ok := sessions.Resolve(id.SessionID, id.User, id.ExpiresAt)
			if !ok {
				http.Error(w, "Unauthorized: Session has ended", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, id.User.ID)
			ctx = context.WithValue(ctx, SessionIDKey, id.SessionID)
			ctx = context.WithValue(ctx, ExpiresAtKey, id.ExpiresAt)
			ctx = context.WithValue(ctx, sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session attached by AuthMiddleware, or nil.
func SessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}

func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// ExpiresAtFrom returns when the request's session expires, or the zero time.
func ExpiresAtFrom(ctx context.Context) time.Time {
	t, _ := ctx.Value(ExpiresAtKey).(time.Time)
	return t
}
