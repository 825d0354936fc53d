package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/session"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
)

type fakeProvider map[string]auth.User

var tokenExpiry = time.Now().Add(time.Hour)

func (f fakeProvider) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	u, ok := f[token]
	if !ok {
		return auth.Identity{}, apperr.Unauthenticated("fake", "bad token")
	}
	return auth.Identity{User: u, SessionID: "sid-" + token, ExpiresAt: tokenExpiry}, nil
}

func TestAuthMiddleware(t *testing.T) {
	provider := fakeProvider{"good": {ID: "u1", Email: "u1@example.com"}}
	manager := session.NewManager()

	var gotSession *session.Session
	var gotUser, gotSID string
	var gotExpiry time.Time
	h := AuthMiddleware(provider, manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = SessionFrom(r.Context())
		gotUser = UserIDFrom(r.Context())
		gotSID = SessionIDFrom(r.Context())
		gotExpiry = ExpiresAtFrom(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"no token", "/api/stories", "", http.StatusUnauthorized},
		{"bad token", "/api/stories", "Bearer nope", http.StatusUnauthorized},
		{"bearer header", "/api/stories", "Bearer good", http.StatusTeapot},
		{"query token", "/ws?token=good", "", http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSession = nil
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status != http.StatusTeapot {
				assert.Nil(t, gotSession)
				return
			}
			require.NotNil(t, gotSession)
			user, ok := gotSession.CurrentUser()
			require.True(t, ok)
			assert.Equal(t, "u1", user.ID)
			assert.Equal(t, "u1", gotUser)
			assert.Equal(t, "sid-good", gotSID)
			assert.Equal(t, tokenExpiry, gotExpiry)
		})
	}
	assert.Equal(t, 1, manager.Len(), "both requests share one session")
}

func TestAuthMiddlewareRejectsEndedSession(t *testing.T) {
	provider := fakeProvider{"good": {ID: "u1"}}
	manager := session.NewManager()
	called := false
	h := AuthMiddleware(provider, manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// The session is signed out after the token check would have passed.
	manager.End("sid-good")

	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
	assert.Zero(t, manager.Len())
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	h := CORSMiddleware("https://app.example.com", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/stories", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stories", nil))
	assert.True(t, called)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
