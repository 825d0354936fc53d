package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/session"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/middleware"
)

func setup(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()
	provider := auth.NewService(auth.NewMemoryUserStore(), auth.NewMemorySessionStore(), auth.NewTokenIssuer("test-secret"), time.Hour)
	sessions := session.NewManager()
	cancel := provider.Subscribe(sessions.HandleAuthEvent)
	t.Cleanup(cancel)

	h := NewAuthHandler(provider)
	authMW := middleware.AuthMiddleware(provider, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signup", h.SignUp)
	mux.HandleFunc("/api/auth/signin", h.SignIn)
	mux.Handle("/api/auth/signout", authMW(http.HandlerFunc(h.SignOut)))
	mux.Handle("/api/auth/me", authMW(http.HandlerFunc(h.Me)))
	return mux, sessions
}

func call(mux http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestAuthFlow(t *testing.T) {
	mux, sessions := setup(t)
	creds := `{"email":"dev@example.com","password":"s3cret!"}`

	rr := call(mux, http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(mux, http.MethodPost, "/api/auth/signup", "", creds)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = call(mux, http.MethodPost, "/api/auth/signin", "", creds)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var sess auth.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, 1, sessions.Len())

	rr = call(mux, http.MethodGet, "/api/auth/me", sess.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var me auth.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, sess.User.ID, me.ID)

	rr = call(mux, http.MethodPost, "/api/auth/signout", sess.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, sessions.Len())

	rr = call(mux, http.MethodGet, "/api/auth/me", sess.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthHandlerRejections(t *testing.T) {
	mux, _ := setup(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"signup wrong method", http.MethodGet, "/api/auth/signup", "", http.StatusMethodNotAllowed},
		{"signup bad body", http.MethodPost, "/api/auth/signup", "{", http.StatusBadRequest},
		{"signup short password", http.MethodPost, "/api/auth/signup", `{"email":"a@b.c","password":"1"}`, http.StatusBadRequest},
		{"signin unknown user", http.MethodPost, "/api/auth/signin", `{"email":"x@y.z","password":"whatever"}`, http.StatusUnauthorized},
		{"signout without token", http.MethodPost, "/api/auth/signout", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(mux, tt.method, tt.target, "", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}
