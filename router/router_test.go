package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/session"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/repository"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/service"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/socket"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	provider := auth.NewService(auth.NewMemoryUserStore(), auth.NewMemorySessionStore(), auth.NewTokenIssuer("router-secret"), time.Hour)
	sessions := session.NewManager()
	hub := socket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	provider.Subscribe(sessions.HandleAuthEvent)
	provider.Subscribe(hub.HandleAuthEvent)

	srv := httptest.NewServer(Setup(Deps{
		Auth:     provider,
		Sessions: sessions,
		Stories:  service.NewStoryService(repository.NewMemoryRepository(), hub, 10),
		Hub:      hub,
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func post(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readWS(t *testing.T, conn *websocket.Conn) socket.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg socket.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestEndToEnd(t *testing.T) {
	srv := newServer(t)
	creds := `{"email":"dev@example.com","password":"s3cret!"}`

	resp := post(t, srv.URL+"/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, srv.URL+"/api/auth/signin", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sess auth.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sess))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + sess.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, socket.PresenceUpdateType, readWS(t, conn).Type)

	resp = post(t, srv.URL+"/api/stories/create", sess.Token, `{"number":"US-1","title":"Fields","date":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := readWS(t, conn)
	assert.Equal(t, socket.StoryCreatedType, msg.Type)
	assert.Equal(t, sess.User.ID, msg.OwnerID)

	resp = post(t, srv.URL+"/api/auth/signout", sess.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, socket.SessionEndedType, readWS(t, conn).Type)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/stories", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	getResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, getResp.StatusCode)
}

func TestPreflightSkipsAuth(t *testing.T) {
	srv := newServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/stories", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
