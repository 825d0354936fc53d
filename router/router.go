package router

import (
	"net/http"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	authHandler "github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth/handler"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/session"
	storyHandler "github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/service"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/middleware"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/socket"
)

type Deps struct {
	Auth       auth.Provider
	Sessions   *session.Manager
	Stories    *service.StoryService
	Hub        *socket.Hub
	CORSOrigin string
}

func Setup(d Deps) http.Handler {
	mux := http.NewServeMux()
	authMW := middleware.AuthMiddleware(d.Auth, d.Sessions)

	// WebSocket
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		socket.ServeWs(d.Hub, w, r, middleware.UserIDFrom(ctx), middleware.SessionIDFrom(ctx), middleware.ExpiresAtFrom(ctx))
	})
	mux.Handle("/ws", authMW(wsHandler))

	// Auth
	ah := authHandler.NewAuthHandler(d.Auth)
	mux.HandleFunc("/api/auth/signup", ah.SignUp)
	mux.HandleFunc("/api/auth/signin", ah.SignIn)
	mux.Handle("/api/auth/signout", authMW(http.HandlerFunc(ah.SignOut)))
	mux.Handle("/api/auth/me", authMW(http.HandlerFunc(ah.Me)))

	// Stories
	sh := storyHandler.NewStoryHandler(d.Stories)
	mux.Handle("/api/stories", authMW(http.HandlerFunc(sh.GetStories)))
	mux.Handle("/api/stories/create", authMW(http.HandlerFunc(sh.CreateStory)))
	mux.Handle("/api/stories/delete", authMW(http.HandlerFunc(sh.DeleteStory)))
	mux.Handle("/api/stories/changes", authMW(http.HandlerFunc(sh.GetChanges)))
	mux.Handle("/api/stories/changes/add", authMW(http.HandlerFunc(sh.AddChange)))
	mux.Handle("/api/stories/changes/delete", authMW(http.HandlerFunc(sh.DeleteChange)))

	return middleware.CORSMiddleware(d.CORSOrigin, mux)
}
