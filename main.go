package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/config"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/config/database"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/auth"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/session"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/repository"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/internal/story/service"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/logger"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/router"
	"github.com/EManishKumarSFDEV/SfDeploymentTracker/socket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db      *sql.DB
		users   auth.UserStore
		stories repository.StoryRepository
	)
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Sugar.Fatalf("Could not connect to database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			logger.Sugar.Fatalf("Migration failed: %v", err)
		}
		users = auth.NewPostgresUserStore(db)
		stories = repository.NewPostgresRepository(db)
	default:
		logger.Sugar.Warn("Using in-memory store; data is lost on restart")
		users = auth.NewMemoryUserStore()
		stories = repository.NewMemoryRepository()
	}

	var sessionStore auth.SessionStore
	switch cfg.SessionDriver {
	case config.DriverRedis:
		rs, err := auth.NewRedisSessionStore(cfg.RedisURL)
		if err != nil {
			logger.Sugar.Fatalf("Could not connect to redis: %v", err)
		}
		defer rs.Close()
		sessionStore = rs
	default:
		sessionStore = auth.NewMemorySessionStore()
	}

	provider := auth.NewService(users, sessionStore, auth.NewTokenIssuer(cfg.JWTSecret), cfg.SessionTTL)
	sessions := session.NewManager()
	sessions.Retention = cfg.SessionTTL

	hub := socket.NewHub()
	go hub.Run(ctx)

	provider.Subscribe(sessions.HandleAuthEvent)
	provider.Subscribe(hub.HandleAuthEvent)

	handler := router.Setup(router.Deps{
		Auth:       provider,
		Sessions:   sessions,
		Stories:    service.NewStoryService(stories, hub, cfg.PageSize),
		Hub:        hub,
		CORSOrigin: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("Deployment tracker listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
}
