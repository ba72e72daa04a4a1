package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"field_tracker/internal/config"
	"field_tracker/internal/controllers"
	"field_tracker/internal/logger"
	"field_tracker/internal/metrics"
	"field_tracker/internal/middleware"
	"field_tracker/internal/routes"
	"field_tracker/internal/services"
	"field_tracker/internal/tasks"
)

func main() {
	cfg := config.Load()

	// Initialize structured logging to file
	logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stdout: cfg.LogStdout})

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			logrus.WithError(err).Warn("sentry disabled")
		} else {
			sentryEnabled = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Connect to the database
	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}

	m := metrics.New("field_tracker")
	hub := controllers.NewLocationHub(m)
	defer hub.Close()

	users := services.NewUserService(db, cfg.DefaultUserPassword, cfg.BcryptCost)
	if err := users.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.WithError(err).Fatal("could not provision admin account")
	}

	tracks := services.NewTrackService(db)
	tracks.SetPublisher(hub)

	r := routes.SetupRouter(routes.Deps{
		DB:       db,
		Devices:  services.NewDeviceService(db),
		Tracks:   tracks,
		Profiles: services.NewProfileService(db),
		Users:    users,
		Groups:   services.NewGroupService(db),
		Roles:    services.NewRoleService(db),
		Tasks:    tasks.NewClient(cfg.TaskServiceURL, cfg.TaskServiceTimeout),
		Tokens:   middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Hub:      hub,
		Metrics:  m,
		Sentry:   sentryEnabled,
	})

	// Wrap with CORS
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           middleware.EnableCORS(r, cfg.CORSAllowedOrigins...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
