package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard-api/api"
	"taskboard-api/auth"
	"taskboard-api/service"
	"taskboard-api/storage"
	"taskboard-api/storage/sqlite"
	"taskboard-api/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := parseConfig(env.Options{})
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: "taskboard-api",
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}

	var users storage.UserStore = store
	var rc *redis.Client
	if cfg.RedisConnectionString != "" {
		rc = redis.NewClient(redisOptions(cfg.RedisConnectionString))
		users = storage.NewUserCache(store, rc, cfg.UserCacheTTL)
	}

	tokens, err := auth.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL())
	if err != nil {
		logger.Fatalf("tokens: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: !containsWildcard(cfg.CORSOrigins),
	}))
	if cfg.EnablePprof {
		pprof.Register(e)
	}

	api.Register(e, api.Services{
		Boards:      service.NewBoards(store, logger),
		Tasks:       service.NewTasks(store, cfg.StrictDueDates, logger),
		Credentials: auth.NewCredentials(users, auth.BcryptHasher{Cost: cfg.BcryptCost}, tokens, logger),
		Auth:        tokens,
		Health:      store,
	}, logger)

	go func() {
		logger.WithField("addr", cfg.ListenAddr()).Info("taskboard api listening")
		if err := e.Start(cfg.ListenAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("telemetry shutdown")
	}
	if rc != nil {
		_ = rc.Close()
	}
	if err := store.Close(); err != nil {
		logger.WithError(err).Error("storage close")
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
