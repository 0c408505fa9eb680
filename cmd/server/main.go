package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/file-tracker/backend/internal/api"
	"github.com/file-tracker/backend/internal/cache"
	"github.com/file-tracker/backend/internal/config"
	"github.com/file-tracker/backend/internal/logging"
	"github.com/file-tracker/backend/internal/poller"
	"github.com/file-tracker/backend/internal/remote"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Initialize(cfg.LogLevel)
	log := logging.Component("server")

	// Wire the upstream client, the cache, and the background loops
	client := remote.NewHTTPClient(cfg.BaseURI, cfg.RequestTimeout())
	fileCache := cache.New()

	p := poller.New(client, fileCache, poller.Options{
		PageSize:     cfg.PageSize,
		PollInterval: cfg.PollInterval(),
		Backoff:      cfg.Backoff(),
	})
	p.Start(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet},
	}))

	h := api.NewHandler(fileCache, client, Version)
	api.RegisterRoutes(e, h)

	s := &http.Server{
		Addr:         cfg.Addr(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("version", Version).Str("buildTime", BuildTime).
		Str("addr", cfg.Addr()).Str("upstream", cfg.BaseURI).
		Msg("file status tracker starting")

	go func() {
		if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
