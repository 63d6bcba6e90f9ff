package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bradstire/wst-reader/internal/adapters/decks"
	httpadapter "github.com/bradstire/wst-reader/internal/adapters/http"
	"github.com/bradstire/wst-reader/internal/adapters/llm"
	"github.com/bradstire/wst-reader/internal/adapters/rng"
	"github.com/bradstire/wst-reader/internal/app"
	"github.com/bradstire/wst-reader/internal/config"
	"github.com/bradstire/wst-reader/internal/enforcer"
	"github.com/bradstire/wst-reader/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Options{
		Enabled: cfg.OTelEnabled,
		Service: "wstd",
		Version: version,
		Writer:  os.Stderr,
	})
	if err != nil {
		logger.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}

	narrator, err := llm.NewNarrator(cfg, logger)
	if err != nil {
		logger.Error("failed to configure narrator", "error", err)
		os.Exit(1)
	}

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		logger.Error("failed to load tuning", "error", err)
		os.Exit(1)
	}
	en, err := enforcer.New(tuning)
	if err != nil {
		logger.Error("invalid tuning", "error", err)
		os.Exit(1)
	}

	opts := app.DefaultOptions()
	opts.ReversalRatio = cfg.ReversalRatio
	opts.StripBreaks = cfg.StripBreaks
	svc := app.NewReadingService(decks.NewEmbeddedStore(), narrator, rng.Std{}, en, logger, opts)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.TracingMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	handler := httpadapter.NewHandler(svc)
	handler.Register(e)

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr, "provider", cfg.LLMProvider, "model", cfg.LLMModel)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
}
