package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/export"
	"github.com/showcasekit/showcase-extractor/internal/llm/gemini"
	"github.com/showcasekit/showcase-extractor/internal/pipeline"
	"github.com/showcasekit/showcase-extractor/internal/queue"
	"github.com/showcasekit/showcase-extractor/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	extractor, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize gemini client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := extractor.Close(); err != nil {
			logger.Warn("gemini client close error", "error", err)
		}
	}()
	logger.Info("gemini client initialized", "model", cfg.LLM.Model)

	q := queue.New(logger)
	proc := pipeline.NewProcessor(logger, pipeline.Config{
		Concurrency: cfg.Pipeline.Concurrency,
	}, q, extractor)
	exp := export.NewService(q, cfg.Report.Title, logger)

	api := server.NewAPI(cfg, logger, q, proc, exp)
	srv := server.NewServer(cfg, logger, api)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("shutdown signal received", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
