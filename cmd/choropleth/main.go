package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/education-choropleth/internal/adapter/fetch"
	"github.com/couchcryptid/education-choropleth/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/education-choropleth/internal/adapter/kafka"
	"github.com/couchcryptid/education-choropleth/internal/config"
	"github.com/couchcryptid/education-choropleth/internal/observability"
	"github.com/couchcryptid/education-choropleth/internal/pipeline"
	"github.com/couchcryptid/education-choropleth/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := fetch.NewClient(cfg.TopologyURL, cfg.EducationURL, cfg.FetchTimeout, metrics, logger)
	cache := render.NewPageCache(cfg.RenderCacheSize)

	// Kafka export is feature-flagged via KAFKA_BROKERS.
	var (
		exporter pipeline.Exporter
		writer   *kafkaadapter.Writer
	)
	if cfg.ExportEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		exporter = writer
		logger.Info("kafka export enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka export disabled")
	}

	p := pipeline.New(client, render.New(), exporter, cache, cfg.Palette, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load, render, and export once. A failed load shuts the service down.
	pipelineErr := make(chan error, 1)
	go func() {
		if err := runPipeline(ctx, p, cfg.OutputPath, logger); err != nil {
			pipelineErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-pipelineErr:
		logger.Error("pipeline error", "error", err)
		exitCode = 1
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		cancel()
		stop()
		os.Exit(exitCode)
	}
}

func runPipeline(ctx context.Context, p *pipeline.Pipeline, outputPath string, logger *slog.Logger) error {
	var page bytes.Buffer
	if err := p.Run(ctx, &page); err != nil {
		return err
	}
	if outputPath == "" {
		return nil
	}
	if err := os.WriteFile(outputPath, page.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Info("page written", "path", outputPath, "bytes", page.Len())
	return nil
}
