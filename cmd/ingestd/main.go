// Command ingestd runs the Ingest Scheduler & Fetcher: at each bucket
// boundary it enumerates every tracked asset from the upstream provider
// and writes a complete snapshot bucket.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/paaavkata/coinwatch/internal/config"
	"github.com/paaavkata/coinwatch/internal/eventsink"
	"github.com/paaavkata/coinwatch/internal/health"
	"github.com/paaavkata/coinwatch/internal/ingest"
	"github.com/paaavkata/coinwatch/internal/logging"
	"github.com/paaavkata/coinwatch/internal/market"
	"github.com/paaavkata/coinwatch/internal/store"
)

func main() {
	cfg, err := config.Load("ingestd")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	logger := logging.New(cfg)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	logger.WithFields(logrus.Fields{
		"bucket_ms":   cfg.BucketMs,
		"page_size":   cfg.PageSize,
		"concurrency": cfg.Concurrency,
	}).Info("configuration loaded")

	db, err := store.Connect(cfg.DBDSN, cfg.Concurrency, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(2)
	}
	defer db.Close()

	gateway := store.NewGateway(db, cfg.BatchSize, cfg.DBTimeout, logger)

	probeCtx, probeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := gateway.ProbeSchema(probeCtx); err != nil {
		probeCancel()
		logger.WithError(err).Error("schema probe failed")
		os.Exit(2)
	}
	probeCancel()

	var channels []eventsink.Sink
	channels = append(channels, eventsink.NewLogChannel(logger))
	for _, url := range cfg.WebhookURLs {
		channels = append(channels, eventsink.NewWebhookChannel(url, logger))
	}
	sink := eventsink.NewMultiSink(channels...)

	heartbeat := eventsink.NewHeartbeat(cfg.ServiceName, sink, db, logger)
	if err := heartbeat.Start(cfg.HealthInterval); err != nil {
		logger.WithError(err).Warn("failed to start health heartbeat")
	}
	defer heartbeat.Stop()

	client := market.NewClient(market.Config{
		BaseURL:      cfg.APIBaseURL,
		APIKey:       cfg.APIKey,
		Timeout:      cfg.HTTPTimeout,
		Retries:      cfg.Retries,
		RateLimitRPS: cfg.RateLimitRPS,
	}, logger)
	defer client.Close()

	clock := ingest.NewRealClock()

	fetcher := ingest.NewFetcher(client, gateway, sink, clock, logger, ingest.FetcherConfig{
		ServiceName: cfg.ServiceName,
		BucketMs:    cfg.BucketMs,
		PageSize:    cfg.PageSize,
		PageCap:     cfg.PageCap,
		Concurrency: cfg.Concurrency,
		Retries:     cfg.Retries,
		BatchSize:   cfg.BatchSize,
	})

	scheduler := ingest.NewAlignedScheduler(clock, fetcher, sink, logger, cfg.ServiceName, cfg.BucketMs)

	checker := health.NewChecker(db, logger)
	healthServer := checker.StartServer(cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Run(ctx)

	logger.Info("ingestd started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down ingestd")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down health server")
	}

	logger.Info("ingestd stopped")
}
