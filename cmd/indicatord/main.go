// Command indicatord runs the Indicator Engine: it polls the snapshot
// watermark, and shortly after each new bucket lands, computes and
// writes the fixed indicator battery for every asset in that bucket.
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
	"github.com/paaavkata/coinwatch/internal/indicator"
	"github.com/paaavkata/coinwatch/internal/ingest"
	"github.com/paaavkata/coinwatch/internal/logging"
	"github.com/paaavkata/coinwatch/internal/store"
)

func main() {
	cfg, err := config.Load("indicatord")
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	logger := logging.New(cfg)

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

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

	clock := ingest.NewRealClock()

	engine := indicator.NewEngine(gateway, sink, clock, logger, indicator.Config{
		ServiceName:  cfg.ServiceName,
		BucketMs:     cfg.BucketMs,
		PollInterval: time.Duration(cfg.PollIntervalS) * time.Second,
		SafetyDelay:  time.Duration(cfg.SafetyDelayS) * time.Second,
		Scale:        12,
		BatchSize:    cfg.BatchSize,
		Retries:      cfg.Retries,
	})

	checker := health.NewChecker(db, logger)
	healthServer := checker.StartServer(cfg.MetricsPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := engine.Run(ctx); err != nil {
			logger.WithError(err).Error("indicator engine stopped with error")
		}
	}()

	logger.Info("indicatord started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down indicatord")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down health server")
	}

	logger.Info("indicatord stopped")
}
