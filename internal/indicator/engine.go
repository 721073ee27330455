package indicator

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/coinwatch/internal/errs"
	"github.com/paaavkata/coinwatch/internal/eventsink"
	"github.com/paaavkata/coinwatch/internal/ingest"
	"github.com/paaavkata/coinwatch/pkg/models"
)

// Gateway is the narrow slice of store.Gateway the engine depends on,
// named here so tests can substitute a double without importing store.
type Gateway interface {
	LatestBucket(ctx context.Context) (*int64, error)
	LatestIndicatorBucket(ctx context.Context) (*int64, error)
	HistoryWindow(ctx context.Context, alignedTime int64, offsetsMinutes []int) ([]models.HistoryRow, error)
	UpsertIndicators(ctx context.Context, rows []models.IndicatorSample) error
}

// Engine is the short-interval poller that detects new snapshot buckets,
// waits a safety delay, and computes the fixed indicator battery for
// every asset in one bucket per iteration, catching up without
// re-paying the safety delay between successive buckets.
type Engine struct {
	gateway Gateway
	sink    eventsink.Sink
	clock   ingest.Clock
	logger  *logrus.Logger

	serviceName    string
	bucketMs       int64
	pollInterval   time.Duration
	safetyDelay    time.Duration
	scale          int32
	batchSize      int
	retries        int

	lastProcessed int64
}

type Config struct {
	ServiceName  string
	BucketMs     int64
	PollInterval time.Duration
	SafetyDelay  time.Duration
	Scale        int32
	BatchSize    int
	Retries      int
}

func NewEngine(gateway Gateway, sink eventsink.Sink, clock ingest.Clock, logger *logrus.Logger, cfg Config) *Engine {
	scale := cfg.Scale
	if scale <= 0 {
		scale = 12
	}
	return &Engine{
		gateway:      gateway,
		sink:         sink,
		clock:        clock,
		logger:       logger,
		serviceName:  cfg.ServiceName,
		bucketMs:     cfg.BucketMs,
		pollInterval: cfg.PollInterval,
		safetyDelay:  cfg.SafetyDelay,
		scale:        scale,
		batchSize:    cfg.BatchSize,
		retries:      cfg.Retries,
	}
}

// Run blocks until ctx is cancelled, polling for new buckets and
// catching up on every bucket between the last processed one and the
// current watermark.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.coldStart(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.clock.After(e.pollInterval):
		}

		latest, err := e.gateway.LatestBucket(ctx)
		if err != nil {
			e.logger.WithError(err).Warn("failed to read latest snapshot bucket")
			continue
		}
		if latest == nil || *latest <= e.lastProcessed {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-e.clock.After(e.safetyDelay):
		}

		e.catchUp(ctx, *latest)
	}
}

// coldStart seeds last_processed from the indicator table's own
// watermark, or latest_bucket() - Δ if the indicator table is empty.
func (e *Engine) coldStart(ctx context.Context) error {
	indicatorLatest, err := e.gateway.LatestIndicatorBucket(ctx)
	if err != nil {
		return err
	}
	if indicatorLatest != nil {
		e.lastProcessed = *indicatorLatest
		return nil
	}

	snapshotLatest, err := e.gateway.LatestBucket(ctx)
	if err != nil {
		return err
	}
	if snapshotLatest != nil {
		e.lastProcessed = *snapshotLatest - e.bucketMs
	}
	return nil
}

// catchUp processes every bucket between last_processed and latest, in
// strictly increasing order, without any additional safety delay.
func (e *Engine) catchUp(ctx context.Context, latest int64) {
	for e.lastProcessed < latest {
		if ctx.Err() != nil {
			return
		}
		next := e.lastProcessed + e.bucketMs
		if !e.processBucket(ctx, next) {
			return
		}
		e.lastProcessed = next
	}
}

// processBucket runs history_window once, computes every asset's
// indicators, and upserts the results. It returns false if the bucket
// could not be advanced (a permanent error, or a transient one that
// exhausted its retries).
func (e *Engine) processBucket(ctx context.Context, alignedTime int64) bool {
	start := e.clock.Now()

	e.sink.Emit(eventsink.Event{
		Service:     e.serviceName,
		Kind:        eventsink.KindIndicatorStart,
		Level:       eventsink.LevelInfo,
		Message:     "indicator compute started",
		TimestampMs: start.UnixMilli(),
		Details:     map[string]any{"aligned_time_ms": alignedTime},
	})

	rows, err := e.historyWindowWithRetry(ctx, alignedTime)
	if err != nil {
		e.sink.Emit(eventsink.Event{
			Service:     e.serviceName,
			Kind:        eventsink.KindIndicatorFailure,
			Level:       eventsink.LevelError,
			Message:     "history_window exhausted retries: " + err.Error(),
			TimestampMs: e.clock.Now().UnixMilli(),
			Details:     map[string]any{"aligned_time_ms": alignedTime},
		})
		return false
	}

	byAsset := groupByAsset(rows, alignedTime)

	var samples []models.IndicatorSample
	assetsWritten := 0
	skipped := 0

	for assetID, window := range byAsset {
		values := safeCompute(window, &skipped)
		if len(values) == 0 {
			continue
		}
		assetsWritten++
		for name, v := range values {
			samples = append(samples, models.IndicatorSample{
				AlignedTime:    alignedTime,
				AssetID:        assetID,
				IndicatorName:  name,
				Timeframe:      Timeframe(name),
				IndicatorValue: v.Round(e.scale),
				CreatedAt:      e.clock.Now().UnixMilli(),
			})
		}
	}

	if err := e.upsertWithRetry(ctx, samples); err != nil {
		e.sink.Emit(eventsink.Event{
			Service:     e.serviceName,
			Kind:        eventsink.KindIndicatorFailure,
			Level:       eventsink.LevelError,
			Message:     "upsert_indicators exhausted retries: " + err.Error(),
			TimestampMs: e.clock.Now().UnixMilli(),
			Details:     map[string]any{"aligned_time_ms": alignedTime},
		})
		return false
	}

	e.sink.Emit(eventsink.Event{
		Service:     e.serviceName,
		Kind:        eventsink.KindIndicatorSuccess,
		Level:       eventsink.LevelInfo,
		Message:     "indicator compute succeeded",
		TimestampMs: e.clock.Now().UnixMilli(),
		Details:     map[string]any{"aligned_time_ms": alignedTime, "assets_skipped": skipped},
		Metrics: map[string]float64{
			"aligned_time_ms":    float64(alignedTime),
			"assets_written":     float64(assetsWritten),
			"indicators_written": float64(len(samples)),
			"duration_ms":        float64(time.Since(start).Milliseconds()),
		},
	})
	return true
}

// safeCompute runs Compute and recovers from a per-asset numeric panic
// (e.g. decimal overflow), counting it rather than aborting the bucket.
func safeCompute(w AssetWindow, skipped *int) map[string]decimal.Decimal {
	var out map[string]decimal.Decimal
	func() {
		defer func() {
			if r := recover(); r != nil {
				*skipped++
				out = nil
			}
		}()
		out = Compute(w)
	}()
	return out
}

func groupByAsset(rows []models.HistoryRow, alignedTime int64) map[string]AssetWindow {
	out := make(map[string]AssetWindow)
	for _, r := range rows {
		offset := int((alignedTime - r.AlignedTime) / 60_000)
		w, ok := out[r.AssetID]
		if !ok {
			w = AssetWindow{}
			out[r.AssetID] = w
		}
		w[offset] = r
	}
	return out
}

func (e *Engine) historyWindowWithRetry(ctx context.Context, alignedTime int64) ([]models.HistoryRow, error) {
	delay := 1 * time.Second
	maxAttempts := e.retries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		rows, err := e.gateway.HistoryWindow(ctx, alignedTime, Offsets)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if !errs.IsTransient(err) {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > 15*time.Second {
			delay = 15 * time.Second
		}
	}
	return nil, lastErr
}

func (e *Engine) upsertWithRetry(ctx context.Context, samples []models.IndicatorSample) error {
	if len(samples) == 0 {
		return nil
	}
	delay := 1 * time.Second
	maxAttempts := e.retries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := e.gateway.UpsertIndicators(ctx, samples)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errs.IsTransient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > 15*time.Second {
			delay = 15 * time.Second
		}
	}
	return lastErr
}
