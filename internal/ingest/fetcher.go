package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/coinwatch/internal/errs"
	"github.com/paaavkata/coinwatch/internal/eventsink"
	"github.com/paaavkata/coinwatch/internal/market"
	"github.com/paaavkata/coinwatch/pkg/models"
)

// PageFetcher pages the upstream market-data provider. Satisfied by
// *market.Client; narrowed here so tests can substitute a fake.
type PageFetcher interface {
	FetchPage(ctx context.Context, page, perPage, maxAttempts int) ([]market.Asset, error)
}

// SnapshotGateway is the persistence surface the Fetcher needs. Satisfied
// by *store.Gateway; narrowed here so tests can substitute a fake.
type SnapshotGateway interface {
	UpsertSnapshots(ctx context.Context, rows []models.AssetSnapshot) error
	RecordSyncLog(ctx context.Context, entry models.SyncLogEntry) error
}

// Fetcher produces, once per tick, a complete snapshot bucket for every
// tracked asset: page the upstream provider with bounded concurrency,
// normalize each row, and upsert sub-batches into the Gateway.
type Fetcher struct {
	client  PageFetcher
	gateway SnapshotGateway
	sink    eventsink.Sink
	clock   Clock
	logger  *logrus.Logger

	serviceName string
	bucketMs    int64
	pageSize    int
	pageCap     int
	concurrency int
	retries     int
	batchSize   int

	state atomic.Int32
}

// State returns the tick state machine's current value: Idle between
// ticks, Running while paging/writing, Commit once a tick ends as
// success or partial (a success may have written zero rows), Aborting
// when it ends as failure.
func (f *Fetcher) State() State {
	return State(f.state.Load())
}

func (f *Fetcher) setState(s State) {
	f.state.Store(int32(s))
}

type FetcherConfig struct {
	ServiceName string
	BucketMs    int64
	PageSize    int
	PageCap     int
	Concurrency int
	Retries     int
	BatchSize   int
}

func NewFetcher(client PageFetcher, gateway SnapshotGateway, sink eventsink.Sink, clock Clock, logger *logrus.Logger, cfg FetcherConfig) *Fetcher {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Fetcher{
		client:      client,
		gateway:     gateway,
		sink:        sink,
		clock:       clock,
		logger:      logger,
		serviceName: cfg.ServiceName,
		bucketMs:    cfg.BucketMs,
		pageSize:    cfg.PageSize,
		pageCap:     cfg.PageCap,
		concurrency: concurrency,
		retries:     cfg.Retries,
		batchSize:   cfg.BatchSize,
	}
}

type pageResult struct {
	page   int
	assets []market.Asset
	err    error
}

// RunTick executes one complete tick: page the provider, normalize rows,
// upsert sub-batches, classify the outcome, emit the terminal event, and
// append a sync-log row. It never returns an error for expected failure
// modes — those are folded into the TickResult's Outcome.
func (f *Fetcher) RunTick(ctx context.Context) TickResult {
	f.setState(StateRunning)
	defer f.setState(StateIdle)

	tickID := uuid.New().String()
	start := f.clock.Now()
	rawTime := start.UnixMilli()
	alignedTime := Align(rawTime, f.bucketMs)

	f.sink.Emit(eventsink.Event{
		Service:     f.serviceName,
		Kind:        eventsink.KindSyncStart,
		Level:       eventsink.LevelInfo,
		Message:     "ingest tick started",
		TimestampMs: rawTime,
		Details:     map[string]any{"tick_id": tickID, "aligned_time_ms": alignedTime},
	})

	rows, pagesOK, pagesFailed, firstErr := f.fetchAllPages(ctx, alignedTime, rawTime)

	rowsWritten, writeErr := f.writeBatches(ctx, rows)
	if writeErr != nil && firstErr == "" {
		firstErr = writeErr.Error()
	}

	outcome := OutcomeFailure
	switch {
	case pagesFailed == 0 && writeErr == nil:
		// Every page fetched and every batch wrote clean, even if the
		// upstream pages themselves were empty and rowsWritten is 0.
		outcome = OutcomeSuccess
	case rowsWritten > 0:
		outcome = OutcomePartial
	default:
		outcome = OutcomeFailure
	}

	if outcome == OutcomeFailure {
		f.setState(StateAborting)
	} else {
		f.setState(StateCommit)
	}

	result := TickResult{
		TickID:      tickID,
		AlignedTime: alignedTime,
		RawTime:     rawTime,
		Outcome:     outcome,
		PagesOK:     pagesOK,
		PagesFailed: pagesFailed,
		RowsWritten: rowsWritten,
		DurationMs:  time.Since(start).Milliseconds(),
		FirstError:  truncateMsg(firstErr, 1024),
	}

	f.emitOutcome(result)
	f.recordSyncLog(ctx, result, start)

	return result
}

// fetchAllPages pages the provider in waves of f.concurrency, stopping
// after the wave in which a page returns fewer than pageSize items, or
// at f.pageCap, whichever comes first. Every page of that last wave,
// including pages after the short one, is counted and its rows kept.
func (f *Fetcher) fetchAllPages(ctx context.Context, alignedTime, rawTime int64) ([]models.AssetSnapshot, int, int, string) {
	var (
		rows        []models.AssetSnapshot
		pagesOK     int
		pagesFailed int
		firstErr    string
	)

	stop := false
	for waveStart := 1; !stop && waveStart <= f.pageCap; waveStart += f.concurrency {
		waveEnd := waveStart + f.concurrency - 1
		if waveEnd > f.pageCap {
			waveEnd = f.pageCap
		}

		results := f.fetchWave(ctx, waveStart, waveEnd)
		sort.Slice(results, func(i, j int) bool { return results[i].page < results[j].page })

		for _, res := range results {
			if res.err != nil {
				pagesFailed++
				if firstErr == "" {
					firstErr = res.err.Error()
				}
				continue
			}

			for _, asset := range res.assets {
				row, nerr := normalizeRow(asset, alignedTime, rawTime)
				if nerr != nil {
					f.logger.WithError(nerr).WithField("page", res.page).Warn("skipping malformed asset row")
					continue
				}
				rows = append(rows, row)
			}
			pagesOK++

			if len(res.assets) < f.pageSize {
				stop = true
			}
		}

		if ctx.Err() != nil {
			stop = true
		}
	}

	return rows, pagesOK, pagesFailed, firstErr
}

func (f *Fetcher) fetchWave(ctx context.Context, from, to int) []pageResult {
	var wg sync.WaitGroup
	results := make([]pageResult, 0, to-from+1)
	var mu sync.Mutex

	maxAttempts := f.retries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for page := from; page <= to; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			assets, err := f.client.FetchPage(ctx, page, f.pageSize, maxAttempts)
			mu.Lock()
			results = append(results, pageResult{page: page, assets: assets, err: err})
			mu.Unlock()
		}(page)
	}
	wg.Wait()
	return results
}

// writeBatches streams rows into sub-batches of at most f.batchSize and
// upserts each independently, retrying transient Gateway errors with
// exponential backoff (base 1s, doubling, capped at 30s, no jitter). A
// sub-batch that still
// fails after retries marks the tick partial rather than aborting the
// remaining sub-batches.
func (f *Fetcher) writeBatches(ctx context.Context, rows []models.AssetSnapshot) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	written := 0
	var firstErr error

	batchSize := f.batchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		if err := f.upsertWithRetry(ctx, batch); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written += len(batch)
	}

	return written, firstErr
}

func (f *Fetcher) upsertWithRetry(ctx context.Context, batch []models.AssetSnapshot) error {
	delay := 1 * time.Second
	maxAttempts := f.retries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := f.gateway.UpsertSnapshots(ctx, batch)
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
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
	}
	return lastErr
}

func (f *Fetcher) emitOutcome(result TickResult) {
	kind := eventsink.KindSyncFailure
	level := eventsink.LevelError
	switch result.Outcome {
	case OutcomeSuccess:
		kind = eventsink.KindSyncSuccess
		level = eventsink.LevelInfo
	case OutcomePartial:
		kind = eventsink.KindSyncPartial
		level = eventsink.LevelWarn
	}

	f.sink.Emit(eventsink.Event{
		Service:     f.serviceName,
		Kind:        kind,
		Level:       level,
		Message:     fmt.Sprintf("ingest tick %s: %s", result.Outcome, result.FirstError),
		TimestampMs: result.RawTime,
		Details: map[string]any{
			"tick_id":         result.TickID,
			"aligned_time_ms": result.AlignedTime,
		},
		Metrics: map[string]float64{
			"pages_ok":     float64(result.PagesOK),
			"pages_failed": float64(result.PagesFailed),
			"rows_written": float64(result.RowsWritten),
			"duration_ms":  float64(result.DurationMs),
		},
	})
}

func (f *Fetcher) recordSyncLog(ctx context.Context, result TickResult, start time.Time) {
	entry := models.SyncLogEntry{
		TickID:       result.TickID,
		AlignedTime:  result.AlignedTime,
		StartedAt:    start.UnixMilli(),
		FinishedAt:   f.clock.Now().UnixMilli(),
		Outcome:      string(result.Outcome),
		PagesFetched: result.PagesOK + result.PagesFailed,
		RowsWritten:  result.RowsWritten,
		ErrorMessage: result.FirstError,
	}
	if err := f.gateway.RecordSyncLog(ctx, entry); err != nil {
		f.logger.WithError(err).Warn("failed to record sync log entry")
	}
}

func truncateMsg(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
