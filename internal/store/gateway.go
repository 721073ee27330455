package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/coinwatch/internal/errs"
	"github.com/paaavkata/coinwatch/pkg/models"
)

// Gateway is the sole typed access path to coin_data and indicator_data.
// No other package issues SQL against these tables.
type Gateway struct {
	db        *DB
	logger    *logrus.Logger
	batchSize int
	stmtTimeout time.Duration
}

func NewGateway(db *DB, batchSize int, stmtTimeout time.Duration, logger *logrus.Logger) *Gateway {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if stmtTimeout <= 0 {
		stmtTimeout = 60 * time.Second
	}
	return &Gateway{db: db, logger: logger, batchSize: batchSize, stmtTimeout: stmtTimeout}
}

// UpsertSnapshots inserts or replaces a batch of snapshots, all sharing
// one aligned_time. Rows are split into sub-batches of at most
// g.batchSize; each sub-batch commits atomically and independently.
func (g *Gateway) UpsertSnapshots(ctx context.Context, rows []models.AssetSnapshot) error {
	for start := 0; start < len(rows); start += g.batchSize {
		end := start + g.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := g.upsertSnapshotBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) upsertSnapshotBatch(ctx context.Context, rows []models.AssetSnapshot) error {
	if len(rows) == 0 {
		return nil
	}

	const ncols = 27
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*ncols)

	for i, r := range rows {
		base := i * ncols
		placeholders := make([]string, ncols)
		for j := 0; j < ncols; j++ {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")

		args = append(args,
			r.AlignedTime, r.AssetID, r.RawTime, r.LastUpdated,
			r.Symbol, r.Name, r.Image,
			r.CurrentPrice, r.MarketCap, r.MarketCapRank, r.FullyDilutedValuation,
			r.TotalVolume, r.CirculatingSupply, r.MaxSupply,
			r.PriceChange24h, r.PriceChangePercentage24h, r.PriceChangePercentage7d,
			r.PriceChangePercentage30d, r.MarketCapChange24h, r.MarketCapChangePercentage24h,
			r.ATH, r.ATHChangePercentage, r.ATHDate,
			r.ATL, r.ATLChangePercentage, r.ATLDate,
			r.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO coin_data (%s)
		VALUES %s
		ON CONFLICT (aligned_time, asset_id) DO UPDATE SET
			raw_time = EXCLUDED.raw_time,
			last_updated = EXCLUDED.last_updated,
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			image = EXCLUDED.image,
			current_price = EXCLUDED.current_price,
			market_cap = EXCLUDED.market_cap,
			market_cap_rank = EXCLUDED.market_cap_rank,
			fully_diluted_valuation = EXCLUDED.fully_diluted_valuation,
			total_volume = EXCLUDED.total_volume,
			circulating_supply = EXCLUDED.circulating_supply,
			max_supply = EXCLUDED.max_supply,
			price_change_24h = EXCLUDED.price_change_24h,
			price_change_percentage_24h = EXCLUDED.price_change_percentage_24h,
			price_change_percentage_7d = EXCLUDED.price_change_percentage_7d,
			price_change_percentage_30d = EXCLUDED.price_change_percentage_30d,
			market_cap_change_24h = EXCLUDED.market_cap_change_24h,
			market_cap_change_percentage_24h = EXCLUDED.market_cap_change_percentage_24h,
			ath = EXCLUDED.ath,
			ath_change_percentage = EXCLUDED.ath_change_percentage,
			ath_date = EXCLUDED.ath_date,
			atl = EXCLUDED.atl,
			atl_change_percentage = EXCLUDED.atl_change_percentage,
			atl_date = EXCLUDED.atl_date`,
		strings.Join(snapshotColumns, ", "), strings.Join(values, ", "))

	return g.execInTx(ctx, query, args)
}

// UpsertIndicators inserts or replaces a batch of indicator samples,
// keyed by (aligned_time, asset_id, indicator_name, timeframe).
func (g *Gateway) UpsertIndicators(ctx context.Context, rows []models.IndicatorSample) error {
	for start := 0; start < len(rows); start += g.batchSize {
		end := start + g.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := g.upsertIndicatorBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gateway) upsertIndicatorBatch(ctx context.Context, rows []models.IndicatorSample) error {
	if len(rows) == 0 {
		return nil
	}

	const ncols = 6
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*ncols)

	for i, r := range rows {
		base := i * ncols
		placeholders := make([]string, ncols)
		for j := 0; j < ncols; j++ {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")

		args = append(args,
			r.AlignedTime, r.AssetID, r.IndicatorName, r.Timeframe,
			r.IndicatorValue, r.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO indicator_data (%s)
		VALUES %s
		ON CONFLICT (aligned_time, asset_id, indicator_name, timeframe) DO UPDATE SET
			indicator_value = EXCLUDED.indicator_value,
			created_at = EXCLUDED.created_at`,
		strings.Join(indicatorColumns, ", "), strings.Join(values, ", "))

	return g.execInTx(ctx, query, args)
}

func (g *Gateway) execInTx(ctx context.Context, query string, args []any) error {
	ctx, cancel := context.WithTimeout(ctx, g.stmtTimeout)
	defer cancel()

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.ClassifyPQ(err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return errs.ClassifyPQ(err)
	}

	if err := tx.Commit(); err != nil {
		return errs.ClassifyPQ(err)
	}
	return nil
}

// LatestBucket returns the maximum aligned_time present in coin_data, or
// nil if the table is empty.
func (g *Gateway) LatestBucket(ctx context.Context) (*int64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.stmtTimeout)
	defer cancel()

	var latest sql.NullInt64
	err := g.db.QueryRowContext(ctx, `SELECT MAX(aligned_time) FROM coin_data`).Scan(&latest)
	if err != nil {
		return nil, errs.ClassifyPQ(err)
	}
	if !latest.Valid {
		return nil, nil
	}
	v := latest.Int64
	return &v, nil
}

// LatestIndicatorBucket returns the maximum aligned_time present in
// indicator_data, or nil if the table is empty; used to seed the
// indicator engine's cold-start watermark.
func (g *Gateway) LatestIndicatorBucket(ctx context.Context) (*int64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.stmtTimeout)
	defer cancel()

	var latest sql.NullInt64
	err := g.db.QueryRowContext(ctx, `SELECT MAX(aligned_time) FROM indicator_data`).Scan(&latest)
	if err != nil {
		return nil, errs.ClassifyPQ(err)
	}
	if !latest.Valid {
		return nil, nil
	}
	v := latest.Int64
	return &v, nil
}

// HistoryWindow returns every snapshot row whose aligned_time equals one
// of alignedTime - off*60_000 for off in offsetsMinutes, projected to
// {asset_id, aligned_time, price, total_volume, market_cap}. Exactly one
// query services every offset the caller needs.
func (g *Gateway) HistoryWindow(ctx context.Context, alignedTime int64, offsetsMinutes []int) ([]models.HistoryRow, error) {
	ctx, cancel := context.WithTimeout(ctx, g.stmtTimeout)
	defer cancel()

	targets := make([]int64, len(offsetsMinutes))
	for i, off := range offsetsMinutes {
		targets[i] = alignedTime - int64(off)*60_000
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT asset_id, aligned_time, current_price, total_volume, market_cap
		FROM coin_data
		WHERE aligned_time = ANY($1)`, pq.Array(targets))
	if err != nil {
		return nil, errs.ClassifyPQ(err)
	}
	defer rows.Close()

	var out []models.HistoryRow
	for rows.Next() {
		var hr models.HistoryRow
		if err := rows.Scan(&hr.AssetID, &hr.AlignedTime, &hr.Price, &hr.TotalVolume, &hr.MarketCap); err != nil {
			return nil, errs.ClassifyPQ(err)
		}
		out = append(out, hr)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.ClassifyPQ(err)
	}
	return out, nil
}

// RecordSyncLog appends one audit row for a completed ingest tick.
func (g *Gateway) RecordSyncLog(ctx context.Context, entry models.SyncLogEntry) error {
	ctx, cancel := context.WithTimeout(ctx, g.stmtTimeout)
	defer cancel()

	_, err := g.db.ExecContext(ctx, `
		INSERT INTO sync_log (tick_id, aligned_time, started_at, finished_at, outcome, pages_fetched, rows_written, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.TickID, entry.AlignedTime, entry.StartedAt, entry.FinishedAt,
		entry.Outcome, entry.PagesFetched, entry.RowsWritten, entry.ErrorMessage)
	if err != nil {
		return errs.ClassifyPQ(err)
	}
	return nil
}
