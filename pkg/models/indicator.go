package models

import "github.com/shopspring/decimal"

// IndicatorSample is one row of indicator_data: a single named indicator
// computed for one asset at one aligned bucket.
type IndicatorSample struct {
	AlignedTime   int64           `db:"aligned_time"`
	AssetID       string          `db:"asset_id"`
	IndicatorName string          `db:"indicator_name"`
	Timeframe     string          `db:"timeframe"`
	IndicatorValue decimal.Decimal `db:"indicator_value"`
	CreatedAt     int64           `db:"created_at"`
}

// HistoryRow is one point of the 9-offset window the indicator engine
// reads back per bucket: just the fields any indicator formula needs.
// Price/TotalVolume/MarketCap are NullDecimal because the upstream
// reading for a bucket that does otherwise exist can still be missing;
// compute.go's price()/volume() must tell that apart from zero.
type HistoryRow struct {
	AssetID     string
	AlignedTime int64
	Price       NullDecimal
	TotalVolume NullDecimal
	MarketCap   NullDecimal
}
