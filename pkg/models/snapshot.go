// Package models holds the wire and storage types shared by the ingest
// and indicator pipelines.
package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// AssetSnapshot is one row of coin_data: a single asset's state as
// reported by the upstream provider, truncated to an aligned bucket.
type AssetSnapshot struct {
	AlignedTime int64  `db:"aligned_time"`
	AssetID     string `db:"asset_id"`
	RawTime     int64  `db:"raw_time"`
	LastUpdated int64  `db:"last_updated"`

	Symbol string  `db:"symbol"`
	Name   string  `db:"name"`
	Image  sql.NullString `db:"image"`

	CurrentPrice               NullDecimal   `db:"current_price"`
	MarketCap                  NullDecimal   `db:"market_cap"`
	MarketCapRank              sql.NullInt64 `db:"market_cap_rank"`
	FullyDilutedValuation      NullDecimal   `db:"fully_diluted_valuation"`
	TotalVolume                NullDecimal   `db:"total_volume"`
	CirculatingSupply          NullDecimal   `db:"circulating_supply"`
	MaxSupply                  NullDecimal   `db:"max_supply"`

	PriceChange24h                       NullDecimal `db:"price_change_24h"`
	PriceChangePercentage24h             NullDecimal `db:"price_change_percentage_24h"`
	PriceChangePercentage7d              NullDecimal `db:"price_change_percentage_7d"`
	PriceChangePercentage30d             NullDecimal `db:"price_change_percentage_30d"`
	MarketCapChange24h                   NullDecimal `db:"market_cap_change_24h"`
	MarketCapChangePercentage24h         NullDecimal `db:"market_cap_change_percentage_24h"`

	ATH                   NullDecimal   `db:"ath"`
	ATHChangePercentage    NullDecimal   `db:"ath_change_percentage"`
	ATHDate                sql.NullInt64 `db:"ath_date"`
	ATL                    NullDecimal   `db:"atl"`
	ATLChangePercentage    NullDecimal   `db:"atl_change_percentage"`
	ATLDate                sql.NullInt64 `db:"atl_date"`

	CreatedAt int64 `db:"created_at"`
}

// NullDecimal mirrors sql.NullString's shape for optional decimal columns,
// so upstream fields that may legitimately be absent round-trip as nil
// rather than zero.
type NullDecimal struct {
	Decimal decimal.Decimal
	Valid   bool
}

func NewNullDecimal(d decimal.Decimal, valid bool) NullDecimal {
	return NullDecimal{Decimal: d, Valid: valid}
}
