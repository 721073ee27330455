package ingest

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paaavkata/coinwatch/internal/market"
	"github.com/paaavkata/coinwatch/pkg/models"
)

// column width limits mirror the original provider-facing schema
// (DECIMAL(20,8) for price-scale columns, DECIMAL(30,2) for market-cap
// scale columns) and the string widths: an oversized asset id rejects
// the row, an oversized symbol or name is truncated.
const (
	assetIDMaxLen = 100
	symbolMaxLen  = 20
	nameMaxLen    = 255

	priceScale     = 8
	marketCapScale = 2
)

// normalizeRow maps one provider Asset into an AssetSnapshot for the
// tick's fixed alignedTime/rawTime, or returns an error (skip-and-warn)
// if the row is unusable.
func normalizeRow(a market.Asset, alignedTime, rawTime int64) (models.AssetSnapshot, error) {
	if a.ID == "" {
		return models.AssetSnapshot{}, fmt.Errorf("missing asset id")
	}
	if len(a.ID) > assetIDMaxLen {
		return models.AssetSnapshot{}, fmt.Errorf("asset id %q exceeds max length %d", a.ID, assetIDMaxLen)
	}

	row := models.AssetSnapshot{
		AlignedTime: alignedTime,
		AssetID:     a.ID,
		RawTime:     rawTime,
		LastUpdated: parseTimeMs(a.LastUpdated, rawTime),

		Symbol: truncate(a.Symbol, symbolMaxLen),
		Name:   truncate(a.Name, nameMaxLen),
		Image:  sql.NullString{String: a.Image, Valid: a.Image != ""},

		CurrentPrice: nullDecimal(a.CurrentPrice, priceScale),
		MarketCap:    nullDecimal(a.MarketCap, marketCapScale),
		TotalVolume:  nullDecimal(a.TotalVolume, marketCapScale),

		MarketCapRank:                nullInt64(a.MarketCapRank),
		FullyDilutedValuation:        nullDecimal(a.FullyDilutedValuation, marketCapScale),
		CirculatingSupply:            nullDecimal(a.CirculatingSupply, marketCapScale),
		MaxSupply:                    nullDecimal(a.MaxSupply, marketCapScale),
		PriceChange24h:               nullDecimal(a.PriceChange24h, priceScale),
		PriceChangePercentage24h:     nullDecimal(a.PriceChangePercentage24h, 6),
		PriceChangePercentage7d:      nullDecimal(a.PriceChangePercentage7dInCurrency, 6),
		PriceChangePercentage30d:     nullDecimal(a.PriceChangePercentage30dInCurrency, 6),
		MarketCapChange24h:           nullDecimal(a.MarketCapChange24h, marketCapScale),
		MarketCapChangePercentage24h: nullDecimal(a.MarketCapChangePercentage24h, 6),

		ATH:                 nullDecimal(a.ATH, priceScale),
		ATHChangePercentage: nullDecimal(a.ATHChangePercentage, 6),
		ATHDate:             nullTimeMs(a.ATHDate),
		ATL:                 nullDecimal(a.ATL, priceScale),
		ATLChangePercentage: nullDecimal(a.ATLChangePercentage, 6),
		ATLDate:             nullTimeMs(a.ATLDate),

		CreatedAt: rawTime,
	}

	return row, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func nullDecimal(v *decimal.Decimal, scale int32) models.NullDecimal {
	if v == nil {
		return models.NewNullDecimal(decimal.Decimal{}, false)
	}
	return models.NewNullDecimal(v.Round(scale), true)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func parseTimeMs(iso *string, fallback int64) int64 {
	t, ok := parseISO8601(iso)
	if !ok {
		return fallback
	}
	return t
}

func nullTimeMs(iso *string) sql.NullInt64 {
	t, ok := parseISO8601(iso)
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t, Valid: true}
}
