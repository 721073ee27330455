package ingest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paaavkata/coinwatch/internal/market"
)

func decimalp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
func int64p(v int64) *int64 { return &v }

func TestNormalizeRowRejectsMissingID(t *testing.T) {
	_, err := normalizeRow(market.Asset{Symbol: "btc"}, 1_699_999_920_000, 1_700_000_030_000)
	assert.Error(t, err)
}

func TestNormalizeRowRejectsOversizedID(t *testing.T) {
	oversized := make([]byte, assetIDMaxLen+1)
	for i := range oversized {
		oversized[i] = 'a'
	}
	_, err := normalizeRow(market.Asset{ID: string(oversized)}, 1_699_999_920_000, 1_700_000_030_000)
	assert.Error(t, err)
}

func TestNormalizeRowMapsFields(t *testing.T) {
	asset := market.Asset{
		ID:            "btc",
		Symbol:        "btc",
		Name:          "Bitcoin",
		CurrentPrice:  decimalp("50000.12345678"),
		MarketCap:     decimalp("950000000000"),
		MarketCapRank: int64p(1),
		TotalVolume:   decimalp("1000"),
	}

	row, err := normalizeRow(asset, 1_699_999_920_000, 1_700_000_030_000)
	require.NoError(t, err)

	assert.Equal(t, "btc", row.AssetID)
	assert.Equal(t, int64(1_699_999_920_000), row.AlignedTime)
	assert.Equal(t, int64(1_700_000_030_000), row.RawTime)
	assert.True(t, row.CurrentPrice.Valid)
	assert.True(t, row.CurrentPrice.Decimal.Equal(decimal.RequireFromString("50000.12345678")))
	assert.True(t, row.MarketCapRank.Valid)
	assert.Equal(t, int64(1), row.MarketCapRank.Int64)
}

// TestNormalizeRowPreservesPrecisionBeyondFloat64 guards against a
// float64 intermediary: this value has more significant digits than a
// float64 can round-trip exactly, so it only survives normalizeRow if
// the decimal is carried straight from the wire token.
func TestNormalizeRowPreservesPrecisionBeyondFloat64(t *testing.T) {
	const raw = "12345.678901234567891234"
	asset := market.Asset{
		ID:           "precise",
		CurrentPrice: decimalp(raw),
	}

	row, err := normalizeRow(asset, 1_699_999_920_000, 1_700_000_030_000)
	require.NoError(t, err)

	want := decimal.RequireFromString(raw).Round(priceScale)
	assert.True(t, row.CurrentPrice.Decimal.Equal(want), "got %s, want %s", row.CurrentPrice.Decimal, want)
}

func TestNormalizeRowTreatsMissingNumericAsNull(t *testing.T) {
	asset := market.Asset{ID: "eth"}
	row, err := normalizeRow(asset, 1_699_999_920_000, 1_700_000_030_000)
	require.NoError(t, err)

	assert.False(t, row.FullyDilutedValuation.Valid)
	assert.False(t, row.PriceChange24h.Valid)
	assert.False(t, row.CurrentPrice.Valid, "current_price missing upstream must be null, not zero")
	assert.False(t, row.MarketCap.Valid)
	assert.False(t, row.TotalVolume.Valid)
}
