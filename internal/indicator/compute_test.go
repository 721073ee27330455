package indicator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paaavkata/coinwatch/pkg/models"
)

func row(assetID string, alignedTime int64, price, volume float64) models.HistoryRow {
	return models.HistoryRow{
		AssetID:     assetID,
		AlignedTime: alignedTime,
		Price:       models.NewNullDecimal(decimal.NewFromFloat(price), true),
		TotalVolume: models.NewNullDecimal(decimal.NewFromFloat(volume), true),
	}
}

// windowFromOffsets builds an AssetWindow the way the engine's
// groupByAsset does: offset = (alignedTime - row.AlignedTime) / 60_000.
func windowFromOffsets(t int64, offsets []int, prices, volumes []float64) AssetWindow {
	w := AssetWindow{}
	for i, off := range offsets {
		w[off] = row("btc", t-int64(off)*60_000, prices[i], volumes[i])
	}
	return w
}

func decEqual(t *testing.T, want float64, got decimal.Decimal, tolerance float64) {
	t.Helper()
	diff := got.Sub(decimal.NewFromFloat(want)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(tolerance)),
		"want %v got %v (diff %v)", want, got, diff)
}

func TestComputeFullWindow(t *testing.T) {
	w := windowFromOffsets(1_700_000_000_000,
		[]int{0, 3, 6, 1440},
		[]float64{52000, 51000, 50000, 48000},
		[]float64{1200, 1000, 900, 800},
	)

	out := Compute(w)

	require.Contains(t, out, PriceChange3M)
	decEqual(t, 0.019608, out[PriceChange3M], 0.000001)

	require.Contains(t, out, PriceChange6M)
	decEqual(t, 0.04, out[PriceChange6M], 0.000001)

	require.Contains(t, out, PriceChange24H)
	decEqual(t, 0.083333, out[PriceChange24H], 0.000001)

	require.Contains(t, out, VolumeChange3M)
	decEqual(t, 0.2, out[VolumeChange3M], 0.000001)

	require.Contains(t, out, CapitalInflowIntensity3M)
	decEqual(t, 23.5294, out[CapitalInflowIntensity3M], 0.001)

	assert.NotContains(t, out, PriceChange12M, "offset 12 row absent, indicator must be omitted")
	assert.NotContains(t, out, VolumeChange1H, "offset 60 row absent, indicator must be omitted")
}

func TestComputeOmitsIndicatorsNeedingMissingOffset(t *testing.T) {
	w := windowFromOffsets(1_700_000_000_000,
		[]int{0, 6, 1440},
		[]float64{52000, 50000, 48000},
		[]float64{1200, 900, 800},
	)

	out := Compute(w)

	assert.NotContains(t, out, PriceChange3M)
	assert.NotContains(t, out, VolumeChange3M)
	assert.NotContains(t, out, VolumeChangeRatio3M)
	assert.NotContains(t, out, CapitalInflowIntensity3M)

	require.Contains(t, out, PriceChange6M)
	decEqual(t, 0.04, out[PriceChange6M], 0.000001)

	require.Contains(t, out, PriceChange24H)
	decEqual(t, 0.083333, out[PriceChange24H], 0.000001)
}

func TestComputeOmitsOnZeroDenominator(t *testing.T) {
	w := AssetWindow{
		0: row("btc", 1_700_000_000_000, 100, 10),
		3: row("btc", 1_699_999_820_000, 0, 0),
	}
	out := Compute(w)
	assert.NotContains(t, out, PriceChange3M)
	assert.NotContains(t, out, VolumeChange3M)
}

// TestComputeOmitsOnNullPriceRatherThanTreatingAsZero guards against the
// case where a bucket row exists (the asset was seen at that offset) but
// current_price itself was missing upstream and stored as null: the
// indicator must be omitted, not computed against a substituted zero.
func TestComputeOmitsOnNullPriceRatherThanTreatingAsZero(t *testing.T) {
	w := AssetWindow{
		0: row("btc", 1_700_000_000_000, 100, 10),
		3: {
			AssetID:     "btc",
			AlignedTime: 1_699_999_820_000,
			Price:       models.NewNullDecimal(decimal.Decimal{}, false),
			TotalVolume: models.NewNullDecimal(decimal.NewFromInt(10), true),
		},
	}
	out := Compute(w)
	assert.NotContains(t, out, PriceChange3M, "null price at offset 3 must omit, not divide against a substituted zero")
	assert.NotContains(t, out, CapitalInflowIntensity3M)
}

func TestAvgVolume3M24HAveragesPresentPointsUpTo480(t *testing.T) {
	w := AssetWindow{
		0:   row("btc", 1_700_000_000_000, 100, 30),
		3:   row("btc", 1_699_999_820_000, 100, 20),
		6:   row("btc", 1_699_999_640_000, 100, 10),
		480: row("btc", 1_699_971_200_000, 100, 100),
		1440: row("btc", 1_699_913_600_000, 100, 1000),
	}
	out := Compute(w)
	require.Contains(t, out, AvgVolume3M24H)
	decEqual(t, 40, out[AvgVolume3M24H], 0.000001)
}

func TestTimeframeLookup(t *testing.T) {
	assert.Equal(t, "3m", Timeframe(PriceChange3M))
	assert.Equal(t, "24h", Timeframe(VolumeChange24H))
	assert.Equal(t, "", Timeframe("NOT_A_REAL_INDICATOR"))
}
