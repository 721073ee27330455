// Package indicator computes, for every asset with sufficient history, a
// fixed battery of point-in-time statistics from a small window of
// historical snapshot rows.
package indicator

import (
	"github.com/shopspring/decimal"

	"github.com/paaavkata/coinwatch/pkg/models"
)

// AssetWindow is one asset's projected rows keyed by offset minutes,
// the shape Compute operates on.
type AssetWindow map[int]models.HistoryRow

// computeFn is a pure function of an asset's projected rows, returning
// ok=false when a required input is missing or a denominator is zero —
// the indicator is then omitted, not written as null or zero.
type computeFn func(w AssetWindow) (decimal.Decimal, bool)

var computeFns = map[string]computeFn{
	PriceChange3M:            priceChange(0, 3),
	PriceChange6M:            priceChange(0, 6),
	PriceChange12M:           priceChange(0, 12),
	PriceChange24H:           priceChange(0, 1440),
	VolumeChange1H:           volumeChange(0, 60),
	VolumeChange3H:           volumeChange(0, 180),
	VolumeChange8H:           volumeChange(0, 480),
	VolumeChange24H:          volumeChange(0, 1440),
	VolumeChange3M:           volumeChange(0, 3),
	VolumeChange6M:           volumeChange(0, 6),
	VolumeChange9M:           volumeChange(0, 9),
	VolumeChangeRatio3M:      volumeChangeRatio3M,
	AvgVolume3M24H:           avgVolume3M24H,
	CapitalInflowIntensity3M: capitalInflowIntensity3M,
}

// Compute runs every registered indicator against one asset's window,
// returning only the indicators whose inputs were all present and whose
// denominators were non-zero.
func Compute(w AssetWindow) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(computeFns))
	for name, fn := range computeFns {
		if v, ok := fn(w); ok {
			out[name] = v
		}
	}
	return out
}

func price(w AssetWindow, offset int) (decimal.Decimal, bool) {
	row, ok := w[offset]
	if !ok || !row.Price.Valid {
		return decimal.Decimal{}, false
	}
	return row.Price.Decimal, true
}

func volume(w AssetWindow, offset int) (decimal.Decimal, bool) {
	row, ok := w[offset]
	if !ok || !row.TotalVolume.Valid {
		return decimal.Decimal{}, false
	}
	return row.TotalVolume.Decimal, true
}

// priceChange builds `(p[near] - p[far]) / p[far]`.
func priceChange(near, far int) computeFn {
	return func(w AssetWindow) (decimal.Decimal, bool) {
		pNear, ok := price(w, near)
		if !ok {
			return decimal.Decimal{}, false
		}
		pFar, ok := price(w, far)
		if !ok || pFar.IsZero() {
			return decimal.Decimal{}, false
		}
		return pNear.Sub(pFar).Div(pFar), true
	}
}

// volumeChange builds `(v[near] - v[far]) / v[far]`.
func volumeChange(near, far int) computeFn {
	return func(w AssetWindow) (decimal.Decimal, bool) {
		vNear, ok := volume(w, near)
		if !ok {
			return decimal.Decimal{}, false
		}
		vFar, ok := volume(w, far)
		if !ok || vFar.IsZero() {
			return decimal.Decimal{}, false
		}
		return vNear.Sub(vFar).Div(vFar), true
	}
}

// volumeChangeRatio3M is `(v0 - v3) / v1440`.
func volumeChangeRatio3M(w AssetWindow) (decimal.Decimal, bool) {
	v0, ok := volume(w, 0)
	if !ok {
		return decimal.Decimal{}, false
	}
	v3, ok := volume(w, 3)
	if !ok {
		return decimal.Decimal{}, false
	}
	v1440, ok := volume(w, 1440)
	if !ok || v1440.IsZero() {
		return decimal.Decimal{}, false
	}
	return v0.Sub(v3).Div(v1440), true
}

// avgVolume3M24H is the mean of v_k for every offset in Offsets that
// falls within the 24h/3-minute-step window (k <= 1440/3 = 480) and is
// present in the asset's window.
func avgVolume3M24H(w AssetWindow) (decimal.Decimal, bool) {
	sum := decimal.Zero
	count := 0
	for _, off := range Offsets {
		if off > 480 {
			continue
		}
		v, ok := volume(w, off)
		if !ok {
			continue
		}
		sum = sum.Add(v)
		count++
	}
	if count == 0 {
		return decimal.Decimal{}, false
	}
	return sum.Div(decimal.NewFromInt(int64(count))), true
}

// capitalInflowIntensity3M is `((p0 - p3) / p3) * v0`.
func capitalInflowIntensity3M(w AssetWindow) (decimal.Decimal, bool) {
	p0, ok := price(w, 0)
	if !ok {
		return decimal.Decimal{}, false
	}
	p3, ok := price(w, 3)
	if !ok || p3.IsZero() {
		return decimal.Decimal{}, false
	}
	v0, ok := volume(w, 0)
	if !ok {
		return decimal.Decimal{}, false
	}
	return p0.Sub(p3).Div(p3).Mul(v0), true
}
