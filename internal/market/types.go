// Package market is the upstream HTTP market-data provider client: a
// paginated GET endpoint returning a JSON array of asset objects per
// page.
package market

import "github.com/shopspring/decimal"

// Asset is one element of the provider's per-page JSON array. Numeric
// fields are decimal.Decimal, which implements json.Unmarshaler itself
// and parses the wire token (quoted or bare) straight into an
// arbitrary-precision decimal — it never passes through a float64
// intermediary, matching the high-precision parsing the rest of the
// pipeline assumes.
type Asset struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  string `json:"image"`

	CurrentPrice          *decimal.Decimal `json:"current_price"`
	MarketCap             *decimal.Decimal `json:"market_cap"`
	MarketCapRank         *int64           `json:"market_cap_rank"`
	FullyDilutedValuation *decimal.Decimal `json:"fully_diluted_valuation"`
	TotalVolume           *decimal.Decimal `json:"total_volume"`
	CirculatingSupply     *decimal.Decimal `json:"circulating_supply"`
	MaxSupply             *decimal.Decimal `json:"max_supply"`

	PriceChange24h                     *decimal.Decimal `json:"price_change_24h"`
	PriceChangePercentage24h           *decimal.Decimal `json:"price_change_percentage_24h"`
	PriceChangePercentage7dInCurrency  *decimal.Decimal `json:"price_change_percentage_7d_in_currency"`
	PriceChangePercentage30dInCurrency *decimal.Decimal `json:"price_change_percentage_30d_in_currency"`
	MarketCapChange24h                 *decimal.Decimal `json:"market_cap_change_24h"`
	MarketCapChangePercentage24h       *decimal.Decimal `json:"market_cap_change_percentage_24h"`

	ATH                 *decimal.Decimal `json:"ath"`
	ATHChangePercentage *decimal.Decimal `json:"ath_change_percentage"`
	ATHDate             *string          `json:"ath_date"`
	ATL                 *decimal.Decimal `json:"atl"`
	ATLChangePercentage *decimal.Decimal `json:"atl_change_percentage"`
	ATLDate             *string          `json:"atl_date"`

	LastUpdated *string `json:"last_updated"`
}
