package store

import (
	"context"
	"fmt"
)

// snapshotColumns and indicatorColumns are the single source of truth
// for each table's column list; ProbeSchema and the upsert builders both
// read from here so a column never drifts between the two.
var snapshotColumns = []string{
	"aligned_time", "asset_id", "raw_time", "last_updated",
	"symbol", "name", "image",
	"current_price", "market_cap", "market_cap_rank", "fully_diluted_valuation",
	"total_volume", "circulating_supply", "max_supply",
	"price_change_24h", "price_change_percentage_24h", "price_change_percentage_7d",
	"price_change_percentage_30d", "market_cap_change_24h", "market_cap_change_percentage_24h",
	"ath", "ath_change_percentage", "ath_date",
	"atl", "atl_change_percentage", "atl_date",
	"created_at",
}

var indicatorColumns = []string{
	"aligned_time", "asset_id", "indicator_name", "timeframe",
	"indicator_value", "created_at",
}

// ProbeSchema runs a zero-row query naming every expected column against
// each table, catching a mismatched deployment before the first tick
// rather than failing deep inside an upsert.
func (g *Gateway) ProbeSchema(ctx context.Context) error {
	if err := g.probeTable(ctx, "coin_data", snapshotColumns); err != nil {
		return err
	}
	if err := g.probeTable(ctx, "indicator_data", indicatorColumns); err != nil {
		return err
	}
	return nil
}

func (g *Gateway) probeTable(ctx context.Context, table string, columns []string) error {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE false", quoteJoin(columns), table)
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("schema probe for %s: %w", table, err)
	}
	defer rows.Close()
	return nil
}

func quoteJoin(columns []string) string {
	out := ""
	for i, c := range columns {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
