package ingest

import "time"

// parseISO8601 parses the provider's RFC3339 timestamp fields
// (last_updated, ath_date, atl_date), returning ok=false for a nil or
// unparseable pointer so the caller can fall back to the tick's own
// raw_time or omit the column.
func parseISO8601(v *string) (int64, bool) {
	if v == nil || *v == "" {
		return 0, false
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}
