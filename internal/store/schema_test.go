package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteJoin(t *testing.T) {
	assert.Equal(t, "", quoteJoin(nil))
	assert.Equal(t, "a", quoteJoin([]string{"a"}))
	assert.Equal(t, "a, b, c", quoteJoin([]string{"a", "b", "c"}))
}

func TestSnapshotColumnsMatchUpsertArgOrder(t *testing.T) {
	assert.Len(t, snapshotColumns, 27)
	assert.Equal(t, "aligned_time", snapshotColumns[0])
	assert.Equal(t, "asset_id", snapshotColumns[1])
	assert.Equal(t, "created_at", snapshotColumns[len(snapshotColumns)-1])
}

func TestIndicatorColumnsMatchUpsertArgOrder(t *testing.T) {
	assert.Equal(t, []string{
		"aligned_time", "asset_id", "indicator_name", "timeframe",
		"indicator_value", "created_at",
	}, indicatorColumns)
}
