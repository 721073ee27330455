// Package ingest is the fixed-cadence scheduler that enumerates all
// tracked assets from the upstream provider, normalizes and aligns each
// row, and writes a full snapshot bucket once per tick.
package ingest

// Align snaps t (epoch milliseconds) down to the nearest multiple of
// bucketMs: align(t) = (t / bucketMs) * bucketMs.
func Align(t, bucketMs int64) int64 {
	if bucketMs <= 0 {
		return t
	}
	return (t / bucketMs) * bucketMs
}
