package models

// SyncLogEntry is an append-only record of one ingest tick's outcome,
// used to reconstruct pipeline history and to diagnose partial ticks.
type SyncLogEntry struct {
	TickID      string `db:"tick_id"`
	AlignedTime int64  `db:"aligned_time"`
	StartedAt   int64  `db:"started_at"`
	FinishedAt  int64  `db:"finished_at"`
	Outcome     string `db:"outcome"` // success | partial | failure
	PagesFetched int   `db:"pages_fetched"`
	RowsWritten  int   `db:"rows_written"`
	ErrorMessage string `db:"error_message"`
}
