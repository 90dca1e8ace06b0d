package domain

import "time"

// UploadRun tracks one uploaded workbook through its lifecycle
// (pending -> processing -> completed/failed), plus per-row load stats.
type UploadRun struct {
	ID           int64        `db:"id"`
	FileName     string       `db:"file_name"`     // UUID on disk
	OriginalName string       `db:"original_name"` // name as uploaded
	FileType     FileType     `db:"file_type"`
	FileSize     int64        `db:"file_size"`
	FileHash     string       `db:"file_hash"`
	Status       UploadStatus `db:"status"`
	UploadedAt   time.Time    `db:"uploaded_at"`
	ProcessedAt  *time.Time   `db:"processed_at"`
	RowsLoaded   int          `db:"rows_loaded"`
	RowsUpdated  int          `db:"rows_updated"`
	RowsSkipped  int          `db:"rows_skipped"`
	RowsFailed   int          `db:"rows_failed"`
	ErrorMessage *string      `db:"error_message"`
	UploadedBy   *string      `db:"uploaded_by"`
	SnapshotDate *time.Time   `db:"snapshot_date"` // AR aging snapshots only
}
