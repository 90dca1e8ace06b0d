package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alkana/warehouse-go/internal/domain"
)

// UploadRepo persists upload_history rows so processing state and load
// stats survive restarts.
type UploadRepo struct {
	db *DB
}

func NewUploadRepo(db *DB) *UploadRepo {
	return &UploadRepo{db: db}
}

// Create records a new upload in pending state and returns its id.
func (r *UploadRepo) Create(ctx context.Context, run *domain.UploadRun) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO upload_history (
			file_name, original_name, file_type, file_size, file_hash,
			status, uploaded_at, uploaded_by, snapshot_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		run.FileName, run.OriginalName, run.FileType, run.FileSize,
		run.FileHash, run.Status, run.UploadedAt, run.UploadedBy,
		run.SnapshotDate,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("create upload record for %s: %w", run.OriginalName, err)
	}
	return nil
}

// MarkProcessing flips a pending upload to processing.
func (r *UploadRepo) MarkProcessing(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE upload_history SET status = $1 WHERE id = $2`,
		domain.UploadStatusProcessing, id); err != nil {
		return fmt.Errorf("mark upload %d processing: %w", id, err)
	}
	return nil
}

// MarkCompleted finishes an upload with its per-row stats.
func (r *UploadRepo) MarkCompleted(ctx context.Context, id int64, loaded, updated, skipped, failed int) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE upload_history
		SET status = $1, processed_at = $2,
			rows_loaded = $3, rows_updated = $4, rows_skipped = $5, rows_failed = $6
		WHERE id = $7`,
		domain.UploadStatusCompleted, time.Now(), loaded, updated, skipped, failed, id); err != nil {
		return fmt.Errorf("mark upload %d completed: %w", id, err)
	}
	return nil
}

// MarkFailed finishes an upload with the failure reason.
func (r *UploadRepo) MarkFailed(ctx context.Context, id int64, reason string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE upload_history
		SET status = $1, processed_at = $2, error_message = $3
		WHERE id = $4`,
		domain.UploadStatusFailed, time.Now(), reason, id); err != nil {
		return fmt.Errorf("mark upload %d failed: %w", id, err)
	}
	return nil
}

// GetByID fetches one upload record.
func (r *UploadRepo) GetByID(ctx context.Context, id int64) (*domain.UploadRun, error) {
	var run domain.UploadRun
	err := r.db.GetContext(ctx, &run,
		`SELECT * FROM upload_history WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get upload %d: %w", id, err)
	}
	return &run, nil
}

// List returns the most recent uploads, newest first.
func (r *UploadRepo) List(ctx context.Context, limit int) ([]domain.UploadRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []domain.UploadRun
	err := r.db.SelectContext(ctx, &runs,
		`SELECT * FROM upload_history ORDER BY uploaded_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return runs, nil
}

// FindActiveByHash looks for a pending/processing/completed upload of the
// same file content. AR aging snapshots are scoped to their snapshot
// date: the same workbook may be re-uploaded for a different date.
func (r *UploadRepo) FindActiveByHash(ctx context.Context, fileHash string, snapshotDate *time.Time) (*domain.UploadRun, error) {
	query := `
		SELECT * FROM upload_history
		WHERE file_hash = $1 AND status IN ('pending', 'processing', 'completed')`
	args := []interface{}{fileHash}
	if snapshotDate != nil {
		query += ` AND snapshot_date = $2`
		args = append(args, *snapshotDate)
	}
	query += ` ORDER BY uploaded_at DESC LIMIT 1`

	var run domain.UploadRun
	err := r.db.GetContext(ctx, &run, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find upload by hash: %w", err)
	}
	return &run, nil
}

// DeleteOlderThan removes finished upload records past the retention
// window and returns the file names so the caller can unlink them.
func (r *UploadRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	var names []string
	err := r.db.SelectContext(ctx, &names, `
		DELETE FROM upload_history
		WHERE uploaded_at < $1 AND status IN ('completed', 'failed')
		RETURNING file_name`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("prune uploads before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	return names, nil
}
