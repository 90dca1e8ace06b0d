package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alkana/warehouse-go/internal/domain"
)

const defaultAlertPageSize = 20

// DashboardRepo serves the read side: lead-time rollups, AR aging
// snapshots and the alert feed.
type DashboardRepo struct {
	db *DB
}

func NewDashboardRepo(db *DB) *DashboardRepo {
	return &DashboardRepo{db: db}
}

// LeadTimeSummary aggregates the lead-time fact per order type and
// channel, worst stages first.
func (r *DashboardRepo) LeadTimeSummary(ctx context.Context) ([]domain.LeadTimeSummary, error) {
	query := `
        WITH stage_avgs AS (
            SELECT
                order_type,
                channel_code,
                COUNT(*) as order_count,
                ROUND(AVG(lead_time_days)::numeric, 1) as avg_lead_time_days,
                ROUND(AVG(preparation_days)::numeric, 1) as avg_preparation_days,
                ROUND(AVG(production_days)::numeric, 1) as avg_production_days,
                ROUND(AVG(transit_days)::numeric, 1) as avg_transit_days,
                ROUND(AVG(storage_days)::numeric, 1) as avg_storage_days,
                MAX(lead_time_days) as max_lead_time_days
            FROM fact_lead_time
            GROUP BY order_type, channel_code
        )
        SELECT * FROM stage_avgs
        ORDER BY avg_lead_time_days DESC, order_type ASC
    `
	var rows []domain.LeadTimeSummary
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("lead time summary: %w", err)
	}
	return rows, nil
}

// ARAgingSummary rolls one snapshot up per channel with the collection
// ratio (realization over target).
func (r *DashboardRepo) ARAgingSummary(ctx context.Context, snapshot time.Time) ([]domain.ARAgingSummary, error) {
	query := `
        WITH channel_totals AS (
            SELECT
                COALESCE(dist_channel, 'UNKNOWN') as dist_channel,
                COUNT(DISTINCT customer_name) as customer_count,
                COALESCE(SUM(total_target), 0) as total_target,
                COALESCE(SUM(total_realization), 0) as total_realization
            FROM fact_ar_aging
            WHERE snapshot_date = $1
            GROUP BY COALESCE(dist_channel, 'UNKNOWN')
        )
        SELECT
            dist_channel,
            customer_count,
            total_target,
            total_realization,
            CASE WHEN total_target > 0
                 THEN ROUND((total_realization / total_target * 100)::numeric, 1)
                 ELSE 0
            END as collection_pct
        FROM channel_totals
        ORDER BY total_target DESC
    `
	var rows []domain.ARAgingSummary
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, snapshot); err != nil {
		return nil, fmt.Errorf("ar aging summary for %s: %w", snapshot.Format("2006-01-02"), err)
	}
	return rows, nil
}

// ListARSnapshots returns the snapshot dates on file, newest first.
func (r *DashboardRepo) ListARSnapshots(ctx context.Context) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.SelectContext(ctx, &dates,
		`SELECT DISTINCT snapshot_date FROM fact_ar_aging ORDER BY snapshot_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list ar snapshots: %w", err)
	}
	return dates, nil
}

// LatestARSnapshot returns the most recent snapshot date, or nil when
// no snapshot has been loaded yet.
func (r *DashboardRepo) LatestARSnapshot(ctx context.Context) (*time.Time, error) {
	var date time.Time
	err := r.db.GetContext(ctx, &date,
		`SELECT MAX(snapshot_date) FROM fact_ar_aging`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest ar snapshot: %w", err)
	}
	return &date, nil
}

// ListAlerts pages through fact_alerts, optionally filtered by status,
// most severe and most recent first.
func (r *DashboardRepo) ListAlerts(ctx context.Context, status string, page, pageSize int) (*domain.AlertPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = defaultAlertPageSize
	}
	offset := (page - 1) * pageSize

	var statusClause string
	var args []interface{}
	idx := 1
	if status != "" && status != "ALL" {
		statusClause = fmt.Sprintf("WHERE status = $%d", idx)
		args = append(args, status)
		idx++
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM fact_alerts %s`, statusClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT * FROM fact_alerts
        %s
        ORDER BY
            CASE severity WHEN 'CRITICAL' THEN 0 WHEN 'HIGH' THEN 1 ELSE 2 END,
            detected_at DESC
        LIMIT $%d OFFSET $%d
    `, statusClause, idx, idx+1)

	var items []domain.Alert
	qArgs := append(args, pageSize, offset)
	if err := sqlx.SelectContext(ctx, r.db, &items, query, qArgs...); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	return &domain.AlertPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// ResolveAlert marks one alert resolved. Returns false when the alert
// does not exist or was already resolved.
func (r *DashboardRepo) ResolveAlert(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fact_alerts
		SET status = $1, resolved_at = $2
		WHERE id = $3 AND status = $4`,
		domain.AlertStatusResolved, time.Now(), id, domain.AlertStatusActive)
	if err != nil {
		return false, fmt.Errorf("resolve alert %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
