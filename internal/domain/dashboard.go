package domain

import "time"

// LeadTimeSummary aggregates fact_lead_time per order type and channel.
type LeadTimeSummary struct {
	OrderType          OrderType `db:"order_type" json:"order_type"`
	ChannelCode        *string   `db:"channel_code" json:"channel_code"`
	OrderCount         int       `db:"order_count" json:"order_count"`
	AvgLeadTimeDays    float64   `db:"avg_lead_time_days" json:"avg_lead_time_days"`
	AvgPreparationDays float64   `db:"avg_preparation_days" json:"avg_preparation_days"`
	AvgProductionDays  float64   `db:"avg_production_days" json:"avg_production_days"`
	AvgTransitDays     float64   `db:"avg_transit_days" json:"avg_transit_days"`
	AvgStorageDays     float64   `db:"avg_storage_days" json:"avg_storage_days"`
	MaxLeadTimeDays    int       `db:"max_lead_time_days" json:"max_lead_time_days"`
}

// ARAgingSummary rolls one snapshot up per distribution channel.
type ARAgingSummary struct {
	DistChannel      string  `db:"dist_channel" json:"dist_channel"`
	CustomerCount    int     `db:"customer_count" json:"customer_count"`
	TotalTarget      float64 `db:"total_target" json:"total_target"`
	TotalRealization float64 `db:"total_realization" json:"total_realization"`
	CollectionPct    float64 `db:"collection_pct" json:"collection_pct"`
}

// AlertPage is one page of alerts plus paging metadata.
type AlertPage struct {
	Items      []Alert `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// UploadResponse is the API shape of one upload record.
type UploadResponse struct {
	ID           int64      `json:"id"`
	OriginalName string     `json:"original_name"`
	FileType     FileType   `json:"file_type"`
	Status       UploadStatus `json:"status"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	RowsLoaded   int        `json:"rows_loaded"`
	RowsUpdated  int        `json:"rows_updated"`
	RowsSkipped  int        `json:"rows_skipped"`
	RowsFailed   int        `json:"rows_failed"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	SnapshotDate *time.Time `json:"snapshot_date,omitempty"`
}

// ToResponse converts an UploadRun to its API shape.
func (u UploadRun) ToResponse() UploadResponse {
	return UploadResponse{
		ID:           u.ID,
		OriginalName: u.OriginalName,
		FileType:     u.FileType,
		Status:       u.Status,
		UploadedAt:   u.UploadedAt,
		ProcessedAt:  u.ProcessedAt,
		RowsLoaded:   u.RowsLoaded,
		RowsUpdated:  u.RowsUpdated,
		RowsSkipped:  u.RowsSkipped,
		RowsFailed:   u.RowsFailed,
		ErrorMessage: u.ErrorMessage,
		SnapshotDate: u.SnapshotDate,
	}
}
