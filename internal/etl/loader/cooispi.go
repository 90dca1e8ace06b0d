package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/excel"
	"github.com/alkana/warehouse-go/internal/repository/postgres"
)

// CooispiLoader stages production order exports, one row per order.
type CooispiLoader struct {
	store *postgres.RawStore
}

func NewCooispiLoader(store *postgres.RawStore) *CooispiLoader {
	return &CooispiLoader{store: store}
}

func (l *CooispiLoader) FileType() domain.FileType { return domain.FileTypeCooispi }

func (l *CooispiLoader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	table, err := excel.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read cooispi %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		orderNumber := rec.Get("order")
		if orderNumber == "" {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHashWithFile(payload, sourceFile)
		record := map[string]interface{}{
			"plant":                excel.Int(rec.Get("plant")),
			"sales_order":          excel.Str(rec.Get("sales order")),
			"order_number":         orderNumber,
			"order_type":           excel.Str(rec.Get("order type")),
			"material_number":      excel.Str(rec.Get("material number")),
			"release_date_actual":  excel.Date(rec.Get("release date (actual)")),
			"actual_finish_date":   excel.Date(rec.Get("actual finish date")),
			"material_description": excel.Str(rec.Get("material description")),
			"bom_alternative":      excel.Int(rec.Get("bom alternative")),
			"batch":                excel.Str(rec.Get("batch")),
			"system_status":        excel.Str(rec.Get("system status")),
			"mrp_controller":       excel.Str(rec.Get("mrp controller")),
			"order_quantity":       excel.Float(rec.Get("order quantity (gmein)")),
			"delivered_quantity":   excel.Float(rec.Get("delivered quantity (gmein)")),
			"unit_of_measure":      excel.Str(rec.Get("unit of measure")),
			"source_file":          sourceFile,
			"source_row":           rec.SourceRow(),
			"loaded_at":            time.Now(),
			"raw_data":             payload,
			"row_hash":             rowHash,
		}
		key := map[string]interface{}{"order_number": orderNumber}
		writeRow(ctx, l.store, "raw_cooispi", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("cooispi load finished")
	return stats, nil
}
