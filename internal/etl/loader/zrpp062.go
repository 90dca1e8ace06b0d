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

// Zrpp062Loader stages production variance exports, keyed by
// (process_order, batch).
type Zrpp062Loader struct {
	store *postgres.RawStore
}

func NewZrpp062Loader(store *postgres.RawStore) *Zrpp062Loader {
	return &Zrpp062Loader{store: store}
}

func (l *Zrpp062Loader) FileType() domain.FileType { return domain.FileTypeZrpp062 }

func (l *Zrpp062Loader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	table, err := excel.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read zrpp062 %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		processOrder := rec.Get("process order")
		if processOrder == "" {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHashWithFile(payload, sourceFile)
		batch := excel.Str(rec.Get("batch"))
		record := map[string]interface{}{
			"process_order":          processOrder,
			"batch":                  batch,
			"material":               excel.Str(rec.Get("material")),
			"material_description":   excel.Str(rec.Get("material description")),
			"order_sfg_liquid":       excel.Str(rec.Get("order sfg liquid")),
			"mrp_controller":         excel.Str(rec.Get("mrp controller")),
			"product_group_1":        excel.Str(rec.Get("product group 1")),
			"product_group_2":        excel.Str(rec.Get("product group 2")),
			"qty_order_sfg_liquid":   excel.Float(rec.Get("qty order sfg liquid")),
			"process_order_qty":      excel.Float(rec.Get("process order qty")),
			"uom":                    excel.Str(rec.Get("uom")),
			"gi_packaging_to_order":  excel.Float(rec.Get("gi packaging to order")),
			"gi_sfg_liquid_to_order": excel.Float(rec.Get("gi sfg liquid to order")),
			"gr_qty_to_0201":         excel.Float(rec.Get("gr qty to 0201")),
			"tonase_alkana_0201":     excel.Float(rec.Get("tonase alkana 0201", "tonase 0201")),
			"sg_theoretical":         excel.Float(rec.Get("sg theoretical", "sg theory")),
			"sg_actual":              excel.Float(rec.Get("sg actual")),
			"variant_prod_sfg_pct":   excel.Float(rec.Get("variant prod sfg")),
			"variant_fg_pct":         excel.Float(rec.Get("variant fg")),
			"loss_kg":                excel.Float(rec.Get("lossess (kg)", "loss (kg)")),
			"loss_pct":               excel.Float(rec.Get("lossess (%)", "loss (%)")),
			"system_status":          excel.Str(rec.Get("system status")),
			"posting_date":           excel.Date(rec.Get("posting date")),
			"source_file":            sourceFile,
			"source_row":             rec.SourceRow(),
			"loaded_at":              time.Now(),
			"raw_data":               payload,
			"row_hash":               rowHash,
		}
		key := map[string]interface{}{"process_order": processOrder, "batch": batch}
		writeRow(ctx, l.store, "raw_zrpp062", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("zrpp062 load finished")
	return stats, nil
}
