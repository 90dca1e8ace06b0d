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

// zrmm024HeaderScan caps how deep the header search goes; the export
// carries a free-form report banner of varying height above the table.
const zrmm024HeaderScan = 10

// Zrmm024Loader stages stock transfer purchase orders, keyed by
// (purch_order, item).
type Zrmm024Loader struct {
	store *postgres.RawStore
}

func NewZrmm024Loader(store *postgres.RawStore) *Zrmm024Loader {
	return &Zrmm024Loader{store: store}
}

func (l *Zrmm024Loader) FileType() domain.FileType { return domain.FileTypeZrmm024 }

func (l *Zrmm024Loader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	headerRow, ok, err := excel.FindHeaderRow(path, []string{"purchorder", "item", "purchdate"}, zrmm024HeaderScan)
	if err != nil {
		return nil, fmt.Errorf("scan zrmm024 %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("zrmm024 %s: header row not found in first %d rows", path, zrmm024HeaderScan)
	}
	table, err := excel.ReadFrom(path, headerRow)
	if err != nil {
		return nil, fmt.Errorf("read zrmm024 %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		purchOrder := rec.Get("purch order")
		item := excel.Int(rec.Get("item"))
		if purchOrder == "" || item == nil {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHashWithFile(payload, sourceFile)
		record := map[string]interface{}{
			"purch_order":   purchOrder,
			"item":          *item,
			"purch_date":    excel.Date(rec.Get("purch date")),
			"suppl_plant":   excel.Int(rec.Get("suppl plant", "supplying plant")),
			"dest_plant":    excel.Int(rec.Get("dest plant", "destination plant")),
			"material":      excel.Str(rec.Get("material")),
			"material_desc": excel.Str(rec.Get("material desc", "material description")),
			"qty_order":     excel.Float(rec.Get("qty order", "order qty")),
			"gross_weight":  excel.Float(rec.Get("gross weight")),
			"tonnage_order": excel.Float(rec.Get("tonase order", "tonnage order")),
			"qty_order_tol": excel.Float(rec.Get("qty order tol", "qty order + tol")),
			"delivery_date": excel.Date(rec.Get("delivery date")),
			"qty_gi":        excel.Float(rec.Get("qty gi")),
			"tonnage_gi":    excel.Float(rec.Get("tonase gi", "tonnage gi")),
			"qty_receipt":   excel.Float(rec.Get("qty receipt")),
			"source_file":   sourceFile,
			"source_row":    rec.SourceRow(),
			"loaded_at":     time.Now(),
			"raw_data":      payload,
			"row_hash":      rowHash,
		}
		key := map[string]interface{}{"purch_order": purchOrder, "item": *item}
		writeRow(ctx, l.store, "raw_zrmm024", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("header_row", headerRow).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("zrmm024 load finished")
	return stats, nil
}
