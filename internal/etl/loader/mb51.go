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

// mb51Columns assigns names to the headerless movement export. The
// "Text" column actually carries the document reference and "Reference"
// the outbound delivery; the labels are swapped at the source.
var mb51Columns = []string{
	"Posting Date", "Movement Type", "Plant", "Storage Location",
	"Material", "Material Description", "Batch", "Qty in Un. of Entry",
	"Unit of Entry", "Cost Center", "G/L Account", "Material Document",
	"Text", "Reference", "Reason for Movement", "Purchase Order",
}

// Mb51Loader stages material movement exports. Movement rows have no
// stable unique key beyond the material document, and one export often
// repeats documents across lines, so identical rows within one file are
// collapsed before writing.
type Mb51Loader struct {
	store *postgres.RawStore
}

func NewMb51Loader(store *postgres.RawStore) *Mb51Loader {
	return &Mb51Loader{store: store}
}

func (l *Mb51Loader) FileType() domain.FileType { return domain.FileTypeMb51 }

func (l *Mb51Loader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	table, err := excel.ReadAssigned(path, mb51Columns)
	if err != nil {
		return nil, fmt.Errorf("read mb51 %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	seen := make(map[string]bool, table.Len())
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		materialDoc := rec.Get("material document")
		postingDate := rec.Get("posting date")
		if materialDoc == "" && postingDate == "" {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHashWithFile(payload, sourceFile)
		if seen[rowHash] {
			stats.Skipped++
			continue
		}
		seen[rowHash] = true

		record := map[string]interface{}{
			"col_0_posting_date":       excel.Date(postingDate),
			"col_1_mvt_type":           excel.Int(rec.Get("movement type")),
			"col_2_plant":              excel.Int(rec.Get("plant")),
			"col_3_sloc":               excel.Int(rec.Get("storage location")),
			"col_4_material":           excel.Str(rec.Get("material")),
			"col_5_material_desc":      excel.Str(rec.Get("material description")),
			"col_6_batch":              excel.Str(rec.Get("batch")),
			"col_7_qty":                excel.Float(rec.Get("qty in un. of entry")),
			"col_8_uom":                excel.Str(rec.Get("unit of entry")),
			"col_9_cost_center":        excel.Str(rec.Get("cost center")),
			"col_10_gl_account":        excel.Str(rec.Get("g/l account")),
			"col_11_material_doc":      excel.Str(materialDoc),
			"col_12_reference":         excel.Str(rec.Get("text")),
			"col_13_outbound_delivery": excel.Str(rec.Get("reference")),
			"col_14":                   excel.Str(rec.Get("reason for movement")),
			"col_15_purchase_order":    excel.Str(rec.Get("purchase order")),
			"source_file":              sourceFile,
			"source_row":               rec.SourceRow(),
			"loaded_at":                time.Now(),
			"raw_data":                 payload,
			"row_hash":                 rowHash,
		}
		key := map[string]interface{}{"col_11_material_doc": materialDoc}
		writeRow(ctx, l.store, "raw_mb51", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("mb51 load finished")
	return stats, nil
}
