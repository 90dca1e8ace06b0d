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

// Zrsd002Loader stages billing exports, keyed by (billing_document,
// billing_item). Billing documents are globally unique, so the content
// hash deliberately excludes the source file: the same line re-exported
// in a different workbook is still the same line.
type Zrsd002Loader struct {
	store *postgres.RawStore
}

func NewZrsd002Loader(store *postgres.RawStore) *Zrsd002Loader {
	return &Zrsd002Loader{store: store}
}

func (l *Zrsd002Loader) FileType() domain.FileType { return domain.FileTypeZrsd002 }

func (l *Zrsd002Loader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	table, err := excel.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read zrsd002 %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		billingDoc := rec.Get("billing document", "billing doc")
		item := excel.Int(rec.Get("billing item"))
		if billingDoc == "" || item == nil {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHash(payload)
		record := map[string]interface{}{
			"billing_date":     excel.Date(rec.Get("billing date")),
			"billing_document": billingDoc,
			"billing_item":     *item,
			"sloc":             excel.Str(rec.Get("sloc")),
			"sales_office":     excel.Str(rec.Get("sales office")),
			"dist_channel":     excel.Str(rec.Get("dist channel")),
			"customer_name":    excel.Str(rec.Get("name of bill to")),
			"cust_group":       excel.Str(rec.Get("cust group")),
			"salesman_name":    excel.Str(rec.Get("salesman name")),
			"material":         excel.Str(rec.Get("material")),
			"material_desc":    excel.Str(rec.Get("description")),
			"prod_hierarchy":   excel.Str(rec.Get("prod hierarchy")),
			"billing_qty":      excel.Float(rec.Get("billing qty")),
			"sales_unit":       excel.Str(rec.Get("sales unit")),
			"currency":         excel.Str(rec.Get("curr")),
			"exchange_rate":    excel.Float(rec.Get("exchange rate")),
			"price":            excel.Float(rec.Get("price")),
			"total_price":      excel.Float(rec.Get("total price")),
			"discount_item":    excel.Float(rec.Get("discount item")),
			"net_value":        excel.Float(rec.Get("net value")),
			"tax":              excel.Float(rec.Get("tax")),
			"total":            excel.Float(rec.Get("total")),
			"net_weight":       excel.Float(rec.Get("net weight")),
			"weight_unit":      excel.Str(rec.Get("weight unit")),
			"volume":           excel.Float(rec.Get("volum")),
			"volume_unit":      excel.Str(rec.Get("volum unit")),
			"so_number":        excel.Str(rec.Get("so no")),
			"so_date":          excel.Date(rec.Get("so date")),
			"doc_reference_od": excel.Str(rec.Get("doc reference (od)")),
			"source_file":      sourceFile,
			"source_row":       rec.SourceRow(),
			"loaded_at":        time.Now(),
			"raw_data":         payload,
			"row_hash":         rowHash,
		}
		key := map[string]interface{}{"billing_document": billingDoc, "billing_item": *item}
		writeRow(ctx, l.store, "raw_zrsd002", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("zrsd002 load finished")
	return stats, nil
}
