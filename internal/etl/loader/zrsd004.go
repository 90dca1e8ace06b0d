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

// zrsd004Columns assigns names to the delivery export, whose first row
// is a merged title band rather than a usable header.
var zrsd004Columns = []string{
	"Delivery Date", "Actual GI Date", "Delivery", "SO Reference",
	"Req. Type", "Delivery Type", "Shipping Point", "Sloc", "Sales Office",
	"Dist. Channel", "Cust. Group", "Sold-to Party", "Ship-to Party",
	"Name of Ship-to", "City of Ship-to", "Regional Stru. Grp.",
	"Transportation Zone", "Salesman ID", "Salesman Name", "Material",
	"Description", "Delivery Qty", "Tonase", "Tonase Unit",
	"Actual Delivery Qty", "Sales Unit", "Net Weight", "Weight Unit",
	"Volume", "Volume Unit", "Created By", "Product Hierarchy",
	"Line Item", "Total Movement Goods Stat",
}

// Zrsd004Loader stages outbound delivery exports, keyed by
// (delivery, line_item).
type Zrsd004Loader struct {
	store *postgres.RawStore
}

func NewZrsd004Loader(store *postgres.RawStore) *Zrsd004Loader {
	return &Zrsd004Loader{store: store}
}

func (l *Zrsd004Loader) FileType() domain.FileType { return domain.FileTypeZrsd004 }

func (l *Zrsd004Loader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	table, err := excel.ReadAssigned(path, zrsd004Columns)
	if err != nil {
		return nil, fmt.Errorf("read zrsd004 %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		delivery := rec.Get("delivery")
		lineItem := excel.Int(rec.Get("line item"))
		if delivery == "" || lineItem == nil {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHashWithFile(payload, sourceFile)
		record := map[string]interface{}{
			"actual_gi_date": excel.Date(rec.Get("actual gi date")),
			"delivery":       delivery,
			"line_item":      *lineItem,
			"so_reference":   excel.Str(rec.Get("so reference")),
			"shipping_point": excel.Str(rec.Get("shipping point")),
			"sloc":           excel.Str(rec.Get("sloc")),
			"sales_office":   excel.Str(rec.Get("sales office")),
			"dist_channel":   excel.Str(rec.Get("dist channel")),
			"cust_group":     excel.Str(rec.Get("cust group")),
			"sold_to_party":  excel.Str(rec.Get("sold-to party")),
			"ship_to_party":  excel.Str(rec.Get("ship-to party")),
			"ship_to_name":   excel.Str(rec.Get("name of ship-to")),
			"ship_to_city":   excel.Str(rec.Get("city of ship-to")),
			"salesman_id":    excel.Str(rec.Get("salesman id")),
			"salesman_name":  excel.Str(rec.Get("salesman name")),
			"material":       excel.Str(rec.Get("material")),
			"material_desc":  excel.Str(rec.Get("description")),
			"delivery_qty":   excel.Float(rec.Get("delivery qty")),
			"tonase":         excel.Float(rec.Get("tonase")),
			"tonase_unit":    excel.Str(rec.Get("tonase unit")),
			"net_weight":     excel.Float(rec.Get("net weight")),
			"volume":         excel.Float(rec.Get("volume")),
			"prod_hierarchy": excel.Str(rec.Get("product hierarchy")),
			"source_file":    sourceFile,
			"source_row":     rec.SourceRow(),
			"loaded_at":      time.Now(),
			"raw_data":       payload,
			"row_hash":       rowHash,
		}
		key := map[string]interface{}{"delivery": delivery, "line_item": *lineItem}
		writeRow(ctx, l.store, "raw_zrsd004", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("zrsd004 load finished")
	return stats, nil
}
