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

// Zrsd006Loader stages the material/channel master with its seven
// product hierarchy levels, keyed by (material, dist_channel): the same
// material can sell through several channels.
type Zrsd006Loader struct {
	store *postgres.RawStore
}

func NewZrsd006Loader(store *postgres.RawStore) *Zrsd006Loader {
	return &Zrsd006Loader{store: store}
}

func (l *Zrsd006Loader) FileType() domain.FileType { return domain.FileTypeZrsd006 }

func (l *Zrsd006Loader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	table, err := excel.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read zrsd006 %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		material := rec.Get("material code", "material")
		channel := rec.Get("distribution channel")
		if material == "" || channel == "" {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHashWithFile(payload, sourceFile)
		record := map[string]interface{}{
			"material":      material,
			"material_desc": excel.Str(rec.Get("mat description", "mat. description")),
			"dist_channel":  channel,
			"uom":           excel.Str(rec.Get("uom")),
			"ph1":           excel.Str(rec.Get("ph 1/division")),
			"ph2":           excel.Str(rec.Get("ph 2/business")),
			"ph3":           excel.Str(rec.Get("ph 3/sub business")),
			"ph4":           excel.Str(rec.Get("ph 4/product group")),
			"ph5":           excel.Str(rec.Get("ph 5/product group 1")),
			"ph6":           excel.Str(rec.Get("ph 6/product group 2")),
			"ph7":           excel.Str(rec.Get("ph 7/series")),
			"source_file":   sourceFile,
			"source_row":    rec.SourceRow(),
			"loaded_at":     time.Now(),
			"raw_data":      payload,
			"row_hash":      rowHash,
		}
		key := map[string]interface{}{"material": material, "dist_channel": channel}
		writeRow(ctx, l.store, "raw_zrsd006", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("zrsd006 load finished")
	return stats, nil
}
