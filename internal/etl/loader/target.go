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

// TargetLoader stages the semester sales targets workbook, keyed by
// (salesman_name, semester, year). This one is maintained by hand
// rather than exported from SAP, so the shape is a simple flat table.
type TargetLoader struct {
	store *postgres.RawStore
}

func NewTargetLoader(store *postgres.RawStore) *TargetLoader {
	return &TargetLoader{store: store}
}

func (l *TargetLoader) FileType() domain.FileType { return domain.FileTypeTarget }

func (l *TargetLoader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	table, err := excel.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read target %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		salesman := rec.Get("salesman name")
		semester := excel.Int(rec.Get("semester"))
		year := excel.Int(rec.Get("year"))
		if salesman == "" || semester == nil || year == nil {
			stats.Skipped++
			continue
		}

		payload := rec.Payload()
		rowHash := excel.RowHashWithFile(payload, sourceFile)
		record := map[string]interface{}{
			"salesman_name": salesman,
			"semester":      *semester,
			"year":          *year,
			"target":        excel.Float(rec.Get("target")),
			"source_file":   sourceFile,
			"source_row":    rec.SourceRow(),
			"loaded_at":     time.Now(),
			"raw_data":      payload,
			"row_hash":      rowHash,
		}
		key := map[string]interface{}{
			"salesman_name": salesman,
			"semester":      *semester,
			"year":          *year,
		}
		writeRow(ctx, l.store, "raw_target", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("target load finished")
	return stats, nil
}
