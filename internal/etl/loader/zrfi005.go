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

// Zrfi005Loader stages AR aging snapshots. The export has no date
// column of its own, so the caller supplies the snapshot date and the
// business key includes it: the same customer line on a different date
// is a new row, not an update.
type Zrfi005Loader struct {
	store *postgres.RawStore
}

func NewZrfi005Loader(store *postgres.RawStore) *Zrfi005Loader {
	return &Zrfi005Loader{store: store}
}

func (l *Zrfi005Loader) FileType() domain.FileType { return domain.FileTypeZrfi005 }

func (l *Zrfi005Loader) Load(ctx context.Context, path string, opts Options) (*Stats, error) {
	if opts.SnapshotDate == nil {
		return nil, fmt.Errorf("zrfi005 %s: snapshot date is required", path)
	}
	snapshot := opts.SnapshotDate.Truncate(24 * time.Hour)

	table, err := excel.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read zrfi005 %s: %w", path, err)
	}

	sourceFile := filepath.Base(path)
	snapshotStr := snapshot.Format("2006-01-02")
	stats := &Stats{}
	for i := 0; i < table.Len(); i++ {
		rec := table.Record(i)
		customer := rec.Get("customer name")
		if customer == "" {
			stats.Skipped++
			continue
		}

		distChannel := excel.Str(rec.Get("distribution channel"))
		custGroup := excel.Str(rec.Get("customer group"))
		salesman := excel.Str(rec.Get("salesman name"))
		totalTarget := excel.Float(rec.Get("total target"))
		totalRealization := excel.Float(rec.Get("total realization"))

		// Hash over the business fields only: bucket values shift with
		// report formatting, the business content is what matters.
		rowHash := excel.RowHash(domain.Payload{
			"customer_name":     customer,
			"dist_channel":      deref(distChannel),
			"cust_group":        deref(custGroup),
			"salesman_name":     deref(salesman),
			"total_target":      floatKey(totalTarget),
			"total_realization": floatKey(totalRealization),
			"snapshot_date":     snapshotStr,
		})

		record := map[string]interface{}{
			"dist_channel":         distChannel,
			"cust_group":           custGroup,
			"salesman_name":        salesman,
			"customer_name":        customer,
			"currency":             excel.Str(rec.Get("currency")),
			"target_1_30":          excel.Float(rec.Get("target 1-30 days")),
			"target_31_60":         excel.Float(rec.Get("target 31-60 days")),
			"target_61_90":         excel.Float(rec.Get("target 61 - 90 days")),
			"target_91_120":        excel.Float(rec.Get("target 91 - 120 days")),
			"target_121_180":       excel.Float(rec.Get("target 121 - 180 days")),
			"target_over_180":      excel.Float(rec.Get("target > 180 days")),
			"total_target":         totalTarget,
			"realization_not_due":  excel.Float(rec.Get("realization not due")),
			"realization_1_30":     excel.Float(rec.Get("realization 1 - 30 days")),
			"realization_31_60":    excel.Float(rec.Get("realization 31 - 60 days")),
			"realization_61_90":    excel.Float(rec.Get("realization 61 - 90 days")),
			"realization_91_120":   excel.Float(rec.Get("realization 91 - 120 days")),
			"realization_121_180":  excel.Float(rec.Get("realization 121 - 180 days")),
			"realization_over_180": excel.Float(rec.Get("realization > 180 days")),
			"total_realization":    totalRealization,
			"snapshot_date":        snapshot,
			"source_file":          sourceFile,
			"source_row":           rec.SourceRow(),
			"loaded_at":            time.Now(),
			"raw_data":             rec.Payload(),
			"row_hash":             rowHash,
		}
		key := map[string]interface{}{
			"customer_name": customer,
			"dist_channel":  distChannel,
			"cust_group":    custGroup,
			"salesman_name": salesman,
			"snapshot_date": snapshot,
		}
		writeRow(ctx, l.store, "raw_zrfi005", key, record, rowHash, opts, stats)
	}

	log.Info().Str("file", sourceFile).Str("snapshot", snapshotStr).Int("rows", stats.Total()).
		Int("loaded", stats.Loaded).Int("updated", stats.Updated).Int("skipped", stats.Skipped).
		Msg("zrfi005 load finished")
	return stats, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatKey(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.4f", *f)
}
