// Package loader stages SAP workbook exports into the raw_* tables.
// Each loader owns one export's header mapping, business key and hash
// rule; write mechanics live in the postgres.RawStore.
package loader

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/repository/postgres"
)

// Mode selects the write strategy for a load run.
type Mode string

const (
	// ModeUpsert skips unchanged rows and updates changed ones by
	// business key. The default for re-uploaded exports.
	ModeUpsert Mode = "upsert"
	// ModeInsert appends every row without duplicate checks, for bulk
	// first loads into an empty table.
	ModeInsert Mode = "insert"
)

// Options tunes a single load run.
type Options struct {
	Mode Mode
	// SnapshotDate stamps AR aging rows; required for ZRFI005.
	SnapshotDate *time.Time
}

// Stats counts per-row outcomes of one load run.
type Stats struct {
	Loaded  int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of rows attempted.
func (s Stats) Total() int {
	return s.Loaded + s.Updated + s.Skipped + s.Failed
}

// Loader stages one export type into its raw table.
type Loader interface {
	FileType() domain.FileType
	Load(ctx context.Context, path string, opts Options) (*Stats, error)
}

// Registry maps file types to their loaders.
type Registry struct {
	loaders map[domain.FileType]Loader
}

// NewRegistry wires every loader against the given store.
func NewRegistry(store *postgres.RawStore) *Registry {
	r := &Registry{loaders: make(map[domain.FileType]Loader)}
	for _, l := range []Loader{
		NewCooispiLoader(store),
		NewMb51Loader(store),
		NewZrmm024Loader(store),
		NewZrsd002Loader(store),
		NewZrsd004Loader(store),
		NewZrsd006Loader(store),
		NewZrfi005Loader(store),
		NewTargetLoader(store),
		NewZrpp062Loader(store),
	} {
		r.loaders[l.FileType()] = l
	}
	return r
}

// For returns the loader for a file type.
func (r *Registry) For(ft domain.FileType) (Loader, bool) {
	l, ok := r.loaders[ft]
	return l, ok
}

// writeRow routes one record through the store per the chosen mode and
// folds the outcome into the stats.
func writeRow(ctx context.Context, store *postgres.RawStore, table string, key, record map[string]interface{}, rowHash string, opts Options, stats *Stats) {
	if opts.Mode == ModeInsert {
		if err := store.Insert(ctx, table, record); err != nil {
			log.Warn().Err(err).Str("table", table).Msg("row insert failed")
			stats.Failed++
			return
		}
		stats.Loaded++
		return
	}

	outcome, err := store.Upsert(ctx, table, key, record, rowHash)
	if err != nil {
		log.Warn().Err(err).Str("table", table).Msg("row upsert failed")
		stats.Failed++
		return
	}
	switch outcome {
	case postgres.OutcomeInserted:
		stats.Loaded++
	case postgres.OutcomeUpdated:
		stats.Updated++
	case postgres.OutcomeSkipped:
		stats.Skipped++
	}
}
