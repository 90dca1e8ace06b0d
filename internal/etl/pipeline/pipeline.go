// Package pipeline runs bulk workbook loads with a bounded worker pool.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/excel"
	"github.com/alkana/warehouse-go/internal/etl/loader"
)

// Config controls a bulk load run.
type Config struct {
	// WorkerCount is the number of workbooks loaded concurrently.
	WorkerCount int
	// Mode is passed through to every loader.
	Mode loader.Mode
	// SnapshotDate is applied to AR aging workbooks in the batch.
	SnapshotDate *time.Time
}

// FileResult records the outcome of loading one workbook.
type FileResult struct {
	Path     string
	FileType domain.FileType
	Stats    *loader.Stats
	Err      error
	Duration time.Duration
}

// Runner fans a set of workbook paths out over a worker pool, detecting
// each file's export type and feeding it through the matching loader.
type Runner struct {
	loaders *loader.Registry
	cfg     Config
}

func NewRunner(loaders *loader.Registry, cfg Config) *Runner {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.Mode == "" {
		cfg.Mode = loader.ModeUpsert
	}
	return &Runner{loaders: loaders, cfg: cfg}
}

// Run loads every workbook and returns one result per path. The batch
// keeps going past individual file failures; the returned error is
// non-nil only when the context is cancelled.
func (r *Runner) Run(ctx context.Context, paths []string) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	jobChan := make(chan string, len(paths))
	results := make([]FileResult, 0, len(paths))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < r.cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for path := range jobChan {
				res := r.loadOne(ctx, path)
				if res.Err != nil {
					log.Error().Err(res.Err).Int("worker", workerID).Str("path", path).Msg("workbook load failed")
				} else {
					log.Info().
						Int("worker", workerID).
						Str("path", path).
						Str("type", string(res.FileType)).
						Dur("took", res.Duration).
						Int("rows", res.Stats.Total()).
						Msg("workbook loaded")
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}(i)
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			close(jobChan)
			wg.Wait()
			return results, ctx.Err()
		case jobChan <- path:
		}
	}
	close(jobChan)
	wg.Wait()

	return results, nil
}

func (r *Runner) loadOne(ctx context.Context, path string) FileResult {
	start := time.Now()
	res := FileResult{Path: path}

	ft, err := excel.Detect(path)
	if err != nil {
		res.Err = fmt.Errorf("type detection failed: %w", err)
		res.Duration = time.Since(start)
		return res
	}
	res.FileType = ft

	l, ok := r.loaders.For(ft)
	if !ok {
		res.Err = fmt.Errorf("no loader registered for %s", ft)
		res.Duration = time.Since(start)
		return res
	}

	opts := loader.Options{Mode: r.cfg.Mode}
	if ft == domain.FileTypeZrfi005 {
		if r.cfg.SnapshotDate == nil {
			res.Err = fmt.Errorf("AR aging workbook needs a snapshot date")
			res.Duration = time.Since(start)
			return res
		}
		opts.SnapshotDate = r.cfg.SnapshotDate
	}

	stats, err := l.Load(ctx, path, opts)
	res.Stats = stats
	res.Err = err
	res.Duration = time.Since(start)
	return res
}

// Failed counts the results that ended in an error.
func Failed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
