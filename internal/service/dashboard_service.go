// warehouse-go/internal/service/dashboard_service.go
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/cache"
	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/repository/postgres"
)

// DashboardService serves the read endpoints, with the lead-time
// summary cached in front of the aggregate query.
type DashboardService struct {
	repo  *postgres.DashboardRepo
	cache cache.LeadTimeSummaryCache
}

func NewDashboardService(repo *postgres.DashboardRepo, c cache.LeadTimeSummaryCache) *DashboardService {
	if c == nil {
		c = cache.NewNoopLeadTimeCache()
	}
	return &DashboardService{repo: repo, cache: c}
}

// LeadTimeSummary returns the per-type/channel lead-time rollup,
// cache-first.
func (s *DashboardService) LeadTimeSummary(ctx context.Context) ([]domain.LeadTimeSummary, error) {
	if cached, hit, err := s.cache.GetSummary(ctx); err != nil {
		log.Warn().Err(err).Msg("lead time cache read failed")
	} else if hit {
		return cached, nil
	}

	summary, err := s.repo.LeadTimeSummary(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("lead time cache write failed")
	}
	return summary, nil
}

// InvalidateCaches drops cached dashboard responses; called after
// transforms rewrite the facts.
func (s *DashboardService) InvalidateCaches(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard cache invalidation failed")
	}
}

// ARAgingSummary rolls up one snapshot per channel. A zero snapshot
// resolves to the latest one on file.
func (s *DashboardService) ARAgingSummary(ctx context.Context, snapshot time.Time) ([]domain.ARAgingSummary, *time.Time, error) {
	if snapshot.IsZero() {
		latest, err := s.repo.LatestARSnapshot(ctx)
		if err != nil {
			return nil, nil, err
		}
		if latest == nil {
			return nil, nil, nil
		}
		snapshot = *latest
	}
	rows, err := s.repo.ARAgingSummary(ctx, snapshot)
	if err != nil {
		return nil, nil, err
	}
	return rows, &snapshot, nil
}

// ARSnapshots lists the available snapshot dates.
func (s *DashboardService) ARSnapshots(ctx context.Context) ([]time.Time, error) {
	return s.repo.ListARSnapshots(ctx)
}

// Alerts pages the alert feed.
func (s *DashboardService) Alerts(ctx context.Context, status string, page, pageSize int) (*domain.AlertPage, error) {
	return s.repo.ListAlerts(ctx, status, page, pageSize)
}

// ResolveAlert closes one active alert; false when nothing matched.
func (s *DashboardService) ResolveAlert(ctx context.Context, id int64) (bool, error) {
	return s.repo.ResolveAlert(ctx, id)
}
