// warehouse-go/internal/service/upload_service.go
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/config"
	"github.com/alkana/warehouse-go/internal/domain"
	"github.com/alkana/warehouse-go/internal/etl/excel"
	"github.com/alkana/warehouse-go/internal/etl/loader"
	"github.com/alkana/warehouse-go/internal/etl/transform"
	"github.com/alkana/warehouse-go/internal/repository/postgres"
	"github.com/alkana/warehouse-go/internal/storage"
)

// ErrDuplicateUpload is returned when the same file content was already
// uploaded and not failed.
var ErrDuplicateUpload = errors.New("file already uploaded")

// UploadService receives workbooks, detects their type, stages them and
// kicks off the downstream transforms.
type UploadService struct {
	cfg     *config.Config
	uploads *postgres.UploadRepo
	loaders *loader.Registry
	tf      *transform.Transformer
	archive storage.ObjectStorage // nil disables archiving

	// invalidate drops cached dashboard reads after the facts change.
	invalidate func(context.Context)
}

func NewUploadService(cfg *config.Config, uploads *postgres.UploadRepo, loaders *loader.Registry, tf *transform.Transformer, archive storage.ObjectStorage) *UploadService {
	return &UploadService{
		cfg:     cfg,
		uploads: uploads,
		loaders: loaders,
		tf:      tf,
		archive: archive,
	}
}

// SetCacheInvalidator registers a hook run after each successful
// transform pass.
func (s *UploadService) SetCacheInvalidator(fn func(context.Context)) {
	s.invalidate = fn
}

// Receive saves an uploaded workbook, validates it and records the run.
// Processing happens in the background; the returned run is in pending
// state and can be polled by id.
func (s *UploadService) Receive(ctx context.Context, file *multipart.FileHeader, snapshotDate *time.Time, uploadedBy string) (*domain.UploadRun, error) {
	if file.Size > int64(s.cfg.App.MaxUploadMB)*1024*1024 {
		return nil, fmt.Errorf("file %s exceeds the %dMB upload limit", file.Filename, s.cfg.App.MaxUploadMB)
	}

	diskName := uuid.NewString() + filepath.Ext(file.Filename)
	destPath := filepath.Join(s.cfg.App.UploadDir, diskName)
	fileHash, err := saveUpload(file, destPath)
	if err != nil {
		return nil, err
	}

	fileType, err := excel.Detect(destPath)
	if err != nil {
		os.Remove(destPath)
		return nil, err
	}
	if fileType == domain.FileTypeZrfi005 && snapshotDate == nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("%s uploads require a snapshot date", domain.FileTypeZrfi005)
	}
	if fileType != domain.FileTypeZrfi005 {
		snapshotDate = nil
	}

	existing, err := s.uploads.FindActiveByHash(ctx, fileHash, snapshotDate)
	if err != nil {
		os.Remove(destPath)
		return nil, err
	}
	if existing != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("%w: %s (upload #%d, %s)",
			ErrDuplicateUpload, existing.OriginalName, existing.ID, existing.Status)
	}

	run := &domain.UploadRun{
		FileName:     diskName,
		OriginalName: file.Filename,
		FileType:     fileType,
		FileSize:     file.Size,
		FileHash:     fileHash,
		Status:       domain.UploadStatusPending,
		UploadedAt:   time.Now(),
		SnapshotDate: snapshotDate,
	}
	if uploadedBy != "" {
		run.UploadedBy = &uploadedBy
	}
	if err := s.uploads.Create(ctx, run); err != nil {
		os.Remove(destPath)
		return nil, err
	}

	go s.process(run.ID, destPath, fileType, snapshotDate)
	return run, nil
}

// process runs load + transforms for one upload. Detached from the
// request: failures land in upload_history, not in an HTTP response.
func (s *UploadService) process(runID int64, path string, fileType domain.FileType, snapshotDate *time.Time) {
	ctx := context.Background()
	logger := log.With().Int64("upload_id", runID).Str("file_type", string(fileType)).Logger()

	if err := s.uploads.MarkProcessing(ctx, runID); err != nil {
		logger.Error().Err(err).Msg("could not mark upload processing")
		return
	}

	l, ok := s.loaders.For(fileType)
	if !ok {
		s.fail(ctx, runID, fmt.Sprintf("no loader for file type %s", fileType))
		return
	}

	stats, err := l.Load(ctx, path, loader.Options{
		Mode:         loader.ModeUpsert,
		SnapshotDate: snapshotDate,
	})
	if err != nil {
		s.fail(ctx, runID, err.Error())
		return
	}

	if err := s.runTransforms(ctx, fileType); err != nil {
		s.fail(ctx, runID, fmt.Sprintf("transform failed: %v", err))
		return
	}
	if s.invalidate != nil {
		s.invalidate(ctx)
	}

	if err := s.uploads.MarkCompleted(ctx, runID, stats.Loaded, stats.Updated, stats.Skipped, stats.Failed); err != nil {
		logger.Error().Err(err).Msg("could not mark upload completed")
		return
	}
	logger.Info().Int("loaded", stats.Loaded).Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).Int("failed", stats.Failed).Msg("upload processed")

	s.archiveFile(ctx, path, fileType)
}

// runTransforms refreshes the facts affected by one file type. Lead
// times and alerts depend on production, movements, purchases, billing
// and the channel master, so those sources trigger a recompute.
func (s *UploadService) runTransforms(ctx context.Context, fileType domain.FileType) error {
	switch fileType {
	case domain.FileTypeCooispi:
		if err := s.tf.TransformProduction(ctx); err != nil {
			return err
		}
		return s.recomputeDerived(ctx)
	case domain.FileTypeMb51:
		if err := s.tf.TransformInventory(ctx); err != nil {
			return err
		}
		if err := s.tf.RefreshMaterialDims(ctx); err != nil {
			return err
		}
		return s.recomputeDerived(ctx)
	case domain.FileTypeZrmm024:
		if err := s.tf.TransformPurchaseOrders(ctx); err != nil {
			return err
		}
		return s.tf.TransformLeadTimes(ctx)
	case domain.FileTypeZrsd002:
		if err := s.tf.RefreshUOMConversions(ctx); err != nil {
			return err
		}
		if err := s.tf.TransformBilling(ctx); err != nil {
			return err
		}
		return s.tf.TransformLeadTimes(ctx)
	case domain.FileTypeZrsd004:
		return s.tf.TransformDeliveries(ctx)
	case domain.FileTypeZrsd006:
		if err := s.tf.RefreshMaterialDims(ctx); err != nil {
			return err
		}
		return s.tf.TransformLeadTimes(ctx)
	case domain.FileTypeZrfi005:
		return s.tf.TransformARAging(ctx)
	case domain.FileTypeTarget:
		return s.tf.TransformTargets(ctx)
	case domain.FileTypeZrpp062:
		now := time.Now()
		return s.tf.TransformPerformance(ctx, now.Month(), now.Year())
	default:
		return fmt.Errorf("no transform routing for file type %s", fileType)
	}
}

func (s *UploadService) recomputeDerived(ctx context.Context) error {
	if err := s.tf.TransformLeadTimes(ctx); err != nil {
		return err
	}
	return s.tf.DetectAlerts(ctx, s.cfg.Alerts.StuckThresholdHours)
}

func (s *UploadService) fail(ctx context.Context, runID int64, reason string) {
	log.Error().Int64("upload_id", runID).Str("reason", reason).Msg("upload processing failed")
	if err := s.uploads.MarkFailed(ctx, runID, reason); err != nil {
		log.Error().Err(err).Int64("upload_id", runID).Msg("could not mark upload failed")
	}
}

// archiveFile pushes the processed workbook to the archive bucket.
// Best effort: the warehouse is already updated, a miss only loses the
// offsite copy.
func (s *UploadService) archiveFile(ctx context.Context, path string, fileType domain.FileType) {
	if s.archive == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not read upload for archiving")
		return
	}
	key := fmt.Sprintf("uploads/%s/%s/%s",
		fileType, time.Now().Format("2006-01"), filepath.Base(path))
	if err := s.archive.UploadObject(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("upload archive failed")
	}
}

// GetUpload returns one upload run by id.
func (s *UploadService) GetUpload(ctx context.Context, id int64) (*domain.UploadRun, error) {
	return s.uploads.GetByID(ctx, id)
}

// History lists recent uploads.
func (s *UploadService) History(ctx context.Context, limit int) ([]domain.UploadRun, error) {
	return s.uploads.List(ctx, limit)
}

// CleanupOldUploads prunes finished upload records past the retention
// window and unlinks their files.
func (s *UploadService) CleanupOldUploads(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-time.Duration(s.cfg.App.UploadMaxAgeHours) * time.Hour)
	names, err := s.uploads.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	for _, name := range names {
		path := filepath.Join(s.cfg.App.UploadDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("could not remove expired upload")
		}
	}
	if len(names) > 0 {
		log.Info().Int("removed", len(names)).Msg("expired uploads cleaned up")
	}
	return len(names), nil
}

// saveUpload streams the multipart file to disk, hashing as it copies.
func saveUpload(file *multipart.FileHeader, destPath string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", file.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}
	defer dst.Close()

	hasher := md5.New()
	if _, err := io.Copy(io.MultiWriter(dst, hasher), src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("save upload %s: %w", file.Filename, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
