package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// SyncOptions controls how workbooks are pulled from Google Drive.
type SyncOptions struct {
	// FolderPath is a "/"-separated folder path relative to the Drive
	// root; takes precedence over FolderID when both are set.
	FolderPath  string
	FolderID    string
	DownloadDir string
}

// Syncer downloads SAP export workbooks from a Drive folder so they can
// be fed through the loaders.
type Syncer struct {
	service *Service
}

func NewSyncer(s *Service) *Syncer {
	return &Syncer{service: s}
}

// SyncFolder downloads every xlsx workbook in the folder into
// DownloadDir and returns the local paths. Native Google Sheets are
// exported as xlsx; anything else is skipped.
func (d *Syncer) SyncFolder(ctx context.Context, opts SyncOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	folderID := opts.FolderID
	if opts.FolderPath != "" {
		id, err := d.service.FindFolderByPath(opts.FolderPath)
		if err != nil {
			return nil, err
		}
		folderID = id
	}

	files, err := d.service.ListFiles(folderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		isXLSX := strings.EqualFold(filepath.Ext(f.Name), ".xlsx")
		if !isXLSX && !f.IsSheet() {
			log.Debug().Str("file", f.Name).Str("mime", f.MimeType).Msg("skipping non-workbook drive file")
			continue
		}

		name := f.Name
		if !isXLSX {
			name += ".xlsx"
		}
		localPath := filepath.Join(opts.DownloadDir, name)

		if err := d.fetch(f, localPath); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		log.Info().Str("file", f.Name).Str("path", localPath).Msg("workbook downloaded from drive")
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

func (d *Syncer) fetch(f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer out.Close()

	if f.IsSheet() {
		return d.service.ExportSheet(f.ID, out)
	}
	return d.service.DownloadFile(f.ID, out)
}
