package mediaitems

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
)

// Pipeline is the default per-file ingestion pipeline backed by the catalog
// service. Each step mutates the item and persists only its own columns, so a
// failing step leaves earlier steps' work committed.
type Pipeline struct {
	itemService *Service
}

func NewPipeline(itemService *Service) *Pipeline {
	return &Pipeline{itemService: itemService}
}

// GetOrAdd fetches the catalog entry for path, creating one with fallback
// metadata on first sighting. The second return reports whether the entry was
// created by this call.
func (p *Pipeline) GetOrAdd(ctx context.Context, libraryPathID int, path string) (*models.MediaItem, bool, error) {
	item, err := p.itemService.RetrieveItem(ctx, RetrieveItemOptions{
		Filepath:      &path,
		LibraryPathID: &libraryPathID,
	})
	if err == nil {
		return item, false, nil
	}
	if !errors.Is(err, errcodes.NotFound("Media item")) {
		return nil, false, errors.WithStack(err)
	}

	item = &models.MediaItem{
		LibraryPathID:  libraryPathID,
		Filepath:       path,
		Title:          titleFromFilename(path),
		MetadataSource: pointerutil.String(models.MetadataSourceFallback),
	}
	err = p.itemService.CreateItem(ctx, item)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	return item, true, nil
}

// RefreshStatistics re-reads cheap file statistics.
func (p *Pipeline) RefreshStatistics(ctx context.Context, item *models.MediaItem) error {
	info, err := os.Stat(item.Filepath)
	if err != nil {
		return errors.WithStack(err)
	}

	if item.FilesizeBytes == info.Size() {
		return nil
	}
	item.FilesizeBytes = info.Size()
	return errors.WithStack(p.itemService.UpdateItem(ctx, item, UpdateItemOptions{
		Columns: []string{"filesize_bytes"},
	}))
}

// RefreshMetadata probes the file only when there's no metadata yet, the
// existing metadata is a fallback placeholder, or the source file changed
// since the last probe. Returns whether anything was refreshed.
func (p *Pipeline) RefreshMetadata(ctx context.Context, item *models.MediaItem) (bool, error) {
	info, err := os.Stat(item.Filepath)
	if err != nil {
		return false, errors.WithStack(err)
	}
	modTime := info.ModTime()

	needsRefresh := item.MetadataUpdatedAt == nil ||
		(item.MetadataSource != nil && *item.MetadataSource == models.MetadataSourceFallback) ||
		!item.MetadataUpdatedAt.Equal(modTime)
	if !needsRefresh {
		return false, nil
	}

	mtype, err := mimetype.DetectFile(item.Filepath)
	if err != nil {
		logger.FromContext(ctx).Warn("can't detect mime type", logger.Data{"path": item.Filepath, "err": err.Error()})
	} else {
		item.MimeType = pointerutil.String(mtype.String())
	}

	item.Title = titleFromFilename(item.Filepath)
	item.MetadataSource = pointerutil.String(models.MetadataSourceProbe)
	item.MetadataUpdatedAt = &modTime

	err = p.itemService.UpdateItem(ctx, item, UpdateItemOptions{
		Columns: []string{"title", "mime_type", "metadata_source", "metadata_updated_at"},
	})
	if err != nil {
		return false, errors.WithStack(err)
	}

	return true, nil
}

// Finalize reactivates items that had been flagged missing.
func (p *Pipeline) Finalize(ctx context.Context, item *models.MediaItem) error {
	if item.State == models.ItemStateActive {
		return nil
	}

	item.State = models.ItemStateActive
	return errors.WithStack(p.itemService.UpdateItem(ctx, item, UpdateItemOptions{
		Columns: []string{"state"},
	}))
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.ReplaceAll(title, ".", " ")
	title = strings.ReplaceAll(title, "_", " ")
	return strings.TrimSpace(title)
}
