package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/telecasthq/telecast/pkg/dispatch"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/fingerprint"
	"github.com/telecasthq/telecast/pkg/mediaitems"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/telecasthq/telecast/pkg/walker"
)

var extensionsToScan = map[string]struct{}{
	".avi": {},
	".m4v": {},
	".mkv": {},
	".mov": {},
	".mp3": {},
	".mp4": {},
	".ts":  {},
}

// Include is the inclusion predicate shared by the walker, the fingerprint,
// and the sweep: extension allow-list minus the reserved hidden marker.
func Include(name string) bool {
	if walker.IsHidden(name) {
		return false
	}
	_, ok := extensionsToScan[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ItemPipeline is the per-file collaborator. A failure from any step is a
// file-level failure; later steps aren't called for that file.
type ItemPipeline interface {
	GetOrAdd(ctx context.Context, libraryPathID int, path string) (*models.MediaItem, bool, error)
	RefreshStatistics(ctx context.Context, item *models.MediaItem) error
	RefreshMetadata(ctx context.Context, item *models.MediaItem) (bool, error)
	Finalize(ctx context.Context, item *models.MediaItem) error
}

// Result is the outcome of one reconciliation pass over a library path.
// Canceled is a clean stop, not an error; per-item failures are surfaced as a
// count, not as operation failure.
type Result struct {
	Canceled       bool
	FoldersScanned int
	FoldersSkipped int
	ItemsAdded     int
	ItemsUpdated   int
	ItemsMissing   int
	ItemsRemoved   int
	ItemErrors     int
}

// Engine reconciles the catalog against the folders physically present under
// a library path, skipping folders whose content fingerprint hasn't changed
// since the last fully successful pass.
type Engine struct {
	folderService *FolderService
	itemService   *mediaitems.Service
	pipeline      ItemPipeline
	dispatcher    dispatch.Dispatcher
	faults        FaultReporter
}

func NewEngine(folderService *FolderService, itemService *mediaitems.Service, pipeline ItemPipeline, dispatcher dispatch.Dispatcher, faults FaultReporter) *Engine {
	return &Engine{
		folderService: folderService,
		itemService:   itemService,
		pipeline:      pipeline,
		dispatcher:    dispatcher,
		faults:        faults,
	}
}

func (e *Engine) Reconcile(ctx context.Context, libraryPath *models.LibraryPath) (*Result, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"library_path_id": libraryPath.ID, "library_path": libraryPath.Filepath})
	log.Info("reconciling library path")

	result := &Result{}
	w := walker.New(libraryPath.Filepath, Include)
	completed := 0

	for {
		visit, err := w.Next(ctx)
		if errors.Is(err, walker.ErrDone) {
			break
		}
		if err != nil {
			log.Info("reconciliation canceled")
			result.Canceled = true
			return result, nil
		}

		err = e.reconcileFolder(ctx, libraryPath, visit, result)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		completed++
		percent := completed * 100 / (completed + w.Remaining())
		e.publish(ctx, dispatch.ProgressUpdate{
			LibraryPathID: libraryPath.ID,
			Percent:       &percent,
		})
	}

	err := e.sweep(ctx, libraryPath, result)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if result.Canceled {
		log.Info("reconciliation canceled")
		return result, nil
	}

	log.Info("finished reconciling library path", logger.Data{
		"folders_scanned": result.FoldersScanned,
		"folders_skipped": result.FoldersSkipped,
		"items_added":     result.ItemsAdded,
		"items_updated":   result.ItemsUpdated,
		"item_errors":     result.ItemErrors,
	})
	return result, nil
}

func (e *Engine) reconcileFolder(ctx context.Context, libraryPath *models.LibraryPath, visit *walker.FolderVisit, result *Result) error {
	log := logger.FromContext(ctx).Data(logger.Data{"folder": visit.Path})

	record, err := e.folderService.RetrieveFolder(ctx, libraryPath.ID, visit.Path)
	if err != nil && !errors.Is(err, errcodes.NotFound("Library folder")) {
		return errors.WithStack(err)
	}

	etag, err := fingerprint.Compute(visit.Path, Include)
	if err != nil {
		// The folder vanished between discovery and fingerprinting; the
		// sweep garbage-collects its record.
		log.Warn("folder fingerprint failed", logger.Data{"err": err.Error()})
		return nil
	}

	// An etag is only ever committed after a clean pass, so a match means
	// nothing under this folder changed since then.
	if record != nil && record.Etag == etag {
		result.FoldersSkipped++
		return nil
	}

	folderFailed := false
	for _, name := range visit.Files {
		path := filepath.Join(visit.Path, name)
		itemID, added, updated, err := e.processFile(ctx, libraryPath.ID, path)
		if err != nil {
			log.Err(err).Error("item processing failed", logger.Data{"path": path})
			result.ItemErrors++
			folderFailed = true
			continue
		}
		if added {
			result.ItemsAdded++
			e.publish(ctx, dispatch.ProgressUpdate{
				LibraryPathID: libraryPath.ID,
				AddedItemIDs:  []int{itemID},
			})
		} else if updated {
			result.ItemsUpdated++
			e.publish(ctx, dispatch.ProgressUpdate{
				LibraryPathID:  libraryPath.ID,
				UpdatedItemIDs: []int{itemID},
			})
		}
	}

	// Commit the new etag only after a fully clean pass; otherwise keep the
	// old one so the whole folder is retried next time.
	folder := &models.LibraryFolder{
		LibraryPathID:     libraryPath.ID,
		Path:              visit.Path,
		LastScanSucceeded: !folderFailed,
	}
	if record != nil {
		folder.ID = record.ID
		folder.CreatedAt = record.CreatedAt
		folder.Etag = record.Etag
	}
	if !folderFailed {
		folder.Etag = etag
	}
	err = e.folderService.UpsertFolder(ctx, folder)
	if err != nil {
		return errors.WithStack(err)
	}

	result.FoldersScanned++
	return nil
}

// processFile runs the item pipeline for one file. Panics are recovered,
// reported, and converted into an item failure so the folder keeps going.
func (e *Engine) processFile(ctx context.Context, libraryPathID int, path string) (itemID int, added bool, updated bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			fault := errors.Errorf("panic while processing %s: %v", path, r)
			e.faults.Notify(fault)
			err = fault
		}
	}()

	item, created, err := e.pipeline.GetOrAdd(ctx, libraryPathID, path)
	if err != nil {
		return 0, false, false, errors.WithStack(err)
	}
	wasMissing := item.State == models.ItemStateMissing

	err = e.pipeline.RefreshStatistics(ctx, item)
	if err != nil {
		return 0, false, false, errors.WithStack(err)
	}

	changed, err := e.pipeline.RefreshMetadata(ctx, item)
	if err != nil {
		return 0, false, false, errors.WithStack(err)
	}

	err = e.pipeline.Finalize(ctx, item)
	if err != nil {
		return 0, false, false, errors.WithStack(err)
	}

	return item.ID, created, !created && (changed || wasMissing), nil
}

// sweep reconciles the catalog against what's actually on disk: items whose
// file is gone are flagged missing, hidden-marker files are purged outright,
// and folder records whose folder no longer exists are garbage-collected.
func (e *Engine) sweep(ctx context.Context, libraryPath *models.LibraryPath, result *Result) error {
	log := logger.FromContext(ctx).Data(logger.Data{"library_path_id": libraryPath.ID})

	items, err := e.itemService.ListItems(ctx, mediaitems.ListItemsOptions{
		LibraryPathID: &libraryPath.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	for _, item := range items {
		if ctx.Err() != nil {
			result.Canceled = true
			return nil
		}

		_, statErr := os.Stat(item.Filepath)
		switch {
		case statErr != nil && os.IsNotExist(statErr):
			if item.State == models.ItemStateMissing {
				continue
			}
			log.Info("flagging missing item", logger.Data{"item_id": item.ID, "path": item.Filepath})
			item.State = models.ItemStateMissing
			err := e.itemService.UpdateItem(ctx, item, mediaitems.UpdateItemOptions{
				Columns: []string{"state"},
			})
			if err != nil {
				return errors.WithStack(err)
			}
			result.ItemsMissing++
			e.publish(ctx, dispatch.ProgressUpdate{
				LibraryPathID:  libraryPath.ID,
				UpdatedItemIDs: []int{item.ID},
			})
		case statErr == nil && walker.IsHidden(filepath.Base(item.Filepath)):
			log.Info("removing hidden item", logger.Data{"item_id": item.ID, "path": item.Filepath})
			err := e.itemService.DeleteItem(ctx, item)
			if err != nil {
				return errors.WithStack(err)
			}
			result.ItemsRemoved++
			e.publish(ctx, dispatch.ProgressUpdate{
				LibraryPathID:  libraryPath.ID,
				RemovedItemIDs: []int{item.ID},
			})
		}
	}

	// Garbage-collect stale folder records.
	folders, err := e.folderService.ListFolders(ctx, libraryPath.ID)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, folder := range folders {
		if ctx.Err() != nil {
			result.Canceled = true
			return nil
		}
		info, statErr := os.Stat(folder.Path)
		if statErr == nil && info.IsDir() && !walker.IsHidden(filepath.Base(folder.Path)) {
			continue
		}
		err := e.folderService.DeleteFolder(ctx, folder)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

// publish delivers fire-and-forget; a failed delivery never aborts the pass.
func (e *Engine) publish(ctx context.Context, update dispatch.ProgressUpdate) {
	err := e.dispatcher.Progress(ctx, update)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("progress dispatch failed")
	}
}
