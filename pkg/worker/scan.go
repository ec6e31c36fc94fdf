package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/telecasthq/telecast/pkg/dispatch"
	"github.com/telecasthq/telecast/pkg/mediaitems"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/telecasthq/telecast/pkg/scanner"
)

func (w *Worker) ProcessScanJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)
	jobLog := w.jobLogService.NewJobLogger(ctx, job.ID, log)
	jobLog.Info("processing scan job", nil)

	paths, err := w.libraryService.ListLibraryPaths(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	jobLog.Info("processing library paths", logger.Data{"count": len(paths)})

	dispatcher := dispatch.NewJobQueue(w.jobService, job)
	pipeline := mediaitems.NewPipeline(w.itemService)
	engine := scanner.NewEngine(w.folderService, w.itemService, pipeline, dispatcher, &scanner.LogReporter{Log: log})

	for _, libraryPath := range paths {
		jobLog.Info("reconciling library path", logger.Data{"library_path_id": libraryPath.ID, "library_path": libraryPath.Filepath})

		result, err := engine.Reconcile(ctx, libraryPath)
		if err != nil {
			jobLog.Error("reconcile library path", err, logger.Data{"library_path_id": libraryPath.ID})
			return errors.WithStack(err)
		}
		if result.Canceled {
			jobLog.Warn("scan canceled", nil)
			return nil
		}

		jobLog.Info("finished library path", logger.Data{
			"library_path_id": libraryPath.ID,
			"folders_scanned": result.FoldersScanned,
			"folders_skipped": result.FoldersSkipped,
			"items_added":     result.ItemsAdded,
			"items_updated":   result.ItemsUpdated,
			"items_missing":   result.ItemsMissing,
			"items_removed":   result.ItemsRemoved,
			"item_errors":     result.ItemErrors,
		})
	}

	jobLog.Info("finished scan job", nil)
	return nil
}
