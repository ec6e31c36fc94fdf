package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/telecasthq/telecast/pkg/channels"
	"github.com/telecasthq/telecast/pkg/config"
	"github.com/telecasthq/telecast/pkg/joblogs"
	"github.com/telecasthq/telecast/pkg/jobs"
	"github.com/telecasthq/telecast/pkg/libraries"
	"github.com/telecasthq/telecast/pkg/mediaitems"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/telecasthq/telecast/pkg/playout"
	"github.com/telecasthq/telecast/pkg/scanner"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

type Worker struct {
	config *config.Config
	log    logger.Logger

	processFuncs map[string]func(ctx context.Context, job *models.Job) error

	channelService *channels.Service
	folderService  *scanner.FolderService
	itemService    *mediaitems.Service
	jobService     *jobs.Service
	jobLogService  *joblogs.Service
	libraryService *libraries.Service
	playoutService *playout.Service

	queue          chan *models.Job
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneScheduling chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, db *bun.DB) *Worker {
	w := &Worker{
		config: cfg,
		log:    logger.New(),

		channelService: channels.NewService(db),
		folderService:  scanner.NewFolderService(db),
		itemService:    mediaitems.NewService(db),
		jobService:     jobs.NewService(db),
		jobLogService:  joblogs.NewService(db),
		libraryService: libraries.NewService(db),
		playoutService: playout.NewService(db),

		queue:          make(chan *models.Job, cfg.WorkerProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneScheduling: make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.WorkerProcesses),
	}

	w.processFuncs = map[string]func(ctx context.Context, job *models.Job) error{
		models.JobTypeScan:           w.ProcessScanJob,
		models.JobTypeRebuildPlayout: w.ProcessRebuildPlayoutJob,
	}

	return w
}

func (w *Worker) Start() {
	go w.fetchJobs()
	go w.schedulePeriodicScans()
	for i := 0; i < w.config.WorkerProcesses; i++ {
		go w.processJobs()
	}
}

func (w *Worker) fetchJobs() {
	duration := 5 * time.Second
	timer := time.NewTimer(duration)

	for {
		select {
		case <-w.shutdown:
			// We're shutting down, so stop adding more jobs to the queue.
			w.doneFetching <- struct{}{}
			return
		case <-timer.C:
			j, err := w.jobService.ListJobs(context.Background(), jobs.ListJobsOptions{
				Limit:              pointerutil.Int(1),
				Statuses:           []string{models.JobStatusPending, models.JobStatusInProgress},
				ProcessIDToExclude: &processID,
			})
			if err != nil {
				w.log.Err(err).Error("list jobs error")
				timer.Reset(duration)
				continue
			}
			for _, job := range j {
				w.queue <- job
			}
			timer.Reset(duration)
		}
	}
}

// schedulePeriodicScans enqueues a scan job on the configured interval so
// filesystem changes get picked up without an explicit request. The enqueue
// is skipped while a scan is already pending or running.
func (w *Worker) schedulePeriodicScans() {
	if w.config.ScanIntervalMinutes <= 0 {
		w.doneScheduling <- struct{}{}
		return
	}

	duration := time.Duration(w.config.ScanIntervalMinutes) * time.Minute
	timer := time.NewTimer(duration)

	for {
		select {
		case <-w.shutdown:
			w.doneScheduling <- struct{}{}
			return
		case <-timer.C:
			ctx := context.Background()
			active, err := w.jobService.HasActiveJobByType(ctx, models.JobTypeScan)
			if err != nil {
				w.log.Err(err).Error("check active scan error")
			} else if !active {
				job := &models.Job{
					Type:       models.JobTypeScan,
					Status:     models.JobStatusPending,
					DataParsed: &models.JobScanData{},
				}
				if err := w.jobService.CreateJob(ctx, job); err != nil {
					w.log.Err(err).Error("enqueue periodic scan error")
				}
			}
			timer.Reset(duration)
		}
	}
}

func (w *Worker) processJobs() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case job := <-w.queue:
			// Prep the context to be passed down to the process function.
			id, err := uuid.NewRandom()
			if err != nil {
				w.log.Err(err).Error("new uuid error")
				continue
			}
			log := w.log.ID(id.String()).Root(logger.Data{"job_id": job.ID, "type": job.Type, "process_id": processID})
			ctx := log.WithContext(context.Background())

			// Update job to be in progress and claimed by this process.
			job.Status = models.JobStatusInProgress
			job.ProcessID = &processID

			err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
				Columns: []string{"status", "process_id"},
			})
			if err != nil {
				log.Err(err).Error("update job error")
				continue
			}

			// Find and invoke the appropriate process function.
			fn, ok := w.processFuncs[job.Type]
			if !ok {
				log.Error("can't find process function for type")
				continue
			}
			err = fn(ctx, job)
			if err != nil {
				jobLog := w.jobLogService.NewJobLogger(ctx, job.ID, log)
				jobLog.Fatal("process error", err, nil)
				job.Status = models.JobStatusFailed
				if err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
					Columns: []string{"status"},
				}); err != nil {
					log.Err(err).Error("update job error")
				}
				continue
			}

			// Update job to be completed so that it's not picked up anymore.
			job.Status = models.JobStatusCompleted

			err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
				Columns: []string{"status"},
			})
			if err != nil {
				log.Err(err).Error("update job error")
				continue
			}
		}
	}
}

func (w *Worker) Shutdown() {
	close(w.shutdown)

	<-w.doneFetching
	<-w.doneScheduling
	for i := 0; i < w.config.WorkerProcesses; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
