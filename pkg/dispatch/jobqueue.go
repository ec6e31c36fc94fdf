package dispatch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/jobs"
	"github.com/telecasthq/telecast/pkg/models"
)

// JobQueue publishes to the persisted job queue: progress lands on the
// operation's own job row, rebuild requests become pending rebuild_playout
// jobs for the playout worker to pick up.
type JobQueue struct {
	jobService *jobs.Service
	job        *models.Job
}

// NewJobQueue returns a dispatcher bound to the job row of the operation in
// flight. job may be nil for operations without a backing row (reschedules),
// in which case progress updates are dropped.
func NewJobQueue(jobService *jobs.Service, job *models.Job) *JobQueue {
	return &JobQueue{jobService: jobService, job: job}
}

func (q *JobQueue) Progress(ctx context.Context, update ProgressUpdate) error {
	if q.job == nil || update.Percent == nil {
		return nil
	}

	q.job.Progress = *update.Percent
	err := q.jobService.UpdateJob(ctx, q.job, jobs.UpdateJobOptions{
		Columns: []string{"progress"},
	})
	return errors.WithStack(err)
}

func (q *JobQueue) RequestRebuild(ctx context.Context, req RebuildRequest) error {
	exists, err := q.jobService.HasPendingRebuild(ctx, req.ChannelID)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return nil
	}

	job := &models.Job{
		Type:   models.JobTypeRebuildPlayout,
		Status: models.JobStatusPending,
		DataParsed: &models.JobRebuildPlayoutData{
			ChannelID: req.ChannelID,
			Mode:      req.Mode,
		},
	}
	return errors.WithStack(q.jobService.CreateJob(ctx, job))
}
