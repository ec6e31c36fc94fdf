package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/telecasthq/telecast/pkg/channels"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/telecasthq/telecast/pkg/sched"
)

// rebuildHorizonDays is how far ahead placeholder playout blocks get laid
// down when a channel's timeline is rebuilt.
const rebuildHorizonDays = 7

// ProcessRebuildPlayoutJob regenerates a channel's playout timeline after its
// schedule set changed. Blocks are one placeholder item per day using the
// schedule that day resolves to; a refresh keeps history and replaces from
// now forward, a full rebuild replaces everything.
func (w *Worker) ProcessRebuildPlayoutJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)

	data, ok := job.DataParsed.(*models.JobRebuildPlayoutData)
	if !ok {
		return errors.New("rebuild playout job has unexpected data")
	}
	jobLog := w.jobLogService.NewJobLogger(ctx, job.ID, log)
	jobLog.Info("processing rebuild playout job", logger.Data{"channel_id": data.ChannelID, "mode": data.Mode})

	channel, err := w.channelService.RetrieveChannel(ctx, channels.RetrieveChannelOptions{
		ID: &data.ChannelID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	now := time.Now()
	var from *time.Time
	if data.Mode == models.RebuildModeRefresh {
		from = &now
	}

	err = w.playoutService.DeleteItems(ctx, channel.ID, from)
	if err != nil {
		return errors.WithStack(err)
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	items := make([]*models.PlayoutItem, 0, rebuildHorizonDays)
	for i := 0; i < rebuildHorizonDays; i++ {
		next := day.AddDate(0, 0, 1)
		start := day
		if start.Before(now) && data.Mode == models.RebuildModeRefresh {
			start = now
		}

		items = append(items, &models.PlayoutItem{
			ChannelID:  channel.ID,
			ScheduleID: sched.Resolve(channel.DefaultScheduleID, channel.Alternates, day),
			Title:      fmt.Sprintf("Scheduled block %s", day.Format("2006-01-02")),
			StartAt:    start,
			FinishAt:   next,
		})

		day = next
	}

	err = w.playoutService.CreateItems(ctx, items)
	if err != nil {
		return errors.WithStack(err)
	}

	jobLog.Info("finished rebuild playout job", logger.Data{"items": len(items)})
	return nil
}
