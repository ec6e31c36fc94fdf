package joblogs

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecasthq/telecast/pkg/jobs"
	"github.com/telecasthq/telecast/pkg/migrations"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func seedJob(t *testing.T, db *bun.DB) *models.Job {
	t.Helper()

	job := &models.Job{
		Type:       models.JobTypeScan,
		Status:     models.JobStatusPending,
		DataParsed: &models.JobScanData{},
	}
	require.NoError(t, jobs.NewService(db).CreateJob(context.Background(), job))
	return job
}

func TestListJobLogs_OrderedByID(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	job := seedJob(t, db)

	for _, msg := range []string{"first", "second", "third"} {
		err := svc.CreateJobLog(ctx, &models.JobLog{
			JobID:   job.ID,
			Level:   models.JobLogLevelInfo,
			Message: msg,
		})
		require.NoError(t, err)
	}

	logs, err := svc.ListJobLogs(ctx, ListJobLogsOptions{JobID: job.ID})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "third", logs[2].Message)
	assert.True(t, logs[0].ID < logs[2].ID)
}

func TestListJobLogs_FilterByLevel(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	job := seedJob(t, db)

	require.NoError(t, svc.CreateJobLog(ctx, &models.JobLog{JobID: job.ID, Level: models.JobLogLevelInfo, Message: "ok"}))
	require.NoError(t, svc.CreateJobLog(ctx, &models.JobLog{JobID: job.ID, Level: models.JobLogLevelError, Message: "boom"}))

	logs, err := svc.ListJobLogs(ctx, ListJobLogsOptions{
		JobID:  job.ID,
		Levels: []string{models.JobLogLevelError},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "boom", logs[0].Message)
}

func TestListJobLogs_AfterID(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	job := seedJob(t, db)

	first := &models.JobLog{JobID: job.ID, Level: models.JobLogLevelInfo, Message: "first"}
	require.NoError(t, svc.CreateJobLog(ctx, first))
	require.NoError(t, svc.CreateJobLog(ctx, &models.JobLog{JobID: job.ID, Level: models.JobLogLevelInfo, Message: "second"}))

	logs, err := svc.ListJobLogs(ctx, ListJobLogsOptions{JobID: job.ID, AfterID: &first.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "second", logs[0].Message)
}

func TestJobLogger_PersistsWithData(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	job := seedJob(t, db)

	jobLog := svc.NewJobLogger(ctx, job.ID, logger.New())
	jobLog.Info("scanning folder", logger.Data{"folder": "/media/movies"})

	logs, err := svc.ListJobLogs(ctx, ListJobLogsOptions{JobID: job.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.JobLogLevelInfo, logs[0].Level)
	assert.Equal(t, "scanning folder", logs[0].Message)
	require.NotNil(t, logs[0].Data)
	assert.Contains(t, *logs[0].Data, "/media/movies")
	assert.Nil(t, logs[0].StackTrace)
}

func TestJobLogger_ErrorCapturesStackTrace(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	job := seedJob(t, db)

	jobLog := svc.NewJobLogger(ctx, job.ID, logger.New())
	jobLog.Error("probe failed", assert.AnError, nil)

	logs, err := svc.ListJobLogs(ctx, ListJobLogsOptions{JobID: job.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.JobLogLevelError, logs[0].Level)
	require.NotNil(t, logs[0].StackTrace)
	assert.NotEmpty(t, *logs[0].StackTrace)
}

func TestTruncateMiddle(t *testing.T) {
	short := "short value"
	assert.Equal(t, short, truncateMiddle(short, 1024))

	long := strings.Repeat("a", 600) + strings.Repeat("b", 600)
	truncated := truncateMiddle(long, 1024)
	assert.LessOrEqual(t, len(truncated), 1024)
	assert.Contains(t, truncated, " ... ")
}
