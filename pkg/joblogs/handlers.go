package joblogs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/jobs"
	"github.com/telecasthq/telecast/pkg/models"
)

type handler struct {
	logService *Service
	jobService *jobs.Service
}

func (h *handler) listLogs(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Job")
	}

	params := ListJobLogsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	job, err := h.jobService.RetrieveJob(ctx, jobs.RetrieveJobOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := ListJobLogsOptions{
		JobID:  job.ID,
		Levels: params.Level,
	}
	if params.AfterID > 0 {
		opts.AfterID = &params.AfterID
	}

	logs, err := h.logService.ListJobLogs(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Logs []*models.JobLog `json:"logs"`
		Job  *models.Job      `json:"job"`
	}{logs, job}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
