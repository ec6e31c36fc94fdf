package jobs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
)

type handler struct {
	jobService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateJobPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	// Only one scan should be queued or running at a time.
	if params.Type == models.JobTypeScan {
		hasActive, err := h.jobService.HasActiveJobByType(ctx, models.JobTypeScan)
		if err != nil {
			return errors.WithStack(err)
		}
		if hasActive {
			return errcodes.ValidationError("A scan job is already running or pending.")
		}
	}

	job := &models.Job{
		Type:       params.Type,
		Status:     models.JobStatusPending,
		DataParsed: params.Data,
	}
	if job.DataParsed == nil {
		job.DataParsed = &models.JobScanData{}
	}

	err := h.jobService.CreateJob(ctx, job)
	if err != nil {
		return errors.WithStack(err)
	}

	job, err = h.jobService.RetrieveJob(ctx, RetrieveJobOptions{
		ID: &job.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Job")
	}

	job, err := h.jobService.RetrieveJob(ctx, RetrieveJobOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListJobsQuery{Limit: 10}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListJobsOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		Statuses: params.Status,
	}
	if params.Type != nil {
		opts.Types = []string{*params.Type}
	}

	jobs, total, err := h.jobService.ListJobsWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Jobs  []*models.Job `json:"jobs"`
		Total int           `json:"total"`
	}{jobs, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
