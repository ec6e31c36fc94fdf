package schedules

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
)

type handler struct {
	scheduleService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateSchedulePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	schedule := &models.Schedule{
		Name: params.Name,
	}

	err := h.scheduleService.CreateSchedule(ctx, schedule)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, schedule))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Schedule")
	}

	schedule, err := h.scheduleService.RetrieveSchedule(ctx, RetrieveScheduleOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, schedule))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListSchedulesQuery{Limit: 10}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	scheds, total, err := h.scheduleService.ListSchedulesWithTotal(ctx, ListSchedulesOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Schedules []*models.Schedule `json:"schedules"`
		Total     int                `json:"total"`
	}{scheds, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Schedule")
	}

	params := UpdateSchedulePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	schedule, err := h.scheduleService.RetrieveSchedule(ctx, RetrieveScheduleOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateScheduleOptions{Columns: []string{}}
	if params.Name != nil && *params.Name != schedule.Name {
		schedule.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}

	err = h.scheduleService.UpdateSchedule(ctx, schedule, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, schedule))
}
