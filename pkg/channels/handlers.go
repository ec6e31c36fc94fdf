package channels

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/telecasthq/telecast/pkg/sched"
)

type handler struct {
	channelService *Service
	reconciler     *sched.Reconciler
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateChannelPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	channel := &models.Channel{
		Name:              params.Name,
		Number:            params.Number,
		DefaultScheduleID: params.DefaultScheduleID,
	}

	err := h.channelService.CreateChannel(ctx, channel)
	if err != nil {
		return errors.WithStack(err)
	}

	channel, err = h.channelService.RetrieveChannel(ctx, RetrieveChannelOptions{
		ID: &channel.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, channel))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Channel")
	}

	channel, err := h.channelService.RetrieveChannel(ctx, RetrieveChannelOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, channel))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListChannelsQuery{Limit: 10}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	channels, total, err := h.channelService.ListChannelsWithTotal(ctx, ListChannelsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Channels []*models.Channel `json:"channels"`
		Total    int               `json:"total"`
	}{channels, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Channel")
	}

	params := UpdateChannelPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	channel, err := h.channelService.RetrieveChannel(ctx, RetrieveChannelOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateChannelOptions{Columns: []string{}}
	if params.Name != nil && *params.Name != channel.Name {
		channel.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Number != nil && *params.Number != channel.Number {
		channel.Number = *params.Number
		opts.Columns = append(opts.Columns, "number")
	}

	err = h.channelService.UpdateChannel(ctx, channel, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	channel, err = h.channelService.RetrieveChannel(ctx, RetrieveChannelOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, channel))
}

// replaceAlternates swaps the channel's whole alternate-schedule set and lets
// the reconciler decide whether the playout needs rebuilding.
func (h *handler) replaceAlternates(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Channel")
	}

	params := ReplaceAlternatesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	incoming := make([]sched.AlternateInput, 0, len(params.Entries))
	for _, entry := range params.Entries {
		incoming = append(incoming, sched.AlternateInput{
			Identity:     entry.Identity,
			ScheduleID:   entry.ScheduleID,
			Index:        entry.Index,
			DaysOfWeek:   entry.DaysOfWeek,
			DaysOfMonth:  entry.DaysOfMonth,
			MonthsOfYear: entry.MonthsOfYear,
		})
	}

	outcome, err := h.reconciler.Replace(ctx, id, incoming)
	if err != nil {
		return errors.WithStack(err)
	}

	channel, err := h.channelService.RetrieveChannel(ctx, RetrieveChannelOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Channel *models.Channel       `json:"channel"`
		Outcome *sched.ReplaceOutcome `json:"outcome"`
	}{channel, outcome}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
