package playout

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
)

type handler struct {
	playoutService *Service
}

type listItemsQuery struct {
	Limit    int  `query:"limit" validate:"min=1,max=500"`
	Offset   int  `query:"offset" validate:"min=0"`
	Upcoming bool `query:"upcoming"`
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	channelID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Channel")
	}

	params := listItemsQuery{Limit: 100}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if err := c.Validate(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListItemsOptions{
		ChannelID: &channelID,
		Limit:     &params.Limit,
		Offset:    &params.Offset,
	}
	if params.Upcoming {
		now := time.Now()
		opts.StartingAfter = &now
	}

	items, err := h.playoutService.ListItems(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		PlayoutItems []*models.PlayoutItem `json:"playout_items"`
	}{items}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
