package playout

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{
		playoutService: NewService(db),
	}

	e.GET("/channels/:id/playout", h.list)
}
