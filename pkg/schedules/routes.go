package schedules

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	scheduleService := NewService(db)

	h := &handler{
		scheduleService: scheduleService,
	}

	e.GET("/schedules", h.list)
	e.GET("/schedules/:id", h.retrieve)
	e.POST("/schedules", h.create)
	e.PATCH("/schedules/:id", h.update)
}
