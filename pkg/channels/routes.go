package channels

import (
	"github.com/labstack/echo/v4"
	"github.com/telecasthq/telecast/pkg/dispatch"
	"github.com/telecasthq/telecast/pkg/sched"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, dispatcher dispatch.Dispatcher) {
	channelService := NewService(db)

	h := &handler{
		channelService: channelService,
		reconciler:     sched.NewReconciler(db, dispatcher),
	}

	e.GET("/channels", h.list)
	e.GET("/channels/:id", h.retrieve)
	e.POST("/channels", h.create)
	e.PATCH("/channels/:id", h.update)
	e.PUT("/channels/:id/alternates", h.replaceAlternates)
}
