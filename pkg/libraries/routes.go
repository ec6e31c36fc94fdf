package libraries

import (
	"github.com/labstack/echo/v4"
	"github.com/telecasthq/telecast/pkg/jobs"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	libraryService := NewService(db)
	jobService := jobs.NewService(db)

	h := &handler{
		libraryService: libraryService,
		jobService:     jobService,
	}

	e.POST("/libraries", h.create)
	e.GET("/libraries/:id", h.retrieve)
	e.GET("/libraries", h.list)
	e.POST("/libraries/:id", h.update)
}
