package joblogs

import (
	"github.com/labstack/echo/v4"
	"github.com/telecasthq/telecast/pkg/jobs"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all of the routes for the job logs feature.
func RegisterRoutes(e *echo.Echo, db *bun.DB) {
	h := &handler{
		logService: NewService(db),
		jobService: jobs.NewService(db),
	}

	e.GET("/jobs/:id/logs", h.listLogs)
}
