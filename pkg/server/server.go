package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/telecasthq/telecast/pkg/channels"
	"github.com/telecasthq/telecast/pkg/config"
	"github.com/telecasthq/telecast/pkg/dispatch"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/joblogs"
	"github.com/telecasthq/telecast/pkg/jobs"
	"github.com/telecasthq/telecast/pkg/libraries"
	"github.com/telecasthq/telecast/pkg/playout"
	"github.com/telecasthq/telecast/pkg/schedules"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	e.Validator = NewValidator()

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	dispatcher := dispatch.NewJobQueue(jobs.NewService(db), nil)

	channels.RegisterRoutes(e, db, dispatcher)
	joblogs.RegisterRoutes(e, db)
	jobs.RegisterRoutes(e, db)
	libraries.RegisterRoutes(e, db)
	playout.RegisterRoutes(e, db)
	schedules.RegisterRoutes(e, db)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
