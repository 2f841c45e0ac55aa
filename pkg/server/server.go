package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shelfdex/shelfdex/pkg/authors"
	"github.com/shelfdex/shelfdex/pkg/binder"
	"github.com/shelfdex/shelfdex/pkg/books"
	"github.com/shelfdex/shelfdex/pkg/browse"
	"github.com/shelfdex/shelfdex/pkg/catalogs"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/counters"
	"github.com/shelfdex/shelfdex/pkg/covers"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/genres"
	"github.com/shelfdex/shelfdex/pkg/series"
	"github.com/shelfdex/shelfdex/pkg/worker"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, coverStore *covers.Store, w *worker.Worker) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	books.RegisterRoutesWithGroup(e.Group("/books"), db, cfg, coverStore)
	catalogs.RegisterRoutesWithGroup(e.Group("/catalogs"), db)
	authors.RegisterRoutesWithGroup(e.Group("/authors"), db)
	series.RegisterRoutesWithGroup(e.Group("/series"), db)
	genres.RegisterRoutesWithGroup(e.Group("/genres"), db)
	browse.RegisterRoutesWithGroup(e.Group("/browse"), db, cfg)
	counters.RegisterRoutesWithGroup(e.Group("/counters"), db)
	worker.RegisterRoutesWithGroup(e.Group("/scans"), w)

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
