package counters

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers counter routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		counterService: NewService(db),
	}

	g.GET("", h.list)
	g.GET("/:name", h.retrieve)
}
