package worker

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers scan routes on a pre-configured group.
// The worker is created once in main and shared with the scheduler.
func RegisterRoutesWithGroup(g *echo.Group, w *Worker) {
	h := &handler{worker: w}

	g.POST("", h.trigger)
	g.GET("/status", h.status)
	g.GET("/last", h.lastResult)
}
