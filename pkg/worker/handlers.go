package worker

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
)

type handler struct {
	worker *Worker
}

func (h *handler) trigger(c echo.Context) error {
	if err := h.worker.TriggerScan(); err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"status": "started",
	}

	return errors.WithStack(c.JSON(http.StatusAccepted, response))
}

func (h *handler) status(c echo.Context) error {
	response := map[string]interface{}{
		"scanning": h.worker.Scanning(),
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) lastResult(c echo.Context) error {
	stats, ok := h.worker.TakeLastResult()
	if !ok {
		return errcodes.NoScanResult()
	}

	return errors.WithStack(c.JSON(http.StatusOK, stats))
}
