package counters

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	counterService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	counter, err := h.counterService.Retrieve(ctx, c.Param("name"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, counter))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	counters, err := h.counterService.List(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"counters": counters,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}
