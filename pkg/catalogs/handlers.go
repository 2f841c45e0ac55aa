package catalogs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
)

type handler struct {
	catalogService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Catalog")
	}

	catalog, err := h.catalogService.RetrieveCatalog(ctx, RetrieveCatalogOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, catalog))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCatalogsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	catalogs, total, err := h.catalogService.ListCatalogsWithTotal(ctx, ListCatalogsOptions{
		Limit:     &params.Limit,
		Offset:    &params.Offset,
		ParentID:  params.ParentID,
		RootsOnly: params.RootsOnly,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"catalogs": catalogs,
		"total":    total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) breadcrumbs(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Catalog")
	}

	crumbs, err := h.catalogService.Breadcrumbs(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, crumbs))
}
