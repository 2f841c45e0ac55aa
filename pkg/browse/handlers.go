package browse

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/authors"
	"github.com/shelfdex/shelfdex/pkg/books"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/genres"
	"github.com/shelfdex/shelfdex/pkg/series"
)

type handler struct {
	browseService *Service
	authorService *authors.Service
	seriesService *series.Service
	genreService  *genres.Service
	bookService   *books.Service
	threshold     int
}

func (h *handler) drilldown(c echo.Context) error {
	ctx := c.Request().Context()

	kind := c.Param("kind")
	switch kind {
	case KindAuthors, KindSeries, KindGenres, KindTitles:
	default:
		return errcodes.ValidationError("kind must be one of authors, series, genres, or titles")
	}

	params := DrilldownQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	groups, listDirectly, err := h.browseService.Drilldown(ctx, DrilldownOptions{
		Kind:      kind,
		Prefix:    params.Prefix,
		LangCode:  params.LangCode,
		Threshold: h.threshold,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]interface{}{
		"kind":   kind,
		"prefix": params.Prefix,
	}

	if !listDirectly {
		response["groups"] = groups
		return errors.WithStack(c.JSON(http.StatusOK, response))
	}

	prefix := params.Prefix
	switch kind {
	case KindAuthors:
		items, err := h.authorService.ListAuthors(ctx, authors.ListAuthorsOptions{
			NamePrefix: &prefix,
			LangCode:   params.LangCode,
		})
		if err != nil {
			return errors.WithStack(err)
		}
		response["items"] = items
	case KindSeries:
		items, err := h.seriesService.ListSeries(ctx, series.ListSeriesOptions{
			NamePrefix: &prefix,
			LangCode:   params.LangCode,
		})
		if err != nil {
			return errors.WithStack(err)
		}
		response["items"] = items
	case KindGenres:
		items, err := h.genreService.ListGenres(ctx, genres.ListGenresOptions{
			CodePrefix: &prefix,
			Locale:     params.Locale,
		})
		if err != nil {
			return errors.WithStack(err)
		}
		response["items"] = items
	case KindTitles:
		items, err := h.bookService.ListBooks(ctx, books.ListBooksOptions{
			TitlePrefix: &prefix,
			LangCode:    params.LangCode,
		})
		if err != nil {
			return errors.WithStack(err)
		}
		response["items"] = items
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}
