package books

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/authors"
	"github.com/shelfdex/shelfdex/pkg/covers"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/fileutils"
	"github.com/shelfdex/shelfdex/pkg/genres"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/shelfdex/shelfdex/pkg/series"
)

type handler struct {
	bookService   *Service
	authorService *authors.Service
	seriesService *series.Service
	genreService  *genres.Service
	coverStore    *covers.Store
	libraryRoots  []string
}

type bookResponse struct {
	*models.Book
	Authors []*models.Author `json:"authors"`
	Series  []*models.Series `json:"series"`
	Genres  []*models.Genre  `json:"genres"`
}

func (h *handler) expand(c echo.Context, book *models.Book) (*bookResponse, error) {
	ctx := c.Request().Context()

	bookAuthors, err := h.authorService.ListForBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	bookSeries, err := h.seriesService.ListForBook(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	bookGenres, err := h.genreService.ListForBook(ctx, book.ID, c.QueryParam("locale"))
	if err != nil {
		return nil, err
	}

	return &bookResponse{book, bookAuthors, bookSeries, bookGenres}, nil
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	response, err := h.expand(c, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:         &params.Limit,
		Offset:        &params.Offset,
		CatalogID:     params.CatalogID,
		AuthorID:      params.AuthorID,
		SeriesID:      params.SeriesID,
		GenreID:       params.GenreID,
		TitlePrefix:   params.Title,
		TitleContains: params.Search,
		LangCode:      params.LangCode,
		HideDoubles:   params.HideDoubles,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"books": books,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) random(c echo.Context) error {
	ctx := c.Request().Context()

	params := RandomBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, err := h.bookService.ListBooks(ctx, ListBooksOptions{
		Limit:  &params.Count,
		Random: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{"books": books}))
}

func (h *handler) doubles(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	doubles, err := h.bookService.Doubles(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{"books": doubles, "total": len(doubles)}))
}

func (h *handler) setAuthors(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := SetBookAuthorsParams{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	err = h.authorService.SetForBook(ctx, book.ID, params.Authors)
	if err != nil {
		return errors.WithStack(err)
	}

	response, err := h.expand(c, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) setSeries(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := SetBookSeriesParams{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	memberships := make([]series.Membership, 0, len(params.Series))
	for _, s := range params.Series {
		memberships = append(memberships, series.Membership{Name: s.Name, SeriesNo: s.SeriesNo})
	}
	err = h.seriesService.SetForBook(ctx, book.ID, memberships)
	if err != nil {
		return errors.WithStack(err)
	}

	response, err := h.expand(c, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) setGenres(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := SetBookGenresParams{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	err = h.genreService.SetForBook(ctx, book.ID, params.Genres)
	if err != nil {
		return errors.WithStack(err)
	}

	response, err := h.expand(c, book)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) cover(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	if !book.HasCover {
		return errcodes.NotFound("Cover")
	}

	path := h.coverStore.Filepath(book.ID, book.CoverMime)
	if _, err := os.Stat(path); err != nil {
		return errcodes.NotFound("Cover")
	}

	c.Response().Header().Set(echo.HeaderContentType, book.CoverMime)
	return errors.WithStack(c.File(path))
}

func (h *handler) file(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	dir, err := fileutils.ResolveAbs(h.libraryRoots, book.Path)
	if err != nil {
		return errcodes.NotFound("Book file")
	}
	path := filepath.Join(dir, book.Filename)
	if _, err := os.Stat(path); err != nil {
		return errcodes.NotFound("Book file")
	}

	return errors.WithStack(c.Attachment(path, book.Filename))
}
