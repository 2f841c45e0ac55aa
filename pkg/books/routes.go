package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfdex/shelfdex/pkg/authors"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/covers"
	"github.com/shelfdex/shelfdex/pkg/genres"
	"github.com/shelfdex/shelfdex/pkg/series"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, coverStore *covers.Store) {
	h := &handler{
		bookService:   NewService(db),
		authorService: authors.NewService(db),
		seriesService: series.NewService(db),
		genreService:  genres.NewService(db),
		coverStore:    coverStore,
		libraryRoots:  cfg.LibraryRoots,
	}

	g.GET("", h.list)
	g.GET("/random", h.random)
	g.GET("/:id", h.retrieve)
	g.GET("/:id/doubles", h.doubles)
	g.GET("/:id/cover", h.cover)
	g.GET("/:id/file", h.file)
	g.PUT("/:id/authors", h.setAuthors)
	g.PUT("/:id/series", h.setSeries)
	g.PUT("/:id/genres", h.setGenres)
}
