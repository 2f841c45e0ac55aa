package browse

import (
	"github.com/labstack/echo/v4"
	"github.com/shelfdex/shelfdex/pkg/authors"
	"github.com/shelfdex/shelfdex/pkg/books"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/genres"
	"github.com/shelfdex/shelfdex/pkg/series"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers browse routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config) {
	h := &handler{
		browseService: NewService(db),
		authorService: authors.NewService(db),
		seriesService: series.NewService(db),
		genreService:  genres.NewService(db),
		bookService:   books.NewService(db),
		threshold:     cfg.BrowsePageThreshold,
	}

	g.GET("/:kind", h.drilldown)
}
