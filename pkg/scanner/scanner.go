// Package scanner implements the library scan pass: mark the whole index
// unverified, walk the roots confirming or ingesting files, then sweep
// whatever was not observed.
package scanner

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfdex/shelfdex/pkg/authors"
	"github.com/shelfdex/shelfdex/pkg/books"
	"github.com/shelfdex/shelfdex/pkg/catalogs"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/counters"
	"github.com/shelfdex/shelfdex/pkg/covers"
	"github.com/shelfdex/shelfdex/pkg/epub"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/fb2"
	"github.com/shelfdex/shelfdex/pkg/genres"
	"github.com/shelfdex/shelfdex/pkg/mediafile"
	"github.com/shelfdex/shelfdex/pkg/mobi"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/shelfdex/shelfdex/pkg/searchtext"
	"github.com/shelfdex/shelfdex/pkg/series"
	"github.com/uptrace/bun"
)

// Stats is the report of one scan pass, stored whether the pass completed
// or aborted. ErrorMessage carries the terminal error of an aborted pass.
type Stats struct {
	Success         bool          `json:"success"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	BooksAdded      int           `json:"books_added"`
	BooksSkipped    int           `json:"books_skipped"`
	BooksDeleted    int           `json:"books_deleted"`
	CatalogsDeleted int           `json:"catalogs_deleted"`
	Errors          int           `json:"errors"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
}

type Scanner struct {
	cfg            *config.Config
	walker         *Walker
	bookService    *books.Service
	catalogService *catalogs.Service
	authorService  *authors.Service
	seriesService  *series.Service
	genreService   *genres.Service
	counterService *counters.Service
	coverStore     *covers.Store
}

func New(cfg *config.Config, db *bun.DB, coverStore *covers.Store) *Scanner {
	return &Scanner{
		cfg:            cfg,
		walker:         NewWalker(cfg.LibraryRoots, cfg.BookExtensions),
		bookService:    books.NewService(db),
		catalogService: catalogs.NewService(db),
		authorService:  authors.NewService(db),
		seriesService:  series.NewService(db),
		genreService:   genres.NewService(db),
		counterService: counters.NewService(db),
		coverStore:     coverStore,
	}
}

// Run executes one full scan pass and returns its stats. Individual file
// failures are counted and logged, never fatal; only infrastructure errors
// abort the pass. The stats are returned either way, with the terminal
// error of an aborted pass recorded in ErrorMessage.
func (s *Scanner) Run(ctx context.Context) (*Stats, error) {
	log := logger.FromContext(ctx)
	stats := &Stats{StartedAt: time.Now()}

	err := s.runPass(ctx, stats)
	stats.Duration = time.Since(stats.StartedAt)
	if err != nil {
		stats.ErrorMessage = err.Error()
		return stats, err
	}

	stats.Success = true
	log.Info("scan finished", logger.Data{
		"books_added":   stats.BooksAdded,
		"books_skipped": stats.BooksSkipped,
		"books_deleted": stats.BooksDeleted,
		"errors":        stats.Errors,
		"duration":      stats.Duration.String(),
	})
	return stats, nil
}

func (s *Scanner) runPass(ctx context.Context, stats *Stats) error {
	log := logger.FromContext(ctx)
	purge := s.cfg.DeletedRetention == "purge"

	if err := s.bookService.MarkAllUnverified(ctx); err != nil {
		return err
	}

	// Ensured catalogs are cached per pass; most files share a directory
	// with their neighbors.
	catalogCache := map[string]*models.Catalog{}

	err := s.walker.Walk(ctx, func(file File) error {
		if err := s.ingest(ctx, file, catalogCache, stats); err != nil {
			stats.Errors++
			log.Err(err).Warn("scan file failed", logger.Data{"path": file.AbsPath()})
		}
		return nil
	}, func(path string, err error) {
		stats.Errors++
		log.Err(errors.WithStack(err)).Warn("scan walk error", logger.Data{"path": path})
	})
	if err != nil {
		return err
	}

	deletedIDs, err := s.bookService.SweepUnverified(ctx, purge)
	if err != nil {
		return err
	}
	stats.BooksDeleted = len(deletedIDs)
	if purge {
		for _, id := range deletedIDs {
			if err := s.coverStore.Delete(id); err != nil {
				stats.Errors++
				log.Err(err).Warn("cover cleanup failed", logger.Data{"book_id": id})
			}
		}

		for _, prune := range []func(context.Context) (int, error){
			s.authorService.DeleteOrphans,
			s.seriesService.DeleteOrphans,
			s.genreService.DeleteOrphans,
		} {
			if _, err := prune(ctx); err != nil {
				return err
			}
		}
	}

	catalogsDeleted, err := s.catalogService.DeleteEmpty(ctx)
	if err != nil {
		return err
	}
	stats.CatalogsDeleted = int(catalogsDeleted)

	if err := s.counterService.UpdateAll(ctx); err != nil {
		return err
	}

	return nil
}

func (s *Scanner) ingest(ctx context.Context, file File, catalogCache map[string]*models.Catalog, stats *Stats) error {
	virtualPath := file.VirtualPath()

	existing, changed, err := s.bookService.Confirm(ctx, virtualPath, file.Filename, file.Fingerprint)
	switch {
	case err == nil && !changed:
		stats.BooksSkipped++
		return nil
	case err == nil && changed:
		// The file was replaced since the last pass. The stale row is kept
		// until the replacement parses, so a now-corrupt file cannot erase
		// its index entry.
	case errors.Is(err, errcodes.NotFound("Book")):
		existing = nil
	default:
		return err
	}

	meta, err := s.extract(file)
	if err != nil {
		if existing != nil {
			// The prior record stays as it was. The old fingerprint is kept
			// too, so the next pass retries the replacement.
			existing.Avail = models.AvailConfirmed
			if uerr := s.bookService.UpdateBook(ctx, existing, books.UpdateBookOptions{Columns: []string{"avail"}}); uerr != nil {
				return uerr
			}
		}
		return err
	}

	catalog, ok := catalogCache[virtualPath]
	if !ok {
		catalog, err = s.catalogService.Ensure(ctx, virtualPath)
		if err != nil {
			return err
		}
		catalogCache[virtualPath] = catalog
	}

	title := searchtext.StripMeta(meta.Title)
	if title == "" {
		title = mediafile.FallbackTitle(file.Filename)
	}

	book := &models.Book{
		CatalogID:   catalog.ID,
		Filename:    file.Filename,
		Path:        virtualPath,
		Format:      file.Ext,
		Title:       title,
		Annotation:  meta.Annotation,
		DocDate:     meta.DocDate,
		Lang:        meta.Lang,
		Size:        file.Size,
		Fingerprint: file.Fingerprint,
		Avail:       models.AvailConfirmed,
	}
	if existing == nil {
		if err := s.bookService.CreateBook(ctx, book); err != nil {
			return err
		}
	} else {
		// Update in place so the book ID survives the replacement.
		book.ID = existing.ID
		book.CreatedAt = existing.CreatedAt
		book.SearchTitle = searchtext.Normalize(book.Title)
		book.LangCode = searchtext.DetectScript(book.Title)
		err := s.bookService.UpdateBook(ctx, book, books.UpdateBookOptions{Columns: []string{
			"catalog_id", "title", "search_title", "lang_code", "annotation",
			"doc_date", "lang", "format", "size", "fingerprint", "avail",
			"has_cover", "cover_mime",
		}})
		if err != nil {
			return err
		}
		if err := s.bookService.UnlinkBook(ctx, book.ID); err != nil {
			return err
		}
		if err := s.coverStore.Delete(book.ID); err != nil {
			return err
		}
	}

	for _, name := range meta.Authors {
		author, err := s.authorService.Ensure(ctx, name)
		if err != nil {
			continue
		}
		if err := s.authorService.LinkBook(ctx, book.ID, author.ID); err != nil {
			return err
		}
	}

	if meta.Series != "" {
		sr, err := s.seriesService.Ensure(ctx, meta.Series)
		if err == nil {
			seriesNo := 0
			if meta.SeriesNumber != nil {
				seriesNo = *meta.SeriesNumber
			}
			if err := s.seriesService.LinkBook(ctx, book.ID, sr.ID, seriesNo); err != nil {
				return err
			}
		}
	}

	for _, code := range meta.Genres {
		genre, err := s.genreService.Ensure(ctx, code)
		if err != nil {
			continue
		}
		if err := s.genreService.LinkBook(ctx, book.ID, genre.ID); err != nil {
			return err
		}
	}

	if len(meta.CoverData) > 0 {
		mime, err := s.coverStore.Save(book.ID, meta.CoverData, meta.CoverMimeType)
		if err == nil {
			book.HasCover = true
			book.CoverMime = mime
			if err := s.bookService.UpdateBook(ctx, book, books.UpdateBookOptions{Columns: []string{"has_cover", "cover_mime"}}); err != nil {
				return err
			}
		} else if !errors.Is(err, covers.ErrUnsupportedImage) {
			return err
		}
	}

	stats.BooksAdded++
	return nil
}

// extract dispatches to the extractor for the file's format. The variant set
// is closed: a file only reaches here if the walker matched its extension.
func (s *Scanner) extract(file File) (*mediafile.ParsedMetadata, error) {
	switch file.Ext {
	case models.FormatFB2:
		return fb2.Parse(file.AbsPath())
	case models.FormatEPUB:
		return epub.Parse(file.AbsPath())
	case models.FormatMOBI:
		return mobi.Parse(file.AbsPath())
	}
	return nil, mediafile.Unsupported(file.AbsPath(), errors.Errorf("no extractor for %q", file.Ext))
}
