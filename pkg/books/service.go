package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/shelfdex/shelfdex/pkg/searchtext"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID       *int
	Path     *string
	Filename *string
	// IncludeUnavailable retrieves the row even when the book is soft-deleted
	// or pending verification.
	IncludeUnavailable bool
}

type ListBooksOptions struct {
	Limit         *int
	Offset        *int
	CatalogID     *int
	AuthorID      *int
	SeriesID      *int
	GenreID       *int
	TitlePrefix   *string
	TitleContains *string
	LangCode      *int
	// HideDoubles collapses books sharing a normalized title down to the
	// newest row.
	HideDoubles bool
	Random      bool

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	if book.SearchTitle == "" {
		book.SearchTitle = searchtext.Normalize(book.Title)
	}
	if book.LangCode == 0 {
		book.LangCode = searchtext.DetectScript(book.Title)
	}
	if book.Avail == 0 {
		book.Avail = models.AvailConfirmed
	}

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Catalog")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.Path != nil {
		q = q.Where("b.path = ?", *opts.Path)
	}
	if opts.Filename != nil {
		q = q.Where("b.filename = ?", *opts.Filename)
	}
	if !opts.IncludeUnavailable {
		q = q.Where("b.avail > ?", models.AvailDeleted)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Catalog").
		Where("b.avail > ?", models.AvailDeleted)

	if opts.Random {
		q = q.OrderExpr("RANDOM()")
	} else {
		q = q.Order("b.title ASC", "b.id ASC")
	}

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.CatalogID != nil {
		q = q.Where("b.catalog_id = ?", *opts.CatalogID)
	}
	if opts.AuthorID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_authors WHERE author_id = ?)", *opts.AuthorID)
	}
	if opts.SeriesID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_series WHERE series_id = ?)", *opts.SeriesID)
	}
	if opts.GenreID != nil {
		q = q.Where("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", *opts.GenreID)
	}
	if opts.TitlePrefix != nil && *opts.TitlePrefix != "" {
		q = q.Where("b.search_title LIKE ?", searchtext.Normalize(*opts.TitlePrefix)+"%")
	}
	if opts.TitleContains != nil && *opts.TitleContains != "" {
		q = q.Where("b.search_title LIKE ?", "%"+searchtext.Normalize(*opts.TitleContains)+"%")
	}
	if opts.LangCode != nil {
		q = q.Where("b.lang_code = ?", *opts.LangCode)
	}
	if opts.HideDoubles {
		q = q.Where("b.id = (SELECT MAX(b2.id) FROM books b2 WHERE b2.search_title = b.search_title AND b2.avail > ?)", models.AvailDeleted)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	book.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Book")
		}
		return errors.WithStack(err)
	}
	return nil
}

// Doubles lists the other available books that share a book's normalized
// title. Duplicate detection happens here at read time, never during a scan.
func (svc *Service) Doubles(ctx context.Context, bookID int) ([]*models.Book, error) {
	book, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &bookID, IncludeUnavailable: true})
	if err != nil {
		return nil, err
	}

	doubles := []*models.Book{}
	err = svc.db.
		NewSelect().
		Model(&doubles).
		Relation("Catalog").
		Where("b.search_title = ?", book.SearchTitle).
		Where("b.id != ?", book.ID).
		Where("b.avail > ?", models.AvailDeleted).
		Order("b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return doubles, nil
}

// CountDoubles reports how many available books share a normalized title.
func (svc *Service) CountDoubles(ctx context.Context, searchTitle string) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("b.search_title = ?", searchTitle).
		Where("b.avail > ?", models.AvailDeleted).
		Count(ctx)
	return count, errors.WithStack(err)
}

// MarkAllUnverified flips every confirmed book to unverified at the start of
// a scan pass.
func (svc *Service) MarkAllUnverified(ctx context.Context) error {
	_, err := svc.db.
		NewUpdate().
		Model((*models.Book)(nil)).
		Set("avail = ?", models.AvailUnverified).
		Where("avail = ?", models.AvailConfirmed).
		Exec(ctx)
	return errors.WithStack(err)
}

// Confirm looks up the row for an observed file. When the stored fingerprint
// matches, the row is re-confirmed in place and changed is false. When it
// differs the row is left unverified and changed is true so the caller
// re-parses the file.
func (svc *Service) Confirm(ctx context.Context, path, filename, fingerprint string) (book *models.Book, changed bool, err error) {
	book, err = svc.RetrieveBook(ctx, RetrieveBookOptions{
		Path:               &path,
		Filename:           &filename,
		IncludeUnavailable: true,
	})
	if err != nil {
		return nil, false, err
	}

	if book.Fingerprint != fingerprint {
		return book, true, nil
	}

	book.Avail = models.AvailConfirmed
	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"avail"}})
	if err != nil {
		return nil, false, err
	}
	return book, false, nil
}

// UnlinkBook removes a book's author/series/genre links, keeping the row.
func (svc *Service) UnlinkBook(ctx context.Context, bookID int) error {
	for _, model := range []interface{}{
		(*models.BookAuthor)(nil),
		(*models.BookSeries)(nil),
		(*models.BookGenre)(nil),
	} {
		_, err := svc.db.NewDelete().Model(model).Where("book_id = ?", bookID).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// DeleteBook removes a book row and its author/series/genre links.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{
			(*models.BookAuthor)(nil),
			(*models.BookSeries)(nil),
			(*models.BookGenre)(nil),
		} {
			_, err := tx.NewDelete().Model(model).Where("book_id = ?", bookID).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		_, err := tx.NewDelete().Model((*models.Book)(nil)).Where("id = ?", bookID).Exec(ctx)
		return errors.WithStack(err)
	})
}

// SweepUnverified resolves the rows still unverified at the end of a scan
// pass. With purge it deletes them and their links and returns their IDs so
// stored covers can be cleaned up; otherwise they are soft-deleted in place.
func (svc *Service) SweepUnverified(ctx context.Context, purge bool) ([]int, error) {
	ids := []int{}
	err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Column("b.id").
		Where("b.avail = ?", models.AvailUnverified).
		Scan(ctx, &ids)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(ids) == 0 {
		return ids, nil
	}

	if !purge {
		_, err = svc.db.
			NewUpdate().
			Model((*models.Book)(nil)).
			Set("avail = ?", models.AvailDeleted).
			Where("avail = ?", models.AvailUnverified).
			Exec(ctx)
		return ids, errors.WithStack(err)
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{
			(*models.BookAuthor)(nil),
			(*models.BookSeries)(nil),
			(*models.BookGenre)(nil),
		} {
			_, err := tx.NewDelete().Model(model).Where("book_id IN (?)", bun.In(ids)).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		_, err := tx.NewDelete().Model((*models.Book)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ids, nil
}

// CountAvailable counts books visible to readers.
func (svc *Service) CountAvailable(ctx context.Context) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("b.avail > ?", models.AvailDeleted).
		Count(ctx)
	return count, errors.WithStack(err)
}
