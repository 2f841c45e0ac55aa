package genres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/shelfdex/shelfdex/pkg/searchtext"
	"github.com/uptrace/bun"
)

type RetrieveGenreOptions struct {
	ID   *int
	Code *string
	// Locale selects the translation table applied to DisplayName.
	Locale string
}

type ListGenresOptions struct {
	Limit      *int
	Offset     *int
	CodePrefix *string
	// Locale selects the translation table applied to DisplayName.
	Locale string

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

const bookCountColumn = "(SELECT COUNT(*) FROM book_genres bg JOIN books b ON b.id = bg.book_id WHERE bg.genre_id = g.id AND b.avail > ?) AS book_count"

// Ensure finds or creates the genre row for a code. Unknown codes are kept
// verbatim; translation to a display name happens at read time.
func (svc *Service) Ensure(ctx context.Context, rawCode string) (*models.Genre, error) {
	code := strings.ToLower(searchtext.StripMeta(rawCode))
	if code == "" {
		return nil, errors.New("genre code cannot be empty")
	}

	genre, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{Code: &code})
	if err == nil {
		return genre, nil
	}
	if !errors.Is(err, errcodes.NotFound("Genre")) {
		return nil, err
	}

	now := time.Now()
	genre = &models.Genre{
		CreatedAt:  now,
		UpdatedAt:  now,
		Code:       code,
		SearchCode: searchtext.Normalize(code),
		LangCode:   searchtext.DetectScript(code),
	}
	_, err = svc.db.
		NewInsert().
		Model(genre).
		On("CONFLICT (code) DO UPDATE SET updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return genre, nil
}

// LinkBook associates a book with a genre; relinking is a no-op.
func (svc *Service) LinkBook(ctx context.Context, bookID, genreID int) error {
	_, err := svc.db.
		NewInsert().
		Model(&models.BookGenre{BookID: bookID, GenreID: genreID}).
		On("CONFLICT (book_id, genre_id) DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

// SetForBook replaces a book's genre links with the given codes. Genres left
// without any book afterwards are removed.
func (svc *Service) SetForBook(ctx context.Context, bookID int, codes []string) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.BookGenre)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, code := range codes {
		genre, err := svc.Ensure(ctx, code)
		if err != nil {
			return err
		}
		err = svc.LinkBook(ctx, bookID, genre.ID)
		if err != nil {
			return err
		}
	}

	_, err = svc.DeleteOrphans(ctx)
	return err
}

func (svc *Service) RetrieveGenre(ctx context.Context, opts RetrieveGenreOptions) (*models.Genre, error) {
	genre := &models.Genre{}

	q := svc.db.
		NewSelect().
		Model(genre).
		ColumnExpr("g.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted)

	if opts.ID != nil {
		q = q.Where("g.id = ?", *opts.ID)
	}
	if opts.Code != nil {
		q = q.Where("g.code = ?", *opts.Code)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Genre")
		}
		return nil, errors.WithStack(err)
	}

	genre.DisplayName = Translate(genre.Code, opts.Locale)
	return genre, nil
}

func (svc *Service) ListGenres(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, error) {
	g, _, err := svc.listGenresWithTotal(ctx, opts)
	return g, errors.WithStack(err)
}

func (svc *Service) ListGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	opts.includeTotal = true
	return svc.listGenresWithTotal(ctx, opts)
}

func (svc *Service) listGenresWithTotal(ctx context.Context, opts ListGenresOptions) ([]*models.Genre, int, error) {
	genres := []*models.Genre{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&genres).
		ColumnExpr("g.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted).
		Order("g.code ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.CodePrefix != nil && *opts.CodePrefix != "" {
		q = q.Where("g.search_code LIKE ?", searchtext.Normalize(*opts.CodePrefix)+"%")
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	locale := opts.Locale
	if locale == "" {
		locale = "en"
	}
	for _, genre := range genres {
		genre.DisplayName = Translate(genre.Code, locale)
	}

	return genres, total, nil
}

// ListForBook returns a book's genres with display names in the given
// locale.
func (svc *Service) ListForBook(ctx context.Context, bookID int, locale string) ([]*models.Genre, error) {
	genres := []*models.Genre{}
	err := svc.db.
		NewSelect().
		Model(&genres).
		Join("INNER JOIN book_genres bg ON bg.genre_id = g.id").
		Where("bg.book_id = ?", bookID).
		Order("g.code ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if locale == "" {
		locale = "en"
	}
	for _, genre := range genres {
		genre.DisplayName = Translate(genre.Code, locale)
	}
	return genres, nil
}

// DeleteOrphans removes genres no book links to anymore.
func (svc *Service) DeleteOrphans(ctx context.Context) (int, error) {
	result, err := svc.db.
		NewDelete().
		Model((*models.Genre)(nil)).
		Where("id NOT IN (SELECT DISTINCT genre_id FROM book_genres)").
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

func (svc *Service) CountAll(ctx context.Context) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Genre)(nil)).
		Count(ctx)
	return count, errors.WithStack(err)
}
