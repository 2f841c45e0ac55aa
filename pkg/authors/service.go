package authors

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

type RetrieveAuthorOptions struct {
	ID         *int
	SearchName *string
}

type ListAuthorsOptions struct {
	Limit      *int
	Offset     *int
	NamePrefix *string
	LangCode   *int

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// bookCountColumn counts available books through the link table.
const bookCountColumn = "(SELECT COUNT(*) FROM book_authors ba JOIN books b ON b.id = ba.book_id WHERE ba.author_id = a.id AND b.avail > ?) AS book_count"

// Ensure finds or creates the author row for a raw display name. Names are
// canonicalized to "Last First" order and matched on the normalized search
// key, so "John Doe" and "Doe, John" resolve to one row.
func (svc *Service) Ensure(ctx context.Context, rawName string) (*models.Author, error) {
	fullName := searchtext.NormalizeAuthorName(rawName)
	if fullName == "" {
		return nil, errors.New("author name cannot be empty")
	}
	searchName := searchtext.Normalize(fullName)

	author, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{SearchName: &searchName})
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, errcodes.NotFound("Author")) {
		return nil, err
	}

	now := time.Now()
	author = &models.Author{
		CreatedAt:  now,
		UpdatedAt:  now,
		FullName:   fullName,
		SearchName: searchName,
		LangCode:   searchtext.DetectScript(fullName),
	}
	_, err = svc.db.
		NewInsert().
		Model(author).
		On("CONFLICT (search_name) DO UPDATE SET updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return author, nil
}

// LinkBook associates a book with an author; relinking is a no-op.
func (svc *Service) LinkBook(ctx context.Context, bookID, authorID int) error {
	_, err := svc.db.
		NewInsert().
		Model(&models.BookAuthor{BookID: bookID, AuthorID: authorID}).
		On("CONFLICT (book_id, author_id) DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

// SetForBook replaces a book's author links with the given names. Authors
// left without any book afterwards are removed.
func (svc *Service) SetForBook(ctx context.Context, bookID int, names []string) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.BookAuthor)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, name := range names {
		author, err := svc.Ensure(ctx, name)
		if err != nil {
			return err
		}
		err = svc.LinkBook(ctx, bookID, author.ID)
		if err != nil {
			return err
		}
	}

	_, err = svc.DeleteOrphans(ctx)
	return err
}

func (svc *Service) RetrieveAuthor(ctx context.Context, opts RetrieveAuthorOptions) (*models.Author, error) {
	author := &models.Author{}

	q := svc.db.
		NewSelect().
		Model(author).
		ColumnExpr("a.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted)

	if opts.ID != nil {
		q = q.Where("a.id = ?", *opts.ID)
	}
	if opts.SearchName != nil {
		q = q.Where("a.search_name = ?", *opts.SearchName)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Author")
		}
		return nil, errors.WithStack(err)
	}

	return author, nil
}

func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	a, _, err := svc.listAuthorsWithTotal(ctx, opts)
	return a, errors.WithStack(err)
}

func (svc *Service) ListAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	opts.includeTotal = true
	return svc.listAuthorsWithTotal(ctx, opts)
}

func (svc *Service) listAuthorsWithTotal(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, int, error) {
	authors := []*models.Author{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&authors).
		ColumnExpr("a.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted).
		Order("a.search_name ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.NamePrefix != nil && *opts.NamePrefix != "" {
		q = q.Where("a.search_name LIKE ?", searchtext.Normalize(*opts.NamePrefix)+"%")
	}
	if opts.LangCode != nil {
		q = q.Where("a.lang_code = ?", *opts.LangCode)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return authors, total, nil
}

// ListForBook returns a book's authors in link order.
func (svc *Service) ListForBook(ctx context.Context, bookID int) ([]*models.Author, error) {
	authors := []*models.Author{}
	err := svc.db.
		NewSelect().
		Model(&authors).
		Join("INNER JOIN book_authors ba ON ba.author_id = a.id").
		Where("ba.book_id = ?", bookID).
		Order("ba.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return authors, nil
}

// DeleteOrphans removes authors no book links to anymore.
func (svc *Service) DeleteOrphans(ctx context.Context) (int, error) {
	result, err := svc.db.
		NewDelete().
		Model((*models.Author)(nil)).
		Where("id NOT IN (SELECT DISTINCT author_id FROM book_authors)").
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
		Model((*models.Author)(nil)).
		Count(ctx)
	return count, errors.WithStack(err)
}
