package series

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

type RetrieveSeriesOptions struct {
	ID         *int
	SearchName *string
}

type ListSeriesOptions struct {
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

const bookCountColumn = "(SELECT COUNT(*) FROM book_series bs JOIN books b ON b.id = bs.book_id WHERE bs.series_id = s.id AND b.avail > ?) AS book_count"

// Ensure finds or creates the series row for a name, matching on the
// normalized search key.
func (svc *Service) Ensure(ctx context.Context, rawName string) (*models.Series, error) {
	name := searchtext.StripMeta(rawName)
	if name == "" {
		return nil, errors.New("series name cannot be empty")
	}
	searchName := searchtext.Normalize(name)

	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{SearchName: &searchName})
	if err == nil {
		return series, nil
	}
	if !errors.Is(err, errcodes.NotFound("Series")) {
		return nil, err
	}

	now := time.Now()
	series = &models.Series{
		CreatedAt:  now,
		UpdatedAt:  now,
		Name:       name,
		SearchName: searchName,
		LangCode:   searchtext.DetectScript(name),
	}
	_, err = svc.db.
		NewInsert().
		Model(series).
		On("CONFLICT (search_name) DO UPDATE SET updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return series, nil
}

// LinkBook associates a book with a series at an ordinal; relinking updates
// the ordinal.
func (svc *Service) LinkBook(ctx context.Context, bookID, seriesID, seriesNo int) error {
	_, err := svc.db.
		NewInsert().
		Model(&models.BookSeries{BookID: bookID, SeriesID: seriesID, SeriesNo: seriesNo}).
		On("CONFLICT (book_id, series_id) DO UPDATE SET series_no = EXCLUDED.series_no").
		Exec(ctx)
	return errors.WithStack(err)
}

// Membership is one series a book belongs to, with its position.
type Membership struct {
	Name     string
	SeriesNo int
}

// SetForBook replaces a book's series links with the given memberships.
// Series left without any book afterwards are removed.
func (svc *Service) SetForBook(ctx context.Context, bookID int, memberships []Membership) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.BookSeries)(nil)).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, m := range memberships {
		series, err := svc.Ensure(ctx, m.Name)
		if err != nil {
			return err
		}
		err = svc.LinkBook(ctx, bookID, series.ID, m.SeriesNo)
		if err != nil {
			return err
		}
	}

	_, err = svc.DeleteOrphans(ctx)
	return err
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := svc.db.
		NewSelect().
		Model(series).
		ColumnExpr("s.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.SearchName != nil {
		q = q.Where("s.search_name = ?", *opts.SearchName)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}

	return series, nil
}

func (svc *Service) ListSeries(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, error) {
	s, _, err := svc.listSeriesWithTotal(ctx, opts)
	return s, errors.WithStack(err)
}

func (svc *Service) ListSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	opts.includeTotal = true
	return svc.listSeriesWithTotal(ctx, opts)
}

func (svc *Service) listSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	series := []*models.Series{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&series).
		ColumnExpr("s.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted).
		Order("s.search_name ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.NamePrefix != nil && *opts.NamePrefix != "" {
		q = q.Where("s.search_name LIKE ?", searchtext.Normalize(*opts.NamePrefix)+"%")
	}
	if opts.LangCode != nil {
		q = q.Where("s.lang_code = ?", *opts.LangCode)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return series, total, nil
}

// ListForBook returns the series a book belongs to, with the link ordinal
// projected into SeriesNo.
func (svc *Service) ListForBook(ctx context.Context, bookID int) ([]*models.Series, error) {
	series := []*models.Series{}
	err := svc.db.
		NewSelect().
		Model(&series).
		ColumnExpr("s.*").
		ColumnExpr("bs.series_no AS series_no").
		Join("INNER JOIN book_series bs ON bs.series_id = s.id").
		Where("bs.book_id = ?", bookID).
		Order("bs.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return series, nil
}

// DeleteOrphans removes series no book links to anymore.
func (svc *Service) DeleteOrphans(ctx context.Context) (int, error) {
	result, err := svc.db.
		NewDelete().
		Model((*models.Series)(nil)).
		Where("id NOT IN (SELECT DISTINCT series_id FROM book_series)").
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
		Model((*models.Series)(nil)).
		Count(ctx)
	return count, errors.WithStack(err)
}
