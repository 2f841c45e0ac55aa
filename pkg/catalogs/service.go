package catalogs

import (
	"context"
	"database/sql"
	"path"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveCatalogOptions struct {
	ID   *int
	Path *string
}

type ListCatalogsOptions struct {
	Limit    *int
	Offset   *int
	ParentID *int
	// RootsOnly lists catalogs without a parent. Ignored when ParentID is set.
	RootsOnly bool

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// bookCountColumn counts only available books so catalogs whose contents were
// soft-deleted read as empty.
const bookCountColumn = "(SELECT COUNT(*) FROM books b WHERE b.catalog_id = c.id AND b.avail > ?) AS book_count"

// Ensure returns the catalog row for a virtual directory path, creating it
// and any missing ancestors. The first segment is a library root, so the
// path is never empty.
func (svc *Service) Ensure(ctx context.Context, relPath string) (*models.Catalog, error) {
	relPath = path.Clean("/" + relPath)[1:]
	if relPath == "" {
		return nil, errors.New("catalog path cannot be empty")
	}

	var parentID *int
	var catalog *models.Catalog
	for _, p := range ancestry(relPath) {
		c, err := svc.ensureOne(ctx, p, parentID)
		if err != nil {
			return nil, err
		}
		id := c.ID
		parentID = &id
		catalog = c
	}
	return catalog, nil
}

// ancestry expands "a/b/c" into ["a", "a/b", "a/b/c"].
func ancestry(relPath string) []string {
	paths := []string{}
	for i := range relPath {
		if relPath[i] == '/' {
			paths = append(paths, relPath[:i])
		}
	}
	return append(paths, relPath)
}

func (svc *Service) ensureOne(ctx context.Context, relPath string, parentID *int) (*models.Catalog, error) {
	catalog := &models.Catalog{}
	err := svc.db.
		NewSelect().
		Model(catalog).
		Where("c.path = ?", relPath).
		Scan(ctx)
	if err == nil {
		return catalog, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	catalog = &models.Catalog{
		CreatedAt: now,
		UpdatedAt: now,
		ParentID:  parentID,
		Path:      relPath,
		Name:      path.Base("/" + relPath),
	}
	_, err = svc.db.
		NewInsert().
		Model(catalog).
		On("CONFLICT (path) DO UPDATE SET updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return catalog, nil
}

func (svc *Service) RetrieveCatalog(ctx context.Context, opts RetrieveCatalogOptions) (*models.Catalog, error) {
	catalog := &models.Catalog{}

	q := svc.db.
		NewSelect().
		Model(catalog).
		ColumnExpr("c.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted).
		Relation("Parent")

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}
	if opts.Path != nil {
		q = q.Where("c.path = ?", *opts.Path)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Catalog")
		}
		return nil, errors.WithStack(err)
	}

	return catalog, nil
}

func (svc *Service) ListCatalogs(ctx context.Context, opts ListCatalogsOptions) ([]*models.Catalog, error) {
	c, _, err := svc.listCatalogsWithTotal(ctx, opts)
	return c, errors.WithStack(err)
}

func (svc *Service) ListCatalogsWithTotal(ctx context.Context, opts ListCatalogsOptions) ([]*models.Catalog, int, error) {
	opts.includeTotal = true
	return svc.listCatalogsWithTotal(ctx, opts)
}

func (svc *Service) listCatalogsWithTotal(ctx context.Context, opts ListCatalogsOptions) ([]*models.Catalog, int, error) {
	catalogs := []*models.Catalog{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&catalogs).
		ColumnExpr("c.*").
		ColumnExpr(bookCountColumn, models.AvailDeleted).
		Order("c.name ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.ParentID != nil {
		q = q.Where("c.parent_id = ?", *opts.ParentID)
	} else if opts.RootsOnly {
		q = q.Where("c.parent_id IS NULL")
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return catalogs, total, nil
}

// Breadcrumbs returns the chain of catalogs from the root down to the given
// catalog, inclusive.
func (svc *Service) Breadcrumbs(ctx context.Context, id int) ([]*models.Catalog, error) {
	chain := []*models.Catalog{}
	next := &id
	for next != nil {
		catalog, err := svc.RetrieveCatalog(ctx, RetrieveCatalogOptions{ID: next})
		if err != nil {
			return nil, err
		}
		chain = append([]*models.Catalog{catalog}, chain...)
		next = catalog.ParentID
	}
	return chain, nil
}

// DeleteEmpty removes catalogs that hold no book rows and no child catalogs,
// repeating until a pass deletes nothing so emptied parents unwind too.
func (svc *Service) DeleteEmpty(ctx context.Context) (int64, error) {
	var deleted int64
	for {
		res, err := svc.db.
			NewDelete().
			Model((*models.Catalog)(nil)).
			Where("c.parent_id IS NOT NULL").
			Where("NOT EXISTS (SELECT 1 FROM books b WHERE b.catalog_id = c.id)").
			Where("NOT EXISTS (SELECT 1 FROM catalogs ch WHERE ch.parent_id = c.id)").
			Exec(ctx)
		if err != nil {
			return deleted, errors.WithStack(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, errors.WithStack(err)
		}
		if n == 0 {
			return deleted, nil
		}
		deleted += n
	}
}
