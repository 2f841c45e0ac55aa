// Package counters maintains the aggregate totals refreshed after every scan
// pass so listing endpoints can report library sizes without counting on
// demand.
package counters

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/errcodes"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// counterQueries computes each counter's value. Books count only available
// rows; the entity counters count every row since orphans are pruned by the
// scan itself.
var counterQueries = map[string]string{
	models.CounterAllBooks:    "SELECT COUNT(*) FROM books WHERE avail > 0",
	models.CounterAllCatalogs: "SELECT COUNT(*) FROM catalogs",
	models.CounterAllAuthors:  "SELECT COUNT(*) FROM authors",
	models.CounterAllGenres:   "SELECT COUNT(*) FROM genres",
	models.CounterAllSeries:   "SELECT COUNT(*) FROM series",
}

// UpdateAll refreshes every counter in one transaction.
func (svc *Service) UpdateAll(ctx context.Context) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()
		for name, query := range counterQueries {
			var value int64
			if err := tx.NewRaw(query).Scan(ctx, &value); err != nil {
				return errors.WithStack(err)
			}

			_, err := tx.
				NewUpdate().
				Model((*models.Counter)(nil)).
				Set("value = ?", value).
				Set("updated_at = ?", now).
				Where("name = ?", name).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
}

func (svc *Service) Retrieve(ctx context.Context, name string) (*models.Counter, error) {
	counter := &models.Counter{}
	err := svc.db.
		NewSelect().
		Model(counter).
		Where("cn.name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Counter")
		}
		return nil, errors.WithStack(err)
	}
	return counter, nil
}

func (svc *Service) List(ctx context.Context) ([]*models.Counter, error) {
	counters := []*models.Counter{}
	err := svc.db.
		NewSelect().
		Model(&counters).
		Order("cn.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return counters, nil
}
