package counters

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shelfdex/shelfdex/pkg/migrations"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestUpdateAll(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	catalog := &models.Catalog{Path: "library", Name: "library"}
	_, err := db.NewInsert().Model(catalog).Returning("*").Exec(ctx)
	require.NoError(t, err)

	for i, avail := range []int{models.AvailConfirmed, models.AvailConfirmed, models.AvailDeleted} {
		book := &models.Book{
			CatalogID:   catalog.ID,
			Filename:    string(rune('a'+i)) + ".fb2",
			Path:        "library",
			Format:      models.FormatFB2,
			Title:       "Book",
			SearchTitle: "BOOK",
			LangCode:    2,
			Avail:       avail,
			Fingerprint: "1:1",
		}
		_, err = db.NewInsert().Model(book).Exec(ctx)
		require.NoError(t, err)
	}

	author := &models.Author{FullName: "Doe John", SearchName: "DOE JOHN", LangCode: 2}
	_, err = db.NewInsert().Model(author).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateAll(ctx))

	// Soft-deleted books are not counted.
	allbooks, err := svc.Retrieve(ctx, models.CounterAllBooks)
	require.NoError(t, err)
	assert.Equal(t, int64(2), allbooks.Value)

	allcatalogs, err := svc.Retrieve(ctx, models.CounterAllCatalogs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), allcatalogs.Value)

	allauthors, err := svc.Retrieve(ctx, models.CounterAllAuthors)
	require.NoError(t, err)
	assert.Equal(t, int64(1), allauthors.Value)
}

func TestRetrieve_UnknownCounter(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.Retrieve(context.Background(), "nope")
	require.Error(t, err)
}

func TestList_SeededCounters(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	counters, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, counters, 5)

	names := make([]string, len(counters))
	for i, counter := range counters {
		names[i] = counter.Name
	}
	assert.Equal(t, []string{
		models.CounterAllAuthors,
		models.CounterAllBooks,
		models.CounterAllCatalogs,
		models.CounterAllGenres,
		models.CounterAllSeries,
	}, names)
}
