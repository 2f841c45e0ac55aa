package series

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

func createTestBook(t *testing.T, db *bun.DB, title, filename string) *models.Book {
	t.Helper()
	book := &models.Book{
		CatalogID:   1,
		Filename:    filename,
		Path:        "library",
		Format:      models.FormatFB2,
		Title:       title,
		SearchTitle: title,
		LangCode:    2,
		Avail:       models.AvailConfirmed,
		Fingerprint: "1:1",
	}
	_, err := db.NewInsert().Model(book).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return book
}

func TestEnsure_DeduplicatesOnSearchName(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	first, err := svc.Ensure(ctx, "Dune Chronicles")
	require.NoError(t, err)
	assert.Equal(t, "Dune Chronicles", first.Name)
	assert.Equal(t, "DUNE CHRONICLES", first.SearchName)

	second, err := svc.Ensure(ctx, "dune chronicles")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestLinkBook_UpdatesSeriesNumber(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Dune Messiah", "messiah.fb2")
	s, err := svc.Ensure(ctx, "Dune Chronicles")
	require.NoError(t, err)

	require.NoError(t, svc.LinkBook(ctx, book.ID, s.ID, 1))
	require.NoError(t, svc.LinkBook(ctx, book.ID, s.ID, 2))

	linked, err := svc.ListForBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, 2, linked[0].SeriesNo)
}

func TestListSeries_PrefixAndCount(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Dune", "dune.fb2")

	dune, err := svc.Ensure(ctx, "Dune Chronicles")
	require.NoError(t, err)
	_, err = svc.Ensure(ctx, "Foundation")
	require.NoError(t, err)

	require.NoError(t, svc.LinkBook(ctx, book.ID, dune.ID, 1))

	prefix := "du"
	seriesList, total, err := svc.ListSeriesWithTotal(ctx, ListSeriesOptions{NamePrefix: &prefix})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, seriesList, 1)
	assert.Equal(t, "Dune Chronicles", seriesList[0].Name)
	assert.Equal(t, 1, seriesList[0].BookCount)
}

func TestDeleteOrphans(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Dune", "dune.fb2")

	kept, err := svc.Ensure(ctx, "Dune Chronicles")
	require.NoError(t, err)
	require.NoError(t, svc.LinkBook(ctx, book.ID, kept.ID, 1))

	_, err = svc.Ensure(ctx, "Orphaned Series")
	require.NoError(t, err)

	deleted, err := svc.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	total, err := svc.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSetForBook_ReplacesMemberships(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Dune Messiah", "messiah.fb2")
	require.NoError(t, svc.SetForBook(ctx, book.ID, []Membership{
		{Name: "Dune Chronicles", SeriesNo: 2},
		{Name: "SF Masterworks", SeriesNo: 0},
	}))

	linked, err := svc.ListForBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, linked, 2)

	require.NoError(t, svc.SetForBook(ctx, book.ID, []Membership{
		{Name: "Dune Chronicles", SeriesNo: 3},
	}))

	linked, err = svc.ListForBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "Dune Chronicles", linked[0].Name)
	assert.Equal(t, 3, linked[0].SeriesNo)

	total, err := svc.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
