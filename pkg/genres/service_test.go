package genres

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

func TestEnsure_NormalizesCode(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre, err := svc.Ensure(ctx, " SF ")
	require.NoError(t, err)
	assert.Equal(t, "sf", genre.Code)

	same, err := svc.Ensure(ctx, "sf")
	require.NoError(t, err)
	assert.Equal(t, genre.ID, same.ID)

	count, err := db.NewSelect().Model((*models.Genre)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRetrieveGenre_Translations(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre, err := svc.Ensure(ctx, "sf")
	require.NoError(t, err)

	en, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &genre.ID, Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", en.DisplayName)

	ru, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &genre.ID, Locale: "ru"})
	require.NoError(t, err)
	assert.Equal(t, "Научная фантастика", ru.DisplayName)

	// Unknown locales fall back to English.
	fallback, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &genre.ID, Locale: "de"})
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", fallback.DisplayName)
}

func TestEnsure_UnknownCodePassesThrough(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genre, err := svc.Ensure(ctx, "totally_custom_genre")
	require.NoError(t, err)

	found, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &genre.ID, Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, "totally_custom_genre", found.DisplayName)
}

func TestListGenres_Locale(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Ensure(ctx, "det_classic")
	require.NoError(t, err)
	_, err = svc.Ensure(ctx, "sf")
	require.NoError(t, err)

	genres, total, err := svc.ListGenresWithTotal(ctx, ListGenresOptions{Locale: "ru"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, genres, 2)
	assert.Equal(t, "det_classic", genres[0].Code)
	assert.NotEmpty(t, genres[0].DisplayName)
	assert.NotEqual(t, genres[0].Code, genres[0].DisplayName)
}

func TestSetForBook_ReplacesLinksAndPrunes(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := &models.Book{
		CatalogID:   1,
		Filename:    "dune.fb2",
		Path:        "library",
		Format:      models.FormatFB2,
		Title:       "Dune",
		SearchTitle: "DUNE",
		LangCode:    2,
		Avail:       models.AvailConfirmed,
		Fingerprint: "1:1",
	}
	_, err := db.NewInsert().Model(book).Returning("*").Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.SetForBook(ctx, book.ID, []string{"sf", "adventure"}))

	linked, err := svc.ListForBook(ctx, book.ID, "en")
	require.NoError(t, err)
	require.Len(t, linked, 2)

	require.NoError(t, svc.SetForBook(ctx, book.ID, []string{"sf"}))

	linked, err = svc.ListForBook(ctx, book.ID, "en")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "sf", linked[0].Code)

	total, err := svc.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
