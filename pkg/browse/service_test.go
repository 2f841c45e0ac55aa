package browse

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/shelfdex/shelfdex/pkg/authors"
	"github.com/shelfdex/shelfdex/pkg/genres"
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

func seedAuthors(t *testing.T, db *bun.DB, names ...string) {
	t.Helper()
	svc := authors.NewService(db)
	for _, name := range names {
		_, err := svc.Ensure(context.Background(), name)
		require.NoError(t, err)
	}
}

func TestDrilldown_GroupsByNextCharacter(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	// Single-word names keep their spelling through normalization.
	seedAuthors(t, db, "Doe", "Downey", "Smith")

	groups, listDirectly, err := svc.Drilldown(ctx, DrilldownOptions{
		Kind:      KindAuthors,
		Threshold: 1,
	})
	require.NoError(t, err)
	assert.False(t, listDirectly)
	require.Len(t, groups, 2)

	assert.Equal(t, "D", groups[0].Prefix)
	assert.Equal(t, 2, groups[0].Count)
	assert.True(t, groups[0].DrillDeeper)

	assert.Equal(t, "S", groups[1].Prefix)
	assert.Equal(t, 1, groups[1].Count)
	assert.False(t, groups[1].DrillDeeper)

	// One level deeper both names still share "DO", so the drilldown keeps
	// going instead of listing.
	groups, listDirectly, err = svc.Drilldown(ctx, DrilldownOptions{
		Kind:      KindAuthors,
		Prefix:    "D",
		Threshold: 1,
	})
	require.NoError(t, err)
	assert.False(t, listDirectly)
	require.Len(t, groups, 1)
	assert.Equal(t, "DO", groups[0].Prefix)
	assert.Equal(t, 2, groups[0].Count)
	assert.True(t, groups[0].DrillDeeper)

	groups, listDirectly, err = svc.Drilldown(ctx, DrilldownOptions{
		Kind:      KindAuthors,
		Prefix:    "DOE",
		Threshold: 1,
	})
	require.NoError(t, err)
	assert.True(t, listDirectly)
	assert.Nil(t, groups)
}

func TestDrilldown_CaseInsensitivePrefix(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	seedAuthors(t, db, "Doe", "Downey", "Dickens")

	groups, listDirectly, err := svc.Drilldown(ctx, DrilldownOptions{
		Kind:      KindAuthors,
		Prefix:    "d",
		Threshold: 1,
	})
	require.NoError(t, err)
	assert.False(t, listDirectly)
	require.Len(t, groups, 2)
	assert.Equal(t, "DI", groups[0].Prefix)
	assert.Equal(t, "DO", groups[1].Prefix)
}

func TestDrilldown_GenresByCode(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	genreSvc := genres.NewService(db)
	for _, code := range []string{"sf", "sf_history", "prose"} {
		_, err := genreSvc.Ensure(ctx, code)
		require.NoError(t, err)
	}

	groups, listDirectly, err := svc.Drilldown(ctx, DrilldownOptions{
		Kind:      KindGenres,
		Threshold: 1,
	})
	require.NoError(t, err)
	assert.False(t, listDirectly)
	require.Len(t, groups, 2)
	assert.Equal(t, "P", groups[0].Prefix)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, "S", groups[1].Prefix)
	assert.Equal(t, 2, groups[1].Count)
	assert.True(t, groups[1].DrillDeeper)
}

func TestDrilldown_TitlesSkipUnavailable(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for i, row := range []struct {
		title string
		avail int
	}{
		{"Alpha", models.AvailConfirmed},
		{"Arrow", models.AvailConfirmed},
		{"Axiom", models.AvailDeleted},
	} {
		book := &models.Book{
			CatalogID:   1,
			Filename:    string(rune('a'+i)) + ".fb2",
			Path:        "library",
			Format:      models.FormatFB2,
			Title:       row.title,
			SearchTitle: strings.ToUpper(row.title),
			LangCode:    2,
			Avail:       row.avail,
			Fingerprint: "1:1",
		}
		_, err := db.NewInsert().Model(book).Exec(ctx)
		require.NoError(t, err)
	}

	groups, listDirectly, err := svc.Drilldown(ctx, DrilldownOptions{
		Kind:      KindTitles,
		Prefix:    "A",
		Threshold: 1,
	})
	require.NoError(t, err)
	assert.False(t, listDirectly)
	require.Len(t, groups, 2)
	assert.Equal(t, "AL", groups[0].Prefix)
	assert.Equal(t, "AR", groups[1].Prefix)
}

func TestDrilldown_UnknownKind(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)

	_, _, err := svc.Drilldown(context.Background(), DrilldownOptions{
		Kind:      "publishers",
		Threshold: 1,
	})
	require.Error(t, err)
}
