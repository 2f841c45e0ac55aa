package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Availability states for a book row. Rows are never deleted eagerly during a
// scan: the whole index is marked unverified up front, confirmed as files are
// observed, and whatever is left unverified at the end is deleted (softly or
// physically, per the configured retention policy).
const (
	AvailDeleted    = 0
	AvailUnverified = 1
	AvailConfirmed  = 2
)

const (
	FormatFB2  = "fb2"
	FormatEPUB = "epub"
	FormatMOBI = "mobi"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int       `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CatalogID   int       `bun:",nullzero" json:"catalog_id"`
	Catalog     *Catalog  `bun:"rel:belongs-to,join:catalog_id=id" json:"catalog,omitempty"`
	Filename    string    `bun:",nullzero" json:"filename"`
	Path        string    `json:"path"`
	Format      string    `bun:",nullzero" json:"format"`
	Title       string    `bun:",nullzero" json:"title"`
	SearchTitle string    `bun:",nullzero" json:"-"`
	Annotation  string    `json:"annotation,omitempty"`
	DocDate     string    `json:"doc_date,omitempty"`
	Lang        string    `json:"lang,omitempty"`
	LangCode    int       `json:"lang_code"`
	Size        int64     `json:"size"`
	Fingerprint string    `json:"-"`
	Avail       int       `json:"avail"`
	HasCover    bool      `json:"has_cover"`
	CoverMime   string    `json:"cover_mime,omitempty"`
}

type BookAuthor struct {
	bun.BaseModel `bun:"table:book_authors,alias:ba"`

	ID       int     `bun:",pk,nullzero" json:"id"`
	BookID   int     `bun:",nullzero" json:"book_id"`
	AuthorID int     `bun:",nullzero" json:"author_id"`
	Author   *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
}

type BookSeries struct {
	bun.BaseModel `bun:"table:book_series,alias:bs"`

	ID       int     `bun:",pk,nullzero" json:"id"`
	BookID   int     `bun:",nullzero" json:"book_id"`
	SeriesID int     `bun:",nullzero" json:"series_id"`
	SeriesNo int     `json:"series_no"`
	Series   *Series `bun:"rel:belongs-to,join:series_id=id" json:"series,omitempty"`
}

type BookGenre struct {
	bun.BaseModel `bun:"table:book_genres,alias:bg"`

	ID      int    `bun:",pk,nullzero" json:"id"`
	BookID  int    `bun:",nullzero" json:"book_id"`
	GenreID int    `bun:",nullzero" json:"genre_id"`
	Genre   *Genre `bun:"rel:belongs-to,join:genre_id=id" json:"genre,omitempty"`
}
