package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `bun:",nullzero" json:"name"`
	SearchName string    `bun:",nullzero" json:"-"`
	LangCode   int       `json:"lang_code"`
	// SeriesNo is only populated when the series is loaded for a specific
	// book; the ordinal belongs to the link, not the series.
	SeriesNo  int `bun:",scanonly" json:"series_no,omitempty"`
	BookCount int `bun:",scanonly" json:"book_count,omitempty"`
}
