package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Genre struct {
	bun.BaseModel `bun:"table:genres,alias:g"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Code       string    `bun:",nullzero" json:"code"`
	SearchCode string    `bun:",nullzero" json:"-"`
	LangCode   int       `json:"lang_code"`
	// DisplayName is resolved through the locale translation table at query
	// time; unknown codes pass through verbatim.
	DisplayName string `bun:"-" json:"display_name,omitempty"`
	BookCount   int    `bun:",scanonly" json:"book_count,omitempty"`
}
