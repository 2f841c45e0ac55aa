package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FullName   string    `bun:",nullzero" json:"full_name"`
	SearchName string    `bun:",nullzero" json:"-"`
	LangCode   int       `json:"lang_code"`
	BookCount  int       `bun:",scanonly" json:"book_count,omitempty"`
}
