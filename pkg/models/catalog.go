package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Catalog struct {
	bun.BaseModel `bun:"table:catalogs,alias:c"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ParentID  *int      `json:"parent_id"`
	Parent    *Catalog  `bun:"rel:belongs-to,join:parent_id=id" json:"parent,omitempty"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	BookCount int       `bun:",scanonly" json:"book_count"`
}
