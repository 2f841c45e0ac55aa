package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Counter names refreshed after every scan.
const (
	CounterAllBooks    = "allbooks"
	CounterAllCatalogs = "allcatalogs"
	CounterAllAuthors  = "allauthors"
	CounterAllGenres   = "allgenres"
	CounterAllSeries   = "allseries"
)

type Counter struct {
	bun.BaseModel `bun:"table:counters,alias:cn"`

	Name      string    `bun:",pk" json:"name"`
	Value     int64     `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
