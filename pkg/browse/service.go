// Package browse implements alphabet drilldown over the normalized search
// keys: at each level names under the current prefix are grouped by their
// next character, until few enough remain to list directly.
package browse

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shelfdex/shelfdex/pkg/models"
	"github.com/shelfdex/shelfdex/pkg/searchtext"
	"github.com/uptrace/bun"
)

const (
	KindAuthors = "authors"
	KindSeries  = "series"
	KindGenres  = "genres"
	KindTitles  = "titles"
)

// Group is one drilldown bucket: every name under the current prefix whose
// next character extends it to Prefix.
type Group struct {
	Prefix      string `json:"prefix"`
	Count       int    `json:"count"`
	DrillDeeper bool   `json:"drill_deeper"`
}

type DrilldownOptions struct {
	Kind     string
	Prefix   string
	LangCode *int
	// Threshold is the result-count ceiling below which the level should be
	// listed directly instead of grouped.
	Threshold int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Drilldown computes the buckets for one level. When the names under the
// prefix fit within the threshold it returns listDirectly=true and no groups;
// the caller should fetch the actual rows with the same prefix filter.
func (svc *Service) Drilldown(ctx context.Context, opts DrilldownOptions) (groups []Group, listDirectly bool, err error) {
	table, column, availFilter, err := kindSource(opts.Kind)
	if err != nil {
		return nil, false, err
	}

	prefix := searchtext.Normalize(opts.Prefix)

	total, err := svc.countMatches(ctx, table, column, availFilter, prefix, opts.LangCode)
	if err != nil {
		return nil, false, err
	}
	if total <= opts.Threshold {
		return nil, true, nil
	}

	prefixLen := len([]rune(prefix))
	q := svc.db.
		NewSelect().
		TableExpr(table).
		ColumnExpr("SUBSTR(?, 1, ?) AS prefix", bun.Ident(column), prefixLen+1).
		ColumnExpr("COUNT(*) AS cnt").
		Where("SUBSTR(?, 1, ?) = ?", bun.Ident(column), prefixLen, prefix).
		GroupExpr("SUBSTR(?, 1, ?)", bun.Ident(column), prefixLen+1).
		OrderExpr("prefix ASC")
	if availFilter {
		q = q.Where("avail > ?", models.AvailDeleted)
	}
	if opts.LangCode != nil {
		q = q.Where("lang_code = ?", *opts.LangCode)
	}

	rows := []struct {
		Prefix string `bun:"prefix"`
		Cnt    int    `bun:"cnt"`
	}{}
	err = q.Scan(ctx, &rows)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}

	groups = make([]Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, Group{
			Prefix:      row.Prefix,
			Count:       row.Cnt,
			DrillDeeper: row.Cnt > opts.Threshold,
		})
	}
	return groups, false, nil
}

func (svc *Service) countMatches(ctx context.Context, table, column string, availFilter bool, prefix string, langCode *int) (int, error) {
	q := svc.db.
		NewSelect().
		TableExpr(table).
		ColumnExpr("COUNT(*)")
	if prefix != "" {
		q = q.Where("SUBSTR(?, 1, ?) = ?", bun.Ident(column), len([]rune(prefix)), prefix)
	}
	if availFilter {
		q = q.Where("avail > ?", models.AvailDeleted)
	}
	if langCode != nil {
		q = q.Where("lang_code = ?", *langCode)
	}

	var total int
	err := q.Scan(ctx, &total)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, errors.WithStack(err)
	}
	return total, nil
}

func kindSource(kind string) (table, column string, availFilter bool, err error) {
	switch kind {
	case KindAuthors:
		return "authors", "search_name", false, nil
	case KindSeries:
		return "series", "search_name", false, nil
	case KindGenres:
		return "genres", "search_code", false, nil
	case KindTitles:
		return "books", "search_title", true, nil
	}
	return "", "", false, errors.Errorf("unknown browse kind %q", kind)
}
