package books

type ListBooksQuery struct {
	Limit       int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset      int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	CatalogID   *int    `query:"catalog_id" json:"catalog_id,omitempty" validate:"omitempty,min=1"`
	AuthorID    *int    `query:"author_id" json:"author_id,omitempty" validate:"omitempty,min=1"`
	SeriesID    *int    `query:"series_id" json:"series_id,omitempty" validate:"omitempty,min=1"`
	GenreID     *int    `query:"genre_id" json:"genre_id,omitempty" validate:"omitempty,min=1"`
	Title       *string `query:"title" json:"title,omitempty" validate:"omitempty,max=300"`
	Search      *string `query:"search" json:"search,omitempty" validate:"omitempty,max=300"`
	LangCode    *int    `query:"lang_code" json:"lang_code,omitempty" validate:"omitempty,oneof=1 2 3 9"`
	HideDoubles bool    `query:"hide_doubles" json:"hide_doubles,omitempty"`
}

type RandomBooksQuery struct {
	Count int `query:"count" json:"count,omitempty" default:"10" validate:"min=1,max=50"`
}

type SetBookAuthorsParams struct {
	Authors []string `json:"authors" validate:"max=50,dive,min=1,max=200"`
}

type SetBookSeriesParams struct {
	Series []BookSeriesParams `json:"series" validate:"max=20,dive"`
}

type BookSeriesParams struct {
	Name     string `json:"name" validate:"required,max=200"`
	SeriesNo int    `json:"series_no" validate:"min=0,max=10000"`
}

type SetBookGenresParams struct {
	Genres []string `json:"genres" validate:"max=50,dive,min=1,max=100"`
}
