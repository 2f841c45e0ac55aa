package genres

type ListGenresQuery struct {
	Limit  int    `query:"limit" json:"limit,omitempty" default:"100" validate:"min=1,max=500"`
	Offset int    `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Locale string `query:"locale" json:"locale,omitempty" default:"en" validate:"omitempty,max=8"`
}

type RetrieveGenreQuery struct {
	Locale string `query:"locale" json:"locale,omitempty" default:"en" validate:"omitempty,max=8"`
}
