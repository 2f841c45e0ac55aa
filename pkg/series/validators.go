package series

type ListSeriesQuery struct {
	Limit    int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset   int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Prefix   *string `query:"prefix" json:"prefix,omitempty" validate:"omitempty,max=100"`
	LangCode *int    `query:"lang_code" json:"lang_code,omitempty" validate:"omitempty,oneof=1 2 3 9"`
}
