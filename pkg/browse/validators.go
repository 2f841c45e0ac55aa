package browse

type DrilldownQuery struct {
	Prefix   string `query:"prefix" json:"prefix,omitempty" validate:"omitempty,max=100"`
	LangCode *int   `query:"lang_code" json:"lang_code,omitempty" validate:"omitempty,oneof=1 2 3 9"`
	// Locale only affects genre display names when listing directly.
	Locale string `query:"locale" json:"locale,omitempty" default:"en" validate:"omitempty,max=8"`
}
