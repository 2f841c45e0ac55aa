package catalogs

type ListCatalogsQuery struct {
	Limit     int  `query:"limit" json:"limit,omitempty" default:"100" validate:"min=1,max=500"`
	Offset    int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	ParentID  *int `query:"parent_id" json:"parent_id,omitempty" validate:"omitempty,min=1"`
	RootsOnly bool `query:"roots_only" json:"roots_only,omitempty"`
}
