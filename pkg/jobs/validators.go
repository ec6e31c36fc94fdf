package jobs

type CreateJobPayload struct {
	Type string      `json:"type" validate:"required,oneof=scan rebuild_playout"`
	Data interface{} `json:"data"`
}

type ListJobsQuery struct {
	Limit  int      `query:"limit" json:"limit,omitempty" validate:"min=1,max=100"`
	Offset int      `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status []string `query:"status" json:"status,omitempty" validate:"dive,oneof=pending in_progress completed failed canceled"`
	Type   *string  `query:"type" json:"type,omitempty" validate:"omitempty,oneof=scan rebuild_playout"`
}
