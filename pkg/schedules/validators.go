package schedules

type CreateSchedulePayload struct {
	Name string `json:"name" validate:"required"`
}

type UpdateSchedulePayload struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
}

type ListSchedulesQuery struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}
