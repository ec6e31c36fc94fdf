package channels

import "github.com/telecasthq/telecast/pkg/models"

type CreateChannelPayload struct {
	Name              string `json:"name" validate:"required,max=100"`
	Number            string `json:"number" validate:"required,max=10"`
	DefaultScheduleID int    `json:"default_schedule_id" validate:"required"`
}

type UpdateChannelPayload struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Number *string `json:"number,omitempty" validate:"omitempty,max=10"`
}

type ListChannelsQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

type AlternateEntryPayload struct {
	Identity     string        `json:"identity,omitempty" validate:"omitempty,uuid4"`
	ScheduleID   int           `json:"schedule_id" validate:"required"`
	Index        int           `json:"index" validate:"min=0"`
	DaysOfWeek   models.IntSet `json:"days_of_week" validate:"dive,min=0,max=6"`
	DaysOfMonth  models.IntSet `json:"days_of_month" validate:"dive,min=1,max=31"`
	MonthsOfYear models.IntSet `json:"months_of_year" validate:"dive,min=1,max=12"`
}

type ReplaceAlternatesPayload struct {
	Entries []AlternateEntryPayload `json:"entries" validate:"required,min=1,dive"`
}
