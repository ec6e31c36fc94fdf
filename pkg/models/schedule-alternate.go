package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ScheduleAlternate overrides a channel's default schedule on days matching
// all of its non-empty condition sets. An empty set matches any value for
// that dimension. Weekdays use Go's time.Weekday numbering (0 = Sunday).
//
// The alternate holding the maximum index per channel is never persisted as
// a row; it becomes the channel's default schedule reference instead.
type ScheduleAlternate struct {
	bun.BaseModel `bun:"table:schedule_alternates,alias:sa"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Identity     string    `bun:",nullzero" json:"identity"`
	ChannelID    int       `bun:",nullzero" json:"channel_id"`
	ScheduleID   int       `bun:",nullzero" json:"schedule_id"`
	Index        int       `bun:"priority_index" json:"index"`
	DaysOfWeek   IntSet    `bun:"days_of_week,type:text" json:"days_of_week"`
	DaysOfMonth  IntSet    `bun:"days_of_month,type:text" json:"days_of_month"`
	MonthsOfYear IntSet    `bun:"months_of_year,type:text" json:"months_of_year"`
}
