package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Channel struct {
	bun.BaseModel `bun:"table:channels,alias:c"`

	ID                int                  `bun:",pk,nullzero" json:"id"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Name              string               `bun:",nullzero" json:"name"`
	Number            string               `bun:",nullzero" json:"number"`
	DefaultScheduleID int                  `bun:",nullzero" json:"default_schedule_id"`
	DefaultSchedule   *Schedule            `bun:"rel:belongs-to,join:default_schedule_id=id" json:"default_schedule,omitempty"`
	Alternates        []*ScheduleAlternate `bun:"rel:has-many" json:"alternates,omitempty"`
}
