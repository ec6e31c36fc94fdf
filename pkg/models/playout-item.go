package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PlayoutItem is one scheduled slot on a channel's timeline. The core only
// reads these to bound the lookahead window after a schedule change; building
// the timeline itself belongs to the playout worker.
type PlayoutItem struct {
	bun.BaseModel `bun:"table:playout_items,alias:pi"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ChannelID  int       `bun:",nullzero" json:"channel_id"`
	ScheduleID int       `bun:",nullzero" json:"schedule_id"`
	Title      string    `json:"title"`
	StartAt    time.Time `bun:",nullzero" json:"start_at"`
	FinishAt   time.Time `bun:",nullzero" json:"finish_at"`
}
