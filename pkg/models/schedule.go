package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Schedule is an opaque programming unit. What a schedule plays is the
// playout builder's concern; the core only tracks which schedule governs
// which day.
type Schedule struct {
	bun.BaseModel `bun:"table:schedules,alias:s"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",nullzero" json:"name"`
}
