package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCanceled   = "canceled"
)

const (
	JobTypeScan           = "scan"
	JobTypeRebuildPlayout = "rebuild_playout"
)

const (
	// RebuildModeRefresh recomputes the timeline from the current point
	// forward; RebuildModeFull throws away the whole timeline first.
	RebuildModeRefresh = "refresh"
	RebuildModeFull    = "rebuild"
)

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID         int         `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	Progress   int         `json:"progress"`
	ProcessID  *string     `json:"process_id,omitempty"`
}

func (job *Job) UnmarshalData() error {
	switch job.Type {
	case JobTypeScan:
		job.DataParsed = &JobScanData{}
	case JobTypeRebuildPlayout:
		job.DataParsed = &JobRebuildPlayoutData{}
	}

	if job.Data == "" {
		return nil
	}

	err := json.Unmarshal([]byte(job.Data), job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

type JobScanData struct{}

type JobRebuildPlayoutData struct {
	ChannelID int    `json:"channel_id"`
	Mode      string `json:"mode"`
}
