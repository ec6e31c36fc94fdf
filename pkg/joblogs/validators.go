package joblogs

// ListJobLogsQuery are the supported query params when listing a job's logs.
type ListJobLogsQuery struct {
	AfterID int      `query:"after_id" validate:"omitempty,min=1"`
	Level   []string `query:"level" validate:"dive,oneof=info warn error fatal"`
}
