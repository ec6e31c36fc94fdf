package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ItemStateActive  = "active"
	ItemStateMissing = "missing"
)

const (
	// MetadataSourceFallback marks placeholder metadata derived from the
	// filename alone; it is replaced the next time the file is probed.
	MetadataSourceFallback = "fallback"
	MetadataSourceProbe    = "probe"
)

// MediaItem is a catalog entry tied 1:1 to a source file path. Items whose
// source file disappears are flagged missing rather than deleted, so history
// survives transient unmounts.
type MediaItem struct {
	bun.BaseModel `bun:"table:media_items,alias:mi"`

	ID                int        `bun:",pk,nullzero" json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LibraryPathID     int        `bun:",nullzero" json:"library_path_id"`
	Filepath          string     `bun:",nullzero" json:"filepath"`
	FilesizeBytes     int64      `json:"filesize_bytes"`
	Title             string     `json:"title"`
	MimeType          *string    `json:"mime_type,omitempty"`
	MetadataSource    *string    `json:"metadata_source,omitempty"`
	MetadataUpdatedAt *time.Time `json:"metadata_updated_at,omitempty"`
	State             string     `bun:",nullzero,default:'active'" json:"state"`
}
