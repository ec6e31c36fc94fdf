package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LibraryFolder records the last known content fingerprint of a folder under
// a library path. The etag is only written after a pass that processed every
// file in the folder without error, so a stale etag means the folder needs to
// be revisited.
type LibraryFolder struct {
	bun.BaseModel `bun:"table:library_folders,alias:lf"`

	ID                int       `bun:",pk,nullzero" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	LibraryPathID     int       `bun:",nullzero" json:"library_path_id"`
	Path              string    `bun:",nullzero" json:"path"`
	Etag              string    `json:"etag"`
	LastScanSucceeded bool      `json:"last_scan_succeeded"`
}
