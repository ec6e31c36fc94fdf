package scanner

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
)

// FolderService persists per-folder scan state (etag and outcome) keyed by
// (library path, folder path).
type FolderService struct {
	db *bun.DB
}

func NewFolderService(db *bun.DB) *FolderService {
	return &FolderService{db}
}

func (svc *FolderService) RetrieveFolder(ctx context.Context, libraryPathID int, path string) (*models.LibraryFolder, error) {
	folder := &models.LibraryFolder{}

	err := svc.db.
		NewSelect().
		Model(folder).
		Where("lf.library_path_id = ?", libraryPathID).
		Where("lf.path = ?", path).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Library folder")
		}
		return nil, errors.WithStack(err)
	}

	return folder, nil
}

func (svc *FolderService) ListFolders(ctx context.Context, libraryPathID int) ([]*models.LibraryFolder, error) {
	folders := []*models.LibraryFolder{}

	err := svc.db.
		NewSelect().
		Model(&folders).
		Where("lf.library_path_id = ?", libraryPathID).
		Order("lf.path ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return folders, nil
}

// UpsertFolder commits the folder's scan state in one statement, so a pass
// can never leave a half-written record behind.
func (svc *FolderService) UpsertFolder(ctx context.Context, folder *models.LibraryFolder) error {
	now := time.Now()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = now
	}
	folder.UpdatedAt = now

	_, err := svc.db.
		NewInsert().
		Model(folder).
		On("CONFLICT (library_path_id, path) DO UPDATE").
		Set("etag = EXCLUDED.etag").
		Set("last_scan_succeeded = EXCLUDED.last_scan_succeeded").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *FolderService) DeleteFolder(ctx context.Context, folder *models.LibraryFolder) error {
	_, err := svc.db.
		NewDelete().
		Model(folder).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}
