package mediaitems

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveItemOptions struct {
	ID            *int
	Filepath      *string
	LibraryPathID *int
}

type ListItemsOptions struct {
	Limit         *int
	Offset        *int
	LibraryPathID *int
	States        []string

	includeTotal bool
}

type UpdateItemOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateItem(ctx context.Context, item *models.MediaItem) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = item.CreatedAt
	if item.State == "" {
		item.State = models.ItemStateActive
	}

	_, err := svc.db.
		NewInsert().
		Model(item).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveItem(ctx context.Context, opts RetrieveItemOptions) (*models.MediaItem, error) {
	item := &models.MediaItem{}

	q := svc.db.
		NewSelect().
		Model(item)

	if opts.ID != nil {
		q = q.Where("mi.id = ?", *opts.ID)
	}
	if opts.Filepath != nil {
		q = q.Where("mi.filepath = ?", *opts.Filepath)
	}
	if opts.LibraryPathID != nil {
		q = q.Where("mi.library_path_id = ?", *opts.LibraryPathID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Media item")
		}
		return nil, errors.WithStack(err)
	}

	return item, nil
}

func (svc *Service) ListItems(ctx context.Context, opts ListItemsOptions) ([]*models.MediaItem, error) {
	items, _, err := svc.listItemsWithTotal(ctx, opts)
	return items, errors.WithStack(err)
}

func (svc *Service) ListItemsWithTotal(ctx context.Context, opts ListItemsOptions) ([]*models.MediaItem, int, error) {
	opts.includeTotal = true
	return svc.listItemsWithTotal(ctx, opts)
}

func (svc *Service) listItemsWithTotal(ctx context.Context, opts ListItemsOptions) ([]*models.MediaItem, int, error) {
	items := []*models.MediaItem{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&items).
		Order("mi.filepath ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.LibraryPathID != nil {
		q = q.Where("mi.library_path_id = ?", *opts.LibraryPathID)
	}
	if opts.States != nil {
		q = q.Where("mi.state IN (?)", bun.In(opts.States))
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return items, total, nil
}

func (svc *Service) UpdateItem(ctx context.Context, item *models.MediaItem, opts UpdateItemOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	item.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(item).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Media item")
		}
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) DeleteItem(ctx context.Context, item *models.MediaItem) error {
	_, err := svc.db.
		NewDelete().
		Model(item).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}
