package playout

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
)

type ListItemsOptions struct {
	ChannelID *int
	// StartingAfter keeps only items that are still playing or haven't
	// started at the given instant.
	StartingAfter *time.Time
	Limit         *int
	Offset        *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateItems(ctx context.Context, items []*models.PlayoutItem) error {
	if len(items) == 0 {
		return nil
	}

	now := time.Now()
	for _, item := range items {
		item.CreatedAt = now
		item.UpdatedAt = now
	}

	_, err := svc.db.
		NewInsert().
		Model(&items).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) ListItems(ctx context.Context, opts ListItemsOptions) ([]*models.PlayoutItem, error) {
	items := []*models.PlayoutItem{}

	q := svc.db.
		NewSelect().
		Model(&items).
		Order("pi.start_at ASC")

	if opts.ChannelID != nil {
		q = q.Where("pi.channel_id = ?", *opts.ChannelID)
	}
	if opts.StartingAfter != nil {
		q = q.Where("pi.finish_at > ?", *opts.StartingAfter)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return items, nil
}

// DeleteItems removes a channel's playout rows. With From set, only items
// finishing after that instant go; without it, the whole timeline goes.
func (svc *Service) DeleteItems(ctx context.Context, channelID int, from *time.Time) error {
	q := svc.db.
		NewDelete().
		Model((*models.PlayoutItem)(nil)).
		Where("channel_id = ?", channelID)

	if from != nil {
		q = q.Where("finish_at > ?", *from)
	}

	_, err := q.Exec(ctx)
	return errors.WithStack(err)
}
