package channels

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveChannelOptions struct {
	ID     *int
	Number *string
}

type ListChannelsOptions struct {
	Limit  *int
	Offset *int

	includeTotal bool
}

type UpdateChannelOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateChannel(ctx context.Context, channel *models.Channel) error {
	now := time.Now()
	if channel.CreatedAt.IsZero() {
		channel.CreatedAt = now
	}
	channel.UpdatedAt = channel.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(channel).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveChannel(ctx context.Context, opts RetrieveChannelOptions) (*models.Channel, error) {
	channel := &models.Channel{}

	q := svc.db.
		NewSelect().
		Model(channel).
		Relation("DefaultSchedule").
		Relation("Alternates", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("priority_index ASC")
		})

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}
	if opts.Number != nil {
		q = q.Where("c.number = ?", *opts.Number)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Channel")
		}
		return nil, errors.WithStack(err)
	}

	return channel, nil
}

func (svc *Service) ListChannels(ctx context.Context, opts ListChannelsOptions) ([]*models.Channel, error) {
	c, _, err := svc.listChannelsWithTotal(ctx, opts)
	return c, errors.WithStack(err)
}

func (svc *Service) ListChannelsWithTotal(ctx context.Context, opts ListChannelsOptions) ([]*models.Channel, int, error) {
	opts.includeTotal = true
	return svc.listChannelsWithTotal(ctx, opts)
}

func (svc *Service) listChannelsWithTotal(ctx context.Context, opts ListChannelsOptions) ([]*models.Channel, int, error) {
	channels := []*models.Channel{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&channels).
		Relation("DefaultSchedule").
		Order("c.number ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return channels, total, nil
}

func (svc *Service) UpdateChannel(ctx context.Context, channel *models.Channel, opts UpdateChannelOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	channel.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(channel).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Channel")
		}
		return errors.WithStack(err)
	}

	return nil
}
