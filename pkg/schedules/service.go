package schedules

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db: db,
	}
}

type RetrieveScheduleOptions struct {
	ID *int
}

type ListSchedulesOptions struct {
	Limit  *int
	Offset *int
}

type UpdateScheduleOptions struct {
	Columns []string
}

func (s *Service) CreateSchedule(ctx context.Context, schedule *models.Schedule) error {
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(schedule).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (s *Service) RetrieveSchedule(ctx context.Context, opts RetrieveScheduleOptions) (*models.Schedule, error) {
	schedule := &models.Schedule{}

	q := s.db.NewSelect().
		Model(schedule)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Schedule")
		}
		return nil, errors.WithStack(err)
	}

	return schedule, nil
}

func (s *Service) ListSchedules(ctx context.Context, opts ListSchedulesOptions) ([]*models.Schedule, error) {
	scheds := []*models.Schedule{}

	q := s.db.NewSelect().
		Model(&scheds).
		Order("s.name ASC")

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

	return scheds, nil
}

func (s *Service) ListSchedulesWithTotal(ctx context.Context, opts ListSchedulesOptions) ([]*models.Schedule, int, error) {
	scheds, err := s.ListSchedules(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.db.NewSelect().
		Model((*models.Schedule)(nil)).
		Count(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return scheds, total, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, schedule *models.Schedule, opts UpdateScheduleOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	schedule.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")

	_, err := s.db.NewUpdate().
		Model(schedule).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}
