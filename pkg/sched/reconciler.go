package sched

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/telecasthq/telecast/pkg/dispatch"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
)

// AlternateInput is one desired alternate in a replacement request. Identity
// correlates incoming entries with stored rows across reconfigurations; a
// blank identity means a brand new entry.
type AlternateInput struct {
	Identity     string
	ScheduleID   int
	Index        int
	DaysOfWeek   models.IntSet
	DaysOfMonth  models.IntSet
	MonthsOfYear models.IntSet
}

// ReplaceOutcome summarizes what a replacement changed and whether it made
// any future day's effective schedule diverge.
type ReplaceOutcome struct {
	Added            int
	Removed          int
	Updated          int
	DefaultSchedule  int
	RebuildRequested bool
	DivergedOn       *time.Time
	Canceled         bool
}

// Reconciler replaces a channel's alternate set wholesale and requests a
// playout rebuild when the change alters the effective schedule for any day
// in the lookahead window.
type Reconciler struct {
	db         *bun.DB
	dispatcher dispatch.Dispatcher

	// Overridable for tests.
	resolve func(defaultScheduleID int, alternates []*models.ScheduleAlternate, day time.Time) int
	now     func() time.Time
}

func NewReconciler(db *bun.DB, dispatcher dispatch.Dispatcher) *Reconciler {
	return &Reconciler{
		db:         db,
		dispatcher: dispatcher,
		resolve:    Resolve,
		now:        time.Now,
	}
}

func (r *Reconciler) Replace(ctx context.Context, channelID int, incoming []AlternateInput) (*ReplaceOutcome, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"channel_id": channelID})

	if len(incoming) == 0 {
		return nil, errcodes.ValidationError("A channel needs at least one schedule entry.")
	}
	if err := validateIncoming(incoming); err != nil {
		return nil, err
	}

	channel := &models.Channel{}
	err := r.db.
		NewSelect().
		Model(channel).
		Relation("Alternates").
		Where("c.id = ?", channelID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Channel")
		}
		return nil, errors.WithStack(err)
	}

	// Snapshot the pre-change configuration for the divergence scan. The
	// update path below mutates the stored rows in place, so the snapshot
	// copies them first.
	oldDefaultID := channel.DefaultScheduleID
	oldAlternates := make([]*models.ScheduleAlternate, len(channel.Alternates))
	for i, alt := range channel.Alternates {
		snapshot := *alt
		oldAlternates[i] = &snapshot
	}

	// The maximum-index entry becomes the channel's default and is never
	// stored as an alternate row.
	maxIdx := 0
	for i, in := range incoming {
		if in.Index > incoming[maxIdx].Index {
			maxIdx = i
		}
	}
	newDefaultID := incoming[maxIdx].ScheduleID

	remaining := make([]AlternateInput, 0, len(incoming)-1)
	for i, in := range incoming {
		if i == maxIdx {
			continue
		}
		if in.Identity == "" {
			in.Identity = uuid.NewString()
		}
		remaining = append(remaining, in)
	}

	current := make(map[string]*models.ScheduleAlternate, len(channel.Alternates))
	for _, alt := range channel.Alternates {
		current[alt.Identity] = alt
	}

	toAdd := make([]*models.ScheduleAlternate, 0)
	toUpdate := make([]*models.ScheduleAlternate, 0)
	newAlternates := make([]*models.ScheduleAlternate, 0, len(remaining))
	seen := make(map[string]struct{}, len(remaining))
	for _, in := range remaining {
		seen[in.Identity] = struct{}{}
		if existing, ok := current[in.Identity]; ok {
			// Update every field in place, not only the changed ones.
			existing.ScheduleID = in.ScheduleID
			existing.Index = in.Index
			existing.DaysOfWeek = in.DaysOfWeek
			existing.DaysOfMonth = in.DaysOfMonth
			existing.MonthsOfYear = in.MonthsOfYear
			toUpdate = append(toUpdate, existing)
			newAlternates = append(newAlternates, existing)
			continue
		}
		added := &models.ScheduleAlternate{
			Identity:     in.Identity,
			ChannelID:    channelID,
			ScheduleID:   in.ScheduleID,
			Index:        in.Index,
			DaysOfWeek:   in.DaysOfWeek,
			DaysOfMonth:  in.DaysOfMonth,
			MonthsOfYear: in.MonthsOfYear,
		}
		toAdd = append(toAdd, added)
		newAlternates = append(newAlternates, added)
	}

	toRemove := make([]*models.ScheduleAlternate, 0)
	for _, alt := range channel.Alternates {
		if _, ok := seen[alt.Identity]; !ok {
			toRemove = append(toRemove, alt)
		}
	}

	err = r.apply(ctx, channel, newDefaultID, toRemove, toAdd, toUpdate)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	outcome := &ReplaceOutcome{
		Added:           len(toAdd),
		Removed:         len(toRemove),
		Updated:         len(toUpdate),
		DefaultSchedule: newDefaultID,
	}

	// Scan the lookahead window for the first day whose effective schedule
	// diverges; one divergence is enough to justify a rebuild, so stop there.
	divergedOn, canceled := r.firstDivergence(ctx, channelID, oldDefaultID, oldAlternates, newDefaultID, newAlternates)
	outcome.Canceled = canceled
	if divergedOn != nil {
		outcome.DivergedOn = divergedOn
		outcome.RebuildRequested = true
		err := r.dispatcher.RequestRebuild(ctx, dispatch.RebuildRequest{
			ChannelID: channelID,
			Mode:      models.RebuildModeRefresh,
		})
		if err != nil {
			// The schedule change is already committed; a lost rebuild
			// request is logged, not rolled back.
			log.Err(err).Error("rebuild dispatch failed")
		}
		log.Info("schedule divergence detected", logger.Data{"diverged_on": divergedOn.Format("2006-01-02")})
	}

	return outcome, nil
}

func validateIncoming(incoming []AlternateInput) error {
	indices := make(map[int]struct{}, len(incoming))
	identities := make(map[string]struct{}, len(incoming))
	for _, in := range incoming {
		if _, ok := indices[in.Index]; ok {
			return errcodes.ValidationError("Schedule entry indices must be unique.")
		}
		indices[in.Index] = struct{}{}
		if in.Identity == "" {
			continue
		}
		if _, ok := identities[in.Identity]; ok {
			return errcodes.ValidationError("Schedule entry identities must be unique.")
		}
		identities[in.Identity] = struct{}{}
	}
	return nil
}

// apply commits removals, additions, field updates, and the new default
// reference as one transaction. The channel row carries an optimistic guard
// so overlapping reconfigurations can't silently interleave.
func (r *Reconciler) apply(ctx context.Context, channel *models.Channel, newDefaultID int, toRemove, toAdd, toUpdate []*models.ScheduleAlternate) error {
	prevUpdatedAt := channel.UpdatedAt
	now := time.Now()

	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if len(toRemove) > 0 {
			_, err := tx.
				NewDelete().
				Model(&toRemove).
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		for _, alt := range toAdd {
			alt.CreatedAt = now
			alt.UpdatedAt = now
		}
		if len(toAdd) > 0 {
			_, err := tx.
				NewInsert().
				Model(&toAdd).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		for _, alt := range toUpdate {
			alt.UpdatedAt = now
			_, err := tx.
				NewUpdate().
				Model(alt).
				Column("schedule_id", "priority_index", "days_of_week", "days_of_month", "months_of_year", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		channel.DefaultScheduleID = newDefaultID
		channel.UpdatedAt = now
		res, err := tx.
			NewUpdate().
			Model(channel).
			Column("default_schedule_id", "updated_at").
			WherePK().
			Where("c.updated_at = ?", prevUpdatedAt).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.Conflict("Channel")
		}

		return nil
	})
}

// firstDivergence walks the lookahead window day by day and returns the first
// day whose effective schedule differs between the old and new configuration.
// No day past the first divergence is ever computed.
func (r *Reconciler) firstDivergence(ctx context.Context, channelID, oldDefaultID int, oldAlternates []*models.ScheduleAlternate, newDefaultID int, newAlternates []*models.ScheduleAlternate) (*time.Time, bool) {
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	endDay := r.windowEnd(ctx, channelID, now, today)

	for day := today; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return nil, true
		}
		oldID := r.resolve(oldDefaultID, oldAlternates, day)
		newID := r.resolve(newDefaultID, newAlternates, day)
		if oldID != newID {
			d := day
			return &d, false
		}
	}

	return nil, false
}

// windowEnd is the later of the day of the channel's currently-playing-or-
// next playout item and one day from now.
func (r *Reconciler) windowEnd(ctx context.Context, channelID int, now, today time.Time) time.Time {
	endDay := today.AddDate(0, 0, 1)

	next := &models.PlayoutItem{}
	err := r.db.
		NewSelect().
		Model(next).
		Where("pi.channel_id = ?", channelID).
		Where("pi.finish_at > ?", now).
		Order("pi.start_at ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.FromContext(ctx).Err(err).Error("next playout item lookup failed")
		}
		return endDay
	}

	start := next.StartAt.In(now.Location())
	nextDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	if nextDay.After(endDay) {
		endDay = nextDay
	}
	return endDay
}
