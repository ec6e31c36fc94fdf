package sched

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecasthq/telecast/pkg/dispatch"
	"github.com/telecasthq/telecast/pkg/errcodes"
	"github.com/telecasthq/telecast/pkg/migrations"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func seedSchedules(t *testing.T, db *bun.DB, names ...string) []*models.Schedule {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	scheds := make([]*models.Schedule, 0, len(names))
	for _, name := range names {
		scheds = append(scheds, &models.Schedule{Name: name, CreatedAt: now, UpdatedAt: now})
	}

	_, err := db.NewInsert().Model(&scheds).Returning("*").Exec(ctx)
	require.NoError(t, err)
	return scheds
}

func seedChannel(t *testing.T, db *bun.DB, defaultScheduleID int) *models.Channel {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	channel := &models.Channel{
		Name:              "Movies",
		Number:            "4.1",
		DefaultScheduleID: defaultScheduleID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err := db.NewInsert().Model(channel).Returning("*").Exec(ctx)
	require.NoError(t, err)
	return channel
}

func loadAlternates(t *testing.T, db *bun.DB, channelID int) []*models.ScheduleAlternate {
	t.Helper()
	alternates := []*models.ScheduleAlternate{}
	err := db.NewSelect().
		Model(&alternates).
		Where("sa.channel_id = ?", channelID).
		Order("sa.priority_index ASC").
		Scan(context.Background())
	require.NoError(t, err)
	return alternates
}

func loadChannel(t *testing.T, db *bun.DB, channelID int) *models.Channel {
	t.Helper()
	channel := &models.Channel{}
	err := db.NewSelect().
		Model(channel).
		Where("c.id = ?", channelID).
		Scan(context.Background())
	require.NoError(t, err)
	return channel
}

func TestReplace_EmptySetRejected(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, dispatch.NewRecorder())

	_, err := r.Replace(context.Background(), 1, nil)
	assert.ErrorIs(t, err, errcodes.ValidationError("A channel needs at least one schedule entry."))
}

func TestReplace_DuplicateIndicesRejected(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, dispatch.NewRecorder())

	_, err := r.Replace(context.Background(), 1, []AlternateInput{
		{ScheduleID: 1, Index: 0},
		{ScheduleID: 2, Index: 0},
	})
	assert.ErrorIs(t, err, errcodes.ValidationError("Schedule entry indices must be unique."))
}

func TestReplace_ChannelNotFound(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, dispatch.NewRecorder())

	_, err := r.Replace(context.Background(), 999, []AlternateInput{
		{ScheduleID: 1, Index: 0},
	})
	assert.ErrorIs(t, err, errcodes.NotFound("Channel"))
}

func TestReplace_MaxIndexBecomesDefault(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "mondays", "weekend")
	channel := seedChannel(t, db, scheds[0].ID)
	r := NewReconciler(db, dispatch.NewRecorder())

	outcome, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0, DaysOfWeek: models.IntSet{1}},
		{ScheduleID: scheds[2].ID, Index: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, scheds[2].ID, outcome.DefaultSchedule)
	assert.Equal(t, 1, outcome.Added)

	// The default entry is never stored as a row.
	alternates := loadAlternates(t, db, channel.ID)
	require.Len(t, alternates, 1)
	assert.Equal(t, scheds[1].ID, alternates[0].ScheduleID)
	assert.NotEmpty(t, alternates[0].Identity)

	assert.Equal(t, scheds[2].ID, loadChannel(t, db, channel.ID).DefaultScheduleID)
}

func TestReplace_IdentityPreservesRow(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "mondays", "tuesdays")
	channel := seedChannel(t, db, scheds[0].ID)
	r := NewReconciler(db, dispatch.NewRecorder())

	_, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0, DaysOfWeek: models.IntSet{1}},
		{ScheduleID: scheds[0].ID, Index: 5},
	})
	require.NoError(t, err)

	before := loadAlternates(t, db, channel.ID)
	require.Len(t, before, 1)

	// Resubmit the same entry under its identity with a changed condition.
	outcome, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{Identity: before[0].Identity, ScheduleID: scheds[2].ID, Index: 0, DaysOfWeek: models.IntSet{2}},
		{ScheduleID: scheds[0].ID, Index: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.Added)
	assert.Equal(t, 0, outcome.Removed)
	assert.Equal(t, 1, outcome.Updated)

	after := loadAlternates(t, db, channel.ID)
	require.Len(t, after, 1)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, scheds[2].ID, after[0].ScheduleID)
	assert.Equal(t, models.IntSet{2}, after[0].DaysOfWeek)
}

func TestReplace_UpdateUnderIdentityRequestsRebuild(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "first", "second")
	channel := seedChannel(t, db, scheds[0].ID)
	recorder := dispatch.NewRecorder()
	r := NewReconciler(db, recorder)

	// A match-any alternate governs every day in the window.
	_, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0},
		{ScheduleID: scheds[0].ID, Index: 5},
	})
	require.NoError(t, err)
	require.Len(t, recorder.RebuildRequests(), 1)

	stored := loadAlternates(t, db, channel.ID)
	require.Len(t, stored, 1)

	// Swapping its schedule under the same identity flips every day's
	// answer, so the divergence scan must see the pre-change configuration.
	outcome, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{Identity: stored[0].Identity, ScheduleID: scheds[2].ID, Index: 0},
		{ScheduleID: scheds[0].ID, Index: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Updated)
	assert.True(t, outcome.RebuildRequested)
	require.NotNil(t, outcome.DivergedOn)
	assert.Len(t, recorder.RebuildRequests(), 2)
}

func TestReplace_UnknownIdentityRemovesRow(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "mondays", "tuesdays")
	channel := seedChannel(t, db, scheds[0].ID)
	r := NewReconciler(db, dispatch.NewRecorder())

	_, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0, DaysOfWeek: models.IntSet{1}},
		{ScheduleID: scheds[0].ID, Index: 5},
	})
	require.NoError(t, err)

	// A fresh set without the old identity replaces the row wholesale.
	outcome, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[2].ID, Index: 0, DaysOfWeek: models.IntSet{2}},
		{ScheduleID: scheds[0].ID, Index: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Added)
	assert.Equal(t, 1, outcome.Removed)
	assert.Equal(t, 0, outcome.Updated)

	after := loadAlternates(t, db, channel.ID)
	require.Len(t, after, 1)
	assert.Equal(t, scheds[2].ID, after[0].ScheduleID)
}

func TestReplace_EquivalentSetNoRebuild(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "mondays")
	channel := seedChannel(t, db, scheds[0].ID)
	recorder := dispatch.NewRecorder()
	r := NewReconciler(db, recorder)

	// Pinned to a Tuesday so the two-day window holds no Monday and the
	// Mondays alternate can't diverge on its own.
	r.now = func() time.Time { return time.Date(2026, time.June, 2, 12, 0, 0, 0, time.UTC) }

	entries := []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0, DaysOfWeek: models.IntSet{1}},
		{ScheduleID: scheds[0].ID, Index: 5},
	}

	_, err := r.Replace(context.Background(), channel.ID, entries)
	require.NoError(t, err)
	require.Empty(t, recorder.RebuildRequests())

	// Replaying the identical configuration commits rows but changes no
	// day's answer, so no rebuild is requested.
	stored := loadAlternates(t, db, channel.ID)
	require.Len(t, stored, 1)
	entries[0].Identity = stored[0].Identity

	outcome, err := r.Replace(context.Background(), channel.ID, entries)
	require.NoError(t, err)

	assert.False(t, outcome.RebuildRequested)
	assert.Nil(t, outcome.DivergedOn)
	assert.Empty(t, recorder.RebuildRequests())
}

func TestReplace_DivergenceRequestsOneRebuild(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "replacement")
	channel := seedChannel(t, db, scheds[0].ID)
	recorder := dispatch.NewRecorder()
	r := NewReconciler(db, recorder)

	// Swapping the default changes every day in the window, starting today.
	outcome, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0},
	})
	require.NoError(t, err)

	assert.True(t, outcome.RebuildRequested)
	require.NotNil(t, outcome.DivergedOn)

	requests := recorder.RebuildRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, channel.ID, requests[0].ChannelID)
	assert.Equal(t, models.RebuildModeRefresh, requests[0].Mode)
}

func TestReplace_StopsAtFirstDivergence(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "replacement")
	channel := seedChannel(t, db, scheds[0].ID)
	r := NewReconciler(db, dispatch.NewRecorder())

	calls := 0
	r.resolve = func(defaultScheduleID int, alternates []*models.ScheduleAlternate, day time.Time) int {
		calls++
		return Resolve(defaultScheduleID, alternates, day)
	}

	// The window spans today and tomorrow; the default swap diverges on
	// today, so only today is ever evaluated (once per configuration).
	outcome, err := r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0},
	})
	require.NoError(t, err)

	require.NotNil(t, outcome.DivergedOn)
	assert.Equal(t, 2, calls)
}

func TestWindowEnd_QueryFailureFallsBackToOneDay(t *testing.T) {
	db := newTestDB(t)
	r := NewReconciler(db, dispatch.NewRecorder())

	// A failing playout lookup must not widen or kill the scan; the window
	// collapses to its one-day minimum.
	require.NoError(t, db.Close())

	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	today := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	endDay := r.windowEnd(context.Background(), 1, now, today)
	assert.Equal(t, today.AddDate(0, 0, 1), endDay)
}

func TestReplace_WindowExtendsToNextPlayoutItem(t *testing.T) {
	db := newTestDB(t)
	scheds := seedSchedules(t, db, "base", "fourth-of-month")
	channel := seedChannel(t, db, scheds[0].ID)
	recorder := dispatch.NewRecorder()
	r := NewReconciler(db, recorder)

	fixedNow := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixedNow }

	// An alternate that only affects June 4th, outside the default two-day
	// window.
	entries := []AlternateInput{
		{ScheduleID: scheds[1].ID, Index: 0, DaysOfMonth: models.IntSet{4}, MonthsOfYear: models.IntSet{6}},
		{ScheduleID: scheds[0].ID, Index: 5},
	}

	outcome, err := r.Replace(context.Background(), channel.ID, entries)
	require.NoError(t, err)
	assert.False(t, outcome.RebuildRequested)

	// With a playout item reaching June 5th the window now covers June 4th.
	item := &models.PlayoutItem{
		ChannelID:  channel.ID,
		ScheduleID: scheds[0].ID,
		Title:      "Scheduled block",
		StartAt:    time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
		FinishAt:   time.Date(2026, time.June, 6, 0, 0, 0, 0, time.UTC),
		CreatedAt:  fixedNow,
		UpdatedAt:  fixedNow,
	}
	_, err = db.NewInsert().Model(item).Exec(context.Background())
	require.NoError(t, err)

	// Remove the alternate; June 4th's answer flips back, which the wider
	// window now notices.
	outcome, err = r.Replace(context.Background(), channel.ID, []AlternateInput{
		{ScheduleID: scheds[0].ID, Index: 5},
	})
	require.NoError(t, err)

	assert.True(t, outcome.RebuildRequested)
	require.NotNil(t, outcome.DivergedOn)
	assert.Equal(t, time.Date(2026, time.June, 4, 0, 0, 0, 0, time.UTC), outcome.DivergedOn.UTC())
}
