package mediaitems

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telecasthq/telecast/pkg/migrations"
	"github.com/telecasthq/telecast/pkg/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestPipeline(t *testing.T) (*Pipeline, *Service, int) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	_, err = migrations.BringUpToDate(ctx, db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	now := time.Now()
	library := &models.Library{Name: "Test", CreatedAt: now, UpdatedAt: now}
	_, err = db.NewInsert().Model(library).Returning("*").Exec(ctx)
	require.NoError(t, err)

	libraryPath := &models.LibraryPath{
		LibraryID: library.ID,
		Filepath:  t.TempDir(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = db.NewInsert().Model(libraryPath).Returning("*").Exec(ctx)
	require.NoError(t, err)

	service := NewService(db)
	return NewPipeline(service), service, libraryPath.ID
}

func TestGetOrAdd_CreatesWithFallbackMetadata(t *testing.T) {
	pipeline, _, libraryPathID := newTestPipeline(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "The.Big.Feature_part1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0600))

	item, created, err := pipeline.GetOrAdd(ctx, libraryPathID, path)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "The Big Feature part1", item.Title)
	require.NotNil(t, item.MetadataSource)
	assert.Equal(t, models.MetadataSourceFallback, *item.MetadataSource)
	assert.Equal(t, models.ItemStateActive, item.State)

	// The second call finds the existing row.
	again, created, err := pipeline.GetOrAdd(ctx, libraryPathID, path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)
}

func TestRefreshStatistics_TracksFilesize(t *testing.T) {
	pipeline, service, libraryPathID := newTestPipeline(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0600))

	item, _, err := pipeline.GetOrAdd(ctx, libraryPathID, path)
	require.NoError(t, err)
	require.NoError(t, pipeline.RefreshStatistics(ctx, item))
	assert.EqualValues(t, 5, item.FilesizeBytes)

	require.NoError(t, os.WriteFile(path, []byte("1234567890"), 0600))
	require.NoError(t, pipeline.RefreshStatistics(ctx, item))
	assert.EqualValues(t, 10, item.FilesizeBytes)

	stored, err := service.RetrieveItem(ctx, RetrieveItemOptions{ID: &item.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 10, stored.FilesizeBytes)
}

func TestRefreshMetadata_ProbesOnceThenSkips(t *testing.T) {
	pipeline, _, libraryPathID := newTestPipeline(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really video"), 0600))

	item, _, err := pipeline.GetOrAdd(ctx, libraryPathID, path)
	require.NoError(t, err)

	changed, err := pipeline.RefreshMetadata(ctx, item)
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, item.MetadataSource)
	assert.Equal(t, models.MetadataSourceProbe, *item.MetadataSource)
	require.NotNil(t, item.MetadataUpdatedAt)

	// Unchanged file, probed metadata: nothing to do.
	changed, err = pipeline.RefreshMetadata(ctx, item)
	require.NoError(t, err)
	assert.False(t, changed)

	// Touching the file forces a re-probe.
	newTime := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, newTime, newTime))

	changed, err = pipeline.RefreshMetadata(ctx, item)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestFinalize_ReactivatesMissingItem(t *testing.T) {
	pipeline, service, libraryPathID := newTestPipeline(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0600))

	item, _, err := pipeline.GetOrAdd(ctx, libraryPathID, path)
	require.NoError(t, err)

	item.State = models.ItemStateMissing
	require.NoError(t, service.UpdateItem(ctx, item, UpdateItemOptions{Columns: []string{"state"}}))

	require.NoError(t, pipeline.Finalize(ctx, item))

	stored, err := service.RetrieveItem(ctx, RetrieveItemOptions{ID: &item.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ItemStateActive, stored.State)
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "The Big Feature", titleFromFilename("/media/The.Big.Feature.mp4"))
	assert.Equal(t, "episode 01", titleFromFilename("episode_01.mkv"))
	assert.Equal(t, "plain", titleFromFilename("plain.ts"))
}
