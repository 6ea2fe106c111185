package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-recurrence/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateBatchIgnoresExistingDates(t *testing.T) {
	repo := NewOccurrenceRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.TaskOccurrence{TaskID: 1, OccurrenceDate: day(2)}))

	// The batch collides on day 2; the conflict must resolve silently and
	// only the fresh row counts as inserted.
	inserted, err := repo.CreateBatch(ctx, []model.TaskOccurrence{
		{TaskID: 1, OccurrenceDate: day(2)},
		{TaskID: 1, OccurrenceDate: day(3)},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	count, err := repo.CountByTask(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "one row per task per date, no duplicates")
}

func TestDuplicateSingleInsertIsDetectable(t *testing.T) {
	repo := NewOccurrenceRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.TaskOccurrence{TaskID: 1, OccurrenceDate: day(2)}))

	err := repo.Create(ctx, &model.TaskOccurrence{TaskID: 1, OccurrenceDate: day(2)})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "race losers need a recognizable error")

	// Same date on a different task is fine.
	require.NoError(t, repo.Create(ctx, &model.TaskOccurrence{TaskID: 2, OccurrenceDate: day(2)}))
}

func TestExistingDatesInRange(t *testing.T) {
	repo := NewOccurrenceRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.CreateBatch(ctx, []model.TaskOccurrence{
		{TaskID: 1, OccurrenceDate: day(2)},
		{TaskID: 1, OccurrenceDate: day(5)},
		{TaskID: 1, OccurrenceDate: day(20)},
		{TaskID: 2, OccurrenceDate: day(3)},
	})
	require.NoError(t, err)

	existing, err := repo.ExistingDatesInRange(ctx, 1, day(1), day(10))
	require.NoError(t, err)
	assert.Equal(t, map[time.Time]bool{day(2): true, day(5): true}, existing)
}

func TestPurgeBeforeKeepsPendingRows(t *testing.T) {
	repo := NewOccurrenceRepository(newTestDB(t))
	ctx := context.Background()

	completedAt := day(1).Add(12 * time.Hour)
	require.NoError(t, repo.Create(ctx, &model.TaskOccurrence{TaskID: 1, OccurrenceDate: day(1), Completed: true, CompletedAt: &completedAt}))
	require.NoError(t, repo.Create(ctx, &model.TaskOccurrence{TaskID: 1, OccurrenceDate: day(2), Skipped: true}))
	require.NoError(t, repo.Create(ctx, &model.TaskOccurrence{TaskID: 1, OccurrenceDate: day(3)}))

	purged, err := repo.PurgeBefore(ctx, day(10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)

	count, err := repo.CountByTask(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
