package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-recurrence/internal/model"
	"task-recurrence/internal/repository"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// newTestDB opens a private in-memory database for one test. Shared cache
// keeps the schema visible across pooled connections; capping the pool at one
// connection keeps it alive for the test's lifetime.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type testEngine struct {
	db          *gorm.DB
	rules       *repository.RuleRepository
	occurrences *repository.OccurrenceRepository
	generator   *GeneratorService
	completion  *CompletionService
	ruleSvc     *RuleService
	sweeper     *SweepService
}

// newTestEngine wires the full engine against a fresh database with "now"
// pinned. Lifecycle and sweep services use a two-week horizon.
func newTestEngine(t *testing.T, now time.Time) *testEngine {
	t.Helper()
	return newEngineForDB(t, newTestDB(t), now)
}

// newEngineForDB wires an engine with its own clock over an existing
// database, for scenarios that replay successive days against shared state.
func newEngineForDB(t *testing.T, db *gorm.DB, now time.Time) *testEngine {
	t.Helper()
	clock := fixedClock{now: now}
	rules := repository.NewRuleRepository(db)
	occurrences := repository.NewOccurrenceRepository(db)
	generator := NewGeneratorService(rules, occurrences, clock)
	return &testEngine{
		db:          db,
		rules:       rules,
		occurrences: occurrences,
		generator:   generator,
		completion:  NewCompletionService(occurrences, clock),
		ruleSvc:     NewRuleService(rules, occurrences, generator, clock, 2),
		sweeper:     NewSweepService(rules, occurrences, generator, clock, 2),
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// monday is a fixed anchor date for scenarios that need a known weekday:
// 2026-03-02 is a Monday.
var monday = date(2026, time.March, 2)

func seedOccurrence(t *testing.T, e *testEngine, occ model.TaskOccurrence) {
	t.Helper()
	require.NoError(t, e.db.Create(&occ).Error)
}

func completedOn(taskID uint, day time.Time, actorID uint) model.TaskOccurrence {
	completedAt := day.Add(20 * time.Hour)
	return model.TaskOccurrence{
		TaskID:         taskID,
		OccurrenceDate: day,
		Completed:      true,
		CompletedAt:    &completedAt,
		CompletedBy:    &actorID,
	}
}

func occurrenceDates(occs []model.TaskOccurrence) []time.Time {
	dates := make([]time.Time, 0, len(occs))
	for _, occ := range occs {
		dates = append(dates, model.DateOnly(occ.OccurrenceDate))
	}
	return dates
}

func listAllOccurrences(t *testing.T, e *testEngine, taskID uint) []model.TaskOccurrence {
	t.Helper()
	var occs []model.TaskOccurrence
	require.NoError(t, e.db.Where("task_id = ?", taskID).Order("occurrence_date ASC").Find(&occs).Error)
	return occs
}
